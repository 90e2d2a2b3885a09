package websocket

import (
	"context"
	"errors"

	"github.com/auth0/go-jwt-middleware/v2/validator"
)

// ErrInvalidToken is returned when JWT validation fails
var ErrInvalidToken = errors.New("invalid token")

// TokenValidator is satisfied by *validator.Validator
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (any, error)
}

// JWTValidator authenticates websocket upgrades from the token query parameter
type JWTValidator struct {
	validator TokenValidator
}

// NewJWTValidator wraps the validator shared with the HTTP auth middleware
func NewJWTValidator(v TokenValidator) *JWTValidator {
	return &JWTValidator{validator: v}
}

// ValidateToken validates a token and returns the user id it was issued to
func (v *JWTValidator) ValidateToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	claims, err := v.validator.ValidateToken(ctx, token)
	if err != nil {
		return "", ErrInvalidToken
	}

	validated, ok := claims.(*validator.ValidatedClaims)
	if !ok || validated.RegisteredClaims.Subject == "" {
		return "", ErrInvalidToken
	}

	return validated.RegisteredClaims.Subject, nil
}
