package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// AnonKeyMiddleware guards public endpoints such as signup with the shared
// anonymous key the client ships with
type AnonKeyMiddleware struct {
	anonKey []byte
}

// NewAnonKeyMiddleware creates a new AnonKeyMiddleware
func NewAnonKeyMiddleware(anonKey string) *AnonKeyMiddleware {
	return &AnonKeyMiddleware{anonKey: []byte(anonKey)}
}

// Authenticate rejects requests whose bearer is not the anonymous key.
// Failures use the plain {error} body the signup endpoint answers with.
func (m *AnonKeyMiddleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c)
			if !ok || subtle.ConstantTimeCompare([]byte(token), m.anonKey) != 1 {
				log.Debug().Str("path", c.Request().URL.Path).Msg("Anon key rejected")
				return anonError(c, http.StatusUnauthorized, "Unauthorized")
			}
			return next(c)
		}
	}
}
