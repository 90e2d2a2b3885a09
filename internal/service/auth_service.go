package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles signup and login
type AuthService struct {
	userRepo domain.UserRepository
	data     *UserDataStore
	tokens   *TokenIssuer
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo domain.UserRepository, data *UserDataStore, tokens *TokenIssuer) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		data:     data,
		tokens:   tokens,
	}
}

// SignupInput contains the input for creating an account
type SignupInput struct {
	Email    string
	Password string
	Name     string
}

// LoginInput contains the credentials for a login
type LoginInput struct {
	Email    string
	Password string
}

// LoginResult is the issued access token and its owner
type LoginResult struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresIn   int64        `json:"expiresIn"`
	User        *domain.User `json:"user"`
}

// Signup creates a user and initialises their balance, goal and trip list
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*domain.User, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}
	if len(input.Password) < domain.MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, domain.MinPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, &domain.User{
		Email:            email,
		Name:             strings.TrimSpace(input.Name),
		PasswordHash:     string(hash),
		SubscriptionPlan: domain.DefaultSubscriptionPlan,
	})
	if err != nil {
		return nil, err
	}

	if err := s.data.InitUser(ctx, user.ID.String()); err != nil {
		log.Error().Err(err).Str("user_id", user.ID.String()).Msg("Failed to initialise user data")
		return nil, err
	}

	log.Info().Str("user_id", user.ID.String()).Msg("Created new user")
	return user, nil
}

// Login verifies credentials and issues an access token
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(input.Email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, _, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
		User:        user,
	}, nil
}

// GetUserByID retrieves a user by their ID
func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}
