package handler

import (
	"errors"
	"net/http"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles account creation and token issue
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// SignupRequest represents the signup request
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginRequest represents the login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// SignupResponse represents the signup response
type SignupResponse struct {
	User UserResponse `json:"user"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresIn   int64        `json:"expiresIn"`
	User        UserResponse `json:"user"`
}

func toUserResponse(user *domain.User) UserResponse {
	name := user.Name
	if name == "" {
		name = "User"
	}
	return UserResponse{ID: user.ID.String(), Email: user.Email, Name: name}
}

// Signup godoc
// @Summary Create an account
// @Description Registers a user and initialises their balance, goal and trip list
// @Tags auth
// @Accept json
// @Produce json
// @Security AnonKey
// @Param request body SignupRequest true "Signup request"
// @Success 200 {object} SignupResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
	}

	user, err := h.authService.Signup(c.Request().Context(), service.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrEmailTaken) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		}
		log.Error().Err(err).Str("email", req.Email).Msg("Failed to create user")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Failed to create user"})
	}

	return c.JSON(http.StatusOK, SignupResponse{User: toUserResponse(user)})
}

// Login godoc
// @Summary Log in
// @Description Exchanges email and password for a bearer access token
// @Tags auth
// @Accept json
// @Produce json
// @Security AnonKey
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if req.Email == "" || req.Password == "" {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "email", Message: "Email and password are required"},
		})
	}

	result, err := h.authService.Login(c.Request().Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return handleServiceError(c, err, "", "log in")
	}

	log.Info().Str("user_id", result.User.ID.String()).Msg("User logged in")

	return c.JSON(http.StatusOK, LoginResponse{
		AccessToken: result.AccessToken,
		TokenType:   result.TokenType,
		ExpiresIn:   result.ExpiresIn,
		User:        toUserResponse(result.User),
	})
}
