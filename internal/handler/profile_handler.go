package handler

import (
	"net/http"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/middleware"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// ProfileHandler handles profile-related HTTP requests
type ProfileHandler struct {
	profileService *service.ProfileService
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// ProfileResponse represents the profile response
type ProfileResponse struct {
	User    UserResponse    `json:"user"`
	Balance decimal.Decimal `json:"balance"`
	Goal    decimal.Decimal `json:"goal"`
	Trips   []domain.Trip   `json:"trips"`
}

// GetProfile godoc
// @Summary Get profile
// @Description Returns the user, their balance, goal and trips with fresh targets
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ProfileResponse
// @Failure 401 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /profile [get]
func (h *ProfileHandler) GetProfile(c echo.Context) error {
	userID := middleware.GetUserID(c)
	id, err := uuid.Parse(userID)
	if err != nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	profile, err := h.profileService.GetProfile(c.Request().Context(), id)
	if err != nil {
		return handleServiceError(c, err, userID, "get profile")
	}

	return c.JSON(http.StatusOK, ProfileResponse{
		User:    toUserResponse(profile.User),
		Balance: profile.Balance,
		Goal:    profile.Goal,
		Trips:   profile.Trips,
	})
}
