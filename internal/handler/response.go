package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the plain {error} body used by the signup endpoint
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse acknowledges writes that return no entity
type SuccessResponse struct {
	Success bool `json:"success"`
}

// Error types
const (
	ErrorTypeValidation   = "https://tripsaver.app/errors/validation"
	ErrorTypeNotFound     = "https://tripsaver.app/errors/not-found"
	ErrorTypeUnauthorized = "https://tripsaver.app/errors/unauthorized"
	ErrorTypeInternal     = "https://tripsaver.app/errors/internal"
)

func newProblem(c echo.Context, status int, typ, title, detail string, errs []ValidationError) error {
	return c.JSON(status, ProblemDetails{
		Type:     typ,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errs,
	})
}

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return newProblem(c, http.StatusBadRequest, ErrorTypeValidation, "Validation Error", detail, errors)
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return newProblem(c, http.StatusNotFound, ErrorTypeNotFound, "Not Found", detail, nil)
}

// NewUnauthorizedError creates an unauthorized error response
func NewUnauthorizedError(c echo.Context, detail string) error {
	return newProblem(c, http.StatusUnauthorized, ErrorTypeUnauthorized, "Unauthorized", detail, nil)
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return newProblem(c, http.StatusInternalServerError, ErrorTypeInternal, "Internal Server Error", detail, nil)
}

// handleServiceError maps domain errors to problem responses. Anything
// unrecognised is logged and reported as an internal error.
func handleServiceError(c echo.Context, err error, userID, action string) error {
	switch {
	case errors.Is(err, domain.ErrTripNotFound):
		return NewNotFoundError(c, "Trip not found")
	case errors.Is(err, domain.ErrUserNotFound):
		return NewNotFoundError(c, "User not found")
	case errors.Is(err, domain.ErrStorageDisabled):
		return NewNotFoundError(c, "Export storage is not configured")
	case errors.Is(err, domain.ErrInvalidCredentials):
		return NewUnauthorizedError(c, err.Error())
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInvalidProgress),
		errors.Is(err, domain.ErrInvalidPriority),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, domain.ErrInvalidInput):
		return NewValidationError(c, err.Error(), nil)
	}

	log.Error().Err(err).Str("user_id", userID).Msg("Failed to " + action)
	return NewInternalError(c, "Failed to "+action)
}

// parseTripID reads the :id path parameter
func parseTripID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, NewValidationError(c, "Invalid trip ID", []ValidationError{
			{Field: "id", Message: "Must be a positive integer"},
		})
	}
	return id, nil
}
