package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/middleware"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// maxTripBodySize caps PUT /trips/:id patches
const maxTripBodySize = 64 << 10

// TripHandler handles trip-related HTTP requests
type TripHandler struct {
	tripService *service.TripService
}

// NewTripHandler creates a new TripHandler
func NewTripHandler(tripService *service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// CreateTripRequest represents a confirmed plan
type CreateTripRequest struct {
	ID            int64                 `json:"id,omitempty"`
	Name          string                `json:"name"`
	From          string                `json:"from"`
	To            string                `json:"to"`
	StarRating    string                `json:"starRating"`
	Transport     string                `json:"transport"`
	TravelDate    string                `json:"travelDate"`
	ReturnDate    string                `json:"returnDate"`
	EstimatedCost *decimal.Decimal      `json:"estimatedCost,omitempty" swaggertype:"string"`
	Priority      *int                  `json:"priority,omitempty"`
	IsStarred     bool                  `json:"isStarred"`
	Balance       *decimal.Decimal      `json:"balance,omitempty" swaggertype:"string"`
	FlightDetails *domain.FlightDetails `json:"flightDetails,omitempty"`
}

// UpdateProgressRequest represents a direct progress edit
type UpdateProgressRequest struct {
	Progress *decimal.Decimal `json:"progress" swaggertype:"string" example:"40"`
}

// UpdatePriorityRequest represents a priority change
type UpdatePriorityRequest struct {
	Priority  int   `json:"priority" example:"1"`
	IsStarred *bool `json:"isStarred,omitempty"`
}

// TripResponse wraps a single trip
type TripResponse struct {
	Trip *domain.Trip `json:"trip"`
}

// TripListResponse wraps a trip list
type TripListResponse struct {
	Trips []domain.Trip `json:"trips"`
}

// ListTrips godoc
// @Summary List trips
// @Description Returns trips with targets recomputed for today
// @Tags trips
// @Produce json
// @Security BearerAuth
// @Param sort query string false "Ordering" Enums(priority, date, progress, cost)
// @Success 200 {object} TripListResponse
// @Failure 401 {object} ProblemDetails
// @Router /trips [get]
func (h *TripHandler) ListTrips(c echo.Context) error {
	userID := middleware.GetUserID(c)

	trips, err := h.tripService.List(c.Request().Context(), userID, domain.SortKey(c.QueryParam("sort")))
	if err != nil {
		return handleServiceError(c, err, userID, "list trips")
	}
	return c.JSON(http.StatusOK, TripListResponse{Trips: trips})
}

// GetSummary godoc
// @Summary Trip summary
// @Description Primary trip, active and completed trips and the current goal amount
// @Tags trips
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.TripSummary
// @Failure 401 {object} ProblemDetails
// @Router /trips/summary [get]
func (h *TripHandler) GetSummary(c echo.Context) error {
	userID := middleware.GetUserID(c)

	summary, err := h.tripService.Summary(c.Request().Context(), userID)
	if err != nil {
		return handleServiceError(c, err, userID, "get trip summary")
	}
	return c.JSON(http.StatusOK, summary)
}

// GetTrip godoc
// @Summary Get a trip
// @Tags trips
// @Produce json
// @Security BearerAuth
// @Param id path int true "Trip ID"
// @Success 200 {object} TripResponse
// @Failure 404 {object} ProblemDetails
// @Router /trips/{id} [get]
func (h *TripHandler) GetTrip(c echo.Context) error {
	userID := middleware.GetUserID(c)
	id, err := parseTripID(c)
	if err != nil {
		return err
	}

	trip, err := h.tripService.Get(c.Request().Context(), userID, id)
	if err != nil {
		return handleServiceError(c, err, userID, "get trip")
	}
	return c.JSON(http.StatusOK, TripResponse{Trip: trip})
}

// CreateTrip godoc
// @Summary Create a trip
// @Description The server assigns id and createdAt unless the client sent an id
// @Tags trips
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateTripRequest true "Trip plan"
// @Success 201 {object} TripResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /trips [post]
func (h *TripHandler) CreateTrip(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req CreateTripRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input := service.CreateTripInput{
		ID:            req.ID,
		Name:          req.Name,
		From:          req.From,
		To:            req.To,
		StarRating:    req.StarRating,
		Transport:     req.Transport,
		TravelDate:    req.TravelDate,
		ReturnDate:    req.ReturnDate,
		EstimatedCost: req.EstimatedCost,
		Priority:      req.Priority,
		IsStarred:     req.IsStarred,
		Balance:       req.Balance,
		FlightDetails: req.FlightDetails,
	}
	trip, err := h.tripService.Create(c.Request().Context(), userID, input)
	if err != nil {
		return handleServiceError(c, err, userID, "create trip")
	}

	log.Info().Str("user_id", userID).Int64("trip_id", trip.ID).Msg("Trip created")
	return c.JSON(http.StatusCreated, TripResponse{Trip: trip})
}

// UpdateTrip godoc
// @Summary Update a trip
// @Description Merges the partial body onto the stored trip and recomputes progress and targets
// @Tags trips
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Trip ID"
// @Param request body object true "Partial trip fields"
// @Success 200 {object} TripResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /trips/{id} [put]
func (h *TripHandler) UpdateTrip(c echo.Context) error {
	userID := middleware.GetUserID(c)
	id, err := parseTripID(c)
	if err != nil {
		return err
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxTripBodySize))
	if err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	trip, err := h.tripService.Update(c.Request().Context(), userID, id, json.RawMessage(body))
	if err != nil {
		return handleServiceError(c, err, userID, "update trip")
	}
	return c.JSON(http.StatusOK, TripResponse{Trip: trip})
}

// UpdateProgress godoc
// @Summary Set trip progress
// @Description Sets progress directly (clamped to 0-100); the saved amount follows
// @Tags trips
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Trip ID"
// @Param request body UpdateProgressRequest true "Progress percentage"
// @Success 200 {object} TripResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /trips/{id}/progress [put]
func (h *TripHandler) UpdateProgress(c echo.Context) error {
	userID := middleware.GetUserID(c)
	id, err := parseTripID(c)
	if err != nil {
		return err
	}

	var req UpdateProgressRequest
	if err := c.Bind(&req); err != nil || req.Progress == nil {
		return NewValidationError(c, "Invalid progress", []ValidationError{
			{Field: "progress", Message: "Must be a number"},
		})
	}

	trip, err := h.tripService.UpdateProgress(c.Request().Context(), userID, id, *req.Progress)
	if err != nil {
		return handleServiceError(c, err, userID, "update trip progress")
	}
	return c.JSON(http.StatusOK, TripResponse{Trip: trip})
}

// UpdatePriority godoc
// @Summary Set trip priority
// @Tags trips
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Trip ID"
// @Param request body UpdatePriorityRequest true "Priority 1-3 and optional star"
// @Success 200 {object} TripResponse
// @Failure 400 {object} ProblemDetails
// @Failure 404 {object} ProblemDetails
// @Router /trips/{id}/priority [put]
func (h *TripHandler) UpdatePriority(c echo.Context) error {
	userID := middleware.GetUserID(c)
	id, err := parseTripID(c)
	if err != nil {
		return err
	}

	var req UpdatePriorityRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	trip, err := h.tripService.UpdatePriority(c.Request().Context(), userID, id, req.Priority, req.IsStarred)
	if err != nil {
		return handleServiceError(c, err, userID, "update trip priority")
	}
	return c.JSON(http.StatusOK, TripResponse{Trip: trip})
}

// DeleteTrip godoc
// @Summary Delete a trip
// @Description Deleting an unknown id also succeeds
// @Tags trips
// @Produce json
// @Security BearerAuth
// @Param id path int true "Trip ID"
// @Success 200 {object} SuccessResponse
// @Failure 401 {object} ProblemDetails
// @Router /trips/{id} [delete]
func (h *TripHandler) DeleteTrip(c echo.Context) error {
	userID := middleware.GetUserID(c)
	id, err := parseTripID(c)
	if err != nil {
		return err
	}

	if err := h.tripService.Delete(c.Request().Context(), userID, id); err != nil {
		return handleServiceError(c, err, userID, "delete trip")
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
