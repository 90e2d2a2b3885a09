package handler

import (
	"net/http"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// EstimateHandler exposes the trip cost estimator
type EstimateHandler struct {
	estimator *service.CostEstimator
}

// NewEstimateHandler creates a new EstimateHandler
func NewEstimateHandler(estimator *service.CostEstimator) *EstimateHandler {
	return &EstimateHandler{estimator: estimator}
}

// DestinationListResponse wraps the destination catalog
type DestinationListResponse struct {
	Destinations []service.Destination `json:"destinations"`
}

// Estimate godoc
// @Summary Estimate trip cost
// @Description Flights, accommodation, local transport and misc costs for a plan
// @Tags estimates
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.EstimateInput true "Plan"
// @Success 200 {object} service.CostBreakdown
// @Failure 400 {object} ProblemDetails
// @Router /estimates [post]
func (h *EstimateHandler) Estimate(c echo.Context) error {
	var input service.EstimateInput
	if err := c.Bind(&input); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	fd := input.FlightDetails
	if fd.Adults < 0 || fd.Children < 0 || fd.Infants < 0 {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "flightDetails", Message: "Passenger counts must not be negative"},
		})
	}
	if fd.Adults == 0 && fd.Children == 0 && fd.Infants == 0 {
		input.FlightDetails.Adults = 1
	}

	return c.JSON(http.StatusOK, h.estimator.Estimate(input))
}

// ListDestinations godoc
// @Summary List destinations
// @Tags estimates
// @Produce json
// @Security BearerAuth
// @Param continent query string false "Filter by continent"
// @Success 200 {object} DestinationListResponse
// @Router /destinations [get]
func (h *EstimateHandler) ListDestinations(c echo.Context) error {
	return c.JSON(http.StatusOK, DestinationListResponse{
		Destinations: h.estimator.Destinations(c.QueryParam("continent")),
	})
}
