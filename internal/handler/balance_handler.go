package handler

import (
	"net/http"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/middleware"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// BalanceHandler handles balance and savings requests
type BalanceHandler struct {
	balanceService *service.BalanceService
}

// NewBalanceHandler creates a new BalanceHandler
func NewBalanceHandler(balanceService *service.BalanceService) *BalanceHandler {
	return &BalanceHandler{balanceService: balanceService}
}

// SetBalanceRequest represents the set balance request
type SetBalanceRequest struct {
	Balance *decimal.Decimal `json:"balance" swaggertype:"string" example:"1500.00"`
}

// BalanceResponse represents a balance write result
type BalanceResponse struct {
	Success bool            `json:"success"`
	Balance decimal.Decimal `json:"balance" swaggertype:"string"`
}

// AddSavingsRequest represents the add savings request
type AddSavingsRequest struct {
	Amount *decimal.Decimal `json:"amount" swaggertype:"string" example:"50.00"`
}

// AddSavingsResponse reports the new balance and the trip that received the savings
type AddSavingsResponse struct {
	Success bool            `json:"success"`
	Balance decimal.Decimal `json:"balance" swaggertype:"string"`
	Trip    *domain.Trip    `json:"trip,omitempty"`
}

// GetBalance godoc
// @Summary Get balance
// @Tags balance
// @Produce json
// @Security BearerAuth
// @Success 200 {object} BalanceResponse
// @Failure 401 {object} ProblemDetails
// @Router /balance [get]
func (h *BalanceHandler) GetBalance(c echo.Context) error {
	userID := middleware.GetUserID(c)

	balance, err := h.balanceService.GetBalance(c.Request().Context(), userID)
	if err != nil {
		return handleServiceError(c, err, userID, "get balance")
	}
	return c.JSON(http.StatusOK, BalanceResponse{Success: true, Balance: balance})
}

// SetBalance godoc
// @Summary Set balance
// @Description Stores the balance as given; no trip attribution happens here
// @Tags balance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SetBalanceRequest true "New balance"
// @Success 200 {object} BalanceResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /balance [put]
func (h *BalanceHandler) SetBalance(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req SetBalanceRequest
	if err := c.Bind(&req); err != nil || req.Balance == nil {
		return NewValidationError(c, "Invalid balance", []ValidationError{
			{Field: "balance", Message: "Must be a valid non-negative number"},
		})
	}

	balance, err := h.balanceService.SetBalance(c.Request().Context(), userID, *req.Balance)
	if err != nil {
		return handleServiceError(c, err, userID, "update balance")
	}
	return c.JSON(http.StatusOK, BalanceResponse{Success: true, Balance: balance})
}

// AddSavings godoc
// @Summary Add savings
// @Description Adds to the balance and to the primary trip's saved amount
// @Tags balance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AddSavingsRequest true "Amount saved"
// @Success 200 {object} AddSavingsResponse
// @Failure 400 {object} ProblemDetails
// @Failure 401 {object} ProblemDetails
// @Router /savings [post]
func (h *BalanceHandler) AddSavings(c echo.Context) error {
	userID := middleware.GetUserID(c)

	var req AddSavingsRequest
	if err := c.Bind(&req); err != nil || req.Amount == nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid non-negative number"},
		})
	}

	result, err := h.balanceService.AddSavings(c.Request().Context(), userID, *req.Amount)
	if err != nil {
		return handleServiceError(c, err, userID, "add savings")
	}
	return c.JSON(http.StatusOK, AddSavingsResponse{Success: true, Balance: result.Balance, Trip: result.Trip})
}
