package handler

import (
	"net/http"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/middleware"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/service"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ExportHandler handles data export requests
type ExportHandler struct {
	exportService *service.ExportService
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(exportService *service.ExportService) *ExportHandler {
	return &ExportHandler{exportService: exportService}
}

// Export godoc
// @Summary Export user data
// @Description Uploads a JSON snapshot and returns a short-lived download URL
// @Tags export
// @Produce json
// @Security BearerAuth
// @Success 201 {object} domain.ExportResult
// @Failure 404 {object} ProblemDetails "Export storage is not configured"
// @Router /export [post]
func (h *ExportHandler) Export(c echo.Context) error {
	userID := middleware.GetUserID(c)
	id, err := uuid.Parse(userID)
	if err != nil {
		return NewUnauthorizedError(c, "Authentication required")
	}

	result, err := h.exportService.Export(c.Request().Context(), id)
	if err != nil {
		return handleServiceError(c, err, userID, "export data")
	}

	log.Info().Str("user_id", userID).Str("object", result.ObjectPath).Msg("Data exported")
	return c.JSON(http.StatusCreated, result)
}
