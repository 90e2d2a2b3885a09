package handler

import (
	"net/http"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/middleware"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// APIPrefix is where the versioned API is mounted
const APIPrefix = "/api/v1"

// RegisterRoutes sets up all API routes
func RegisterRoutes(
	e *echo.Echo,
	anonAuth *middleware.AnonKeyMiddleware,
	userAuth *middleware.AuthMiddleware,
	rateLimiter *middleware.RateLimiter,
	authHandler *AuthHandler,
	profileHandler *ProfileHandler,
	balanceHandler *BalanceHandler,
	tripHandler *TripHandler,
	estimateHandler *EstimateHandler,
	exportHandler *ExportHandler,
	wsHandler *WebSocketHandler,
) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group(APIPrefix)
	api.GET("/openapi.json", NewOpenAPI3Handler([]Server{
		{URL: APIPrefix, Description: "This server"},
	}))

	// Anon key routes
	public := api.Group("", anonAuth.Authenticate())
	public.POST("/signup", authHandler.Signup)
	public.POST("/login", authHandler.Login)

	// WebSocket authenticates with ?token= since browsers cannot set headers on upgrade
	api.GET("/ws", wsHandler.HandleWS)

	// User token routes
	user := api.Group("", userAuth.Authenticate(), middleware.RateLimitMiddleware(rateLimiter))
	user.GET("/profile", profileHandler.GetProfile)

	user.GET("/balance", balanceHandler.GetBalance)
	user.PUT("/balance", balanceHandler.SetBalance)
	user.POST("/savings", balanceHandler.AddSavings)

	user.GET("/trips", tripHandler.ListTrips)
	user.GET("/trips/summary", tripHandler.GetSummary)
	user.POST("/trips", tripHandler.CreateTrip)
	user.GET("/trips/:id", tripHandler.GetTrip)
	user.PUT("/trips/:id", tripHandler.UpdateTrip)
	user.PUT("/trips/:id/progress", tripHandler.UpdateProgress)
	user.PUT("/trips/:id/priority", tripHandler.UpdatePriority)
	user.DELETE("/trips/:id", tripHandler.DeleteTrip)

	user.POST("/estimates", estimateHandler.Estimate)
	user.GET("/destinations", estimateHandler.ListDestinations)

	user.POST("/export", exportHandler.Export)
}
