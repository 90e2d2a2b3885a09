// @title TripSaver API
// @version 1.0
// @description Balance and trip store for the TripSaver savings planner.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer access token from /login
// @securityDefinitions.apikey AnonKey
// @in header
// @name Authorization
// @description Bearer anon key for signup and login
package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dafibh/tripsaver/tripsaver-backend/internal/config"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/domain"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/handler"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/middleware"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/repository/memory"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/repository/postgres"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/repository/sqlite"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/repository/storage"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/service"
	"github.com/dafibh/tripsaver/tripsaver-backend/internal/websocket"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("Unknown LOG_LEVEL, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load time zone")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, users, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("Failed to open store")
	}
	defer closeStore()
	log.Info().Str("driver", cfg.StoreDriver).Msg("Store ready")

	// Export storage is optional
	var objects domain.ObjectStorage
	if cfg.S3.Enabled() {
		repo, err := storage.NewObjectRepository(ctx, cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Str("bucket", cfg.S3.Bucket).Msg("Failed to initialise export storage")
		}
		objects = repo
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("Export storage ready")
	} else {
		log.Info().Msg("S3_BUCKET not set, exports disabled")
	}

	// WebSocket hub for pushing trip and balance changes to the user's other devices
	hub := websocket.NewHub()

	// Initialize services
	calc := service.NewSavingsCalculator(loc)
	data := service.NewUserDataStore(kv)
	tokens := service.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL)
	authService := service.NewAuthService(users, data, tokens)
	profileService := service.NewProfileService(users, data, calc)
	balanceService := service.NewBalanceService(data, calc)
	balanceService.SetEventPublisher(hub)
	tripService := service.NewTripService(data, calc)
	tripService.SetEventPublisher(hub)
	exportService := service.NewExportService(objects, profileService)
	estimator := service.NewCostEstimator()

	// One validator serves both the HTTP middleware and websocket upgrades
	tokenValidator, err := middleware.NewTokenValidator(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create token validator")
	}
	anonAuth := middleware.NewAnonKeyMiddleware(cfg.AnonKey)
	userAuth := middleware.NewAuthMiddleware(tokenValidator)
	rateLimiter := middleware.NewRateLimiterWithConfig(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	defer rateLimiter.Stop()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	profileHandler := handler.NewProfileHandler(profileService)
	balanceHandler := handler.NewBalanceHandler(balanceService)
	tripHandler := handler.NewTripHandler(tripService)
	estimateHandler := handler.NewEstimateHandler(estimator)
	exportHandler := handler.NewExportHandler(exportService)
	wsHandler := handler.NewWebSocketHandler(hub, websocket.NewJWTValidator(tokenValidator), cfg.CORSOrigins)

	// Stored targets depend on today, so refresh them in the background
	var refreshWorker *service.TargetRefreshWorker
	if cfg.TargetRefreshInterval > 0 {
		refreshWorker = service.NewTargetRefreshWorker(data, calc, log.Logger, service.TargetRefreshWorkerConfig{
			Interval: cfg.TargetRefreshInterval,
		})
		refreshWorker.Start(ctx)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		MaxAge:       86400,
	}))
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         31536000,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))
	e.Use(echomiddleware.BodyLimit("1M"))
	e.Use(zerologMiddleware())
	e.Use(echomiddleware.Recover())

	handler.RegisterRoutes(e, anonAuth, userAuth, rateLimiter,
		authHandler, profileHandler, balanceHandler, tripHandler, estimateHandler, exportHandler, wsHandler)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	if refreshWorker != nil {
		refreshWorker.Stop()
	}
	hub.CloseAll()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// openStore opens the KV and user stores for the configured driver
func openStore(ctx context.Context, cfg *config.Config) (domain.KVStore, domain.UserRepository, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		return postgres.NewKVStore(pool), postgres.NewUserRepository(pool), pool.Close, nil

	case config.StoreDriverSQLite:
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		return sqlite.NewKVStore(db), sqlite.NewUserRepository(db), closer(db), nil

	default:
		log.Warn().Msg("Using in-memory store, data is lost on restart")
		return memory.NewKVStore(), memory.NewUserRepository(), func() {}, nil
	}
}

func closer(c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close store")
		}
	}
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			event := log.Info()
			if res.Status >= http.StatusInternalServerError {
				event = log.Error()
			}
			event.
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
