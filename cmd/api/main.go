package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dafibh/fortuna/wealth-backend/internal/config"
	"github.com/dafibh/fortuna/wealth-backend/internal/domain"
	"github.com/dafibh/fortuna/wealth-backend/internal/handler"
	"github.com/dafibh/fortuna/wealth-backend/internal/middleware"
	"github.com/dafibh/fortuna/wealth-backend/internal/pricing"
	"github.com/dafibh/fortuna/wealth-backend/internal/repository/postgres"
	"github.com/dafibh/fortuna/wealth-backend/internal/service"
	"github.com/dafibh/fortuna/wealth-backend/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// @title Fortuna Wealth API
// @version 1.0
// @description Multi-account ledger with crypto positions and net worth reporting.
// @BasePath /api/v1
// @securityDefinitions.apikey UserID
// @in header
// @name X-User-ID
func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load reporting timezone")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	// Verify database connection
	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	store := postgres.NewStore(pool)
	if err := store.Migrate(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	rates := domain.NewRateTable(domain.ReportingCurrency, cfg.FXRates)
	prices := pricing.NewClient(pricing.Config{
		BaseURL:           cfg.Pricing.BaseURL,
		APIKey:            cfg.Pricing.APIKey,
		RequestsPerMinute: cfg.Pricing.RequestsPerMinute,
	}, log.Logger)

	// Initialize services
	accountService := service.NewAccountService(store)
	transactionService := service.NewTransactionService(store)
	assetService := service.NewAssetService(store, prices)
	balanceService := service.NewBalanceService(store, rates)
	aggregationService := service.NewAggregationService(store, balanceService, rates, loc)
	categoryService := service.NewCategoryService(store)
	budgetService := service.NewBudgetService(store, aggregationService)
	goalService := service.NewGoalService(store, aggregationService)
	priceService := service.NewPriceService(store, prices, log.Logger)

	// Real-time events
	hub := websocket.NewHub()
	transactionService.SetEventPublisher(hub)
	assetService.SetEventPublisher(hub)
	priceService.SetEventPublisher(hub)

	// Background price refresh
	priceWorker := service.NewPriceWorker(priceService, log.Logger, service.PriceWorkerConfig{
		Interval: cfg.Pricing.RefreshInterval,
	})
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	priceWorker.Start(workerCtx)

	// Buy/sell throttling, burst of a fifth of the per-minute budget
	tradeLimiter := middleware.NewRateLimiterWithConfig(cfg.TradeRateLimit, max(1, cfg.TradeRateLimit/5))

	// Initialize handlers
	handlers := handler.Handlers{
		Account:     handler.NewAccountHandler(accountService, balanceService, loc),
		Transaction: handler.NewTransactionHandler(transactionService, loc),
		Category:    handler.NewCategoryHandler(categoryService),
		Budget:      handler.NewBudgetHandler(budgetService, loc),
		Goal:        handler.NewGoalHandler(goalService, loc),
		Investment:  handler.NewInvestmentHandler(assetService, prices),
		Report:      handler.NewReportHandler(balanceService, aggregationService, loc),
		WebSocket:   handler.NewWebSocketHandler(hub, cfg.CORSOrigins),
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Request ID middleware
	e.Use(echomiddleware.RequestID())

	// CORS middleware
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, middleware.UserIDHeader},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// Request logging middleware with zerolog
	e.Use(zerologMiddleware())

	// Recovery middleware
	e.Use(echomiddleware.Recover())

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"})
		}
		return c.JSON(http.StatusOK, map[string]any{
			"status":         "ok",
			"priceWorker":    priceWorker.IsRunning(),
			"websocketConns": hub.TotalClientCount(),
		})
	})

	// API docs
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/openapi.json", handler.OpenAPI3Handler([]handler.Server{
		{URL: "http://localhost:" + cfg.Port + "/api/v1", Description: "Local"},
	}))

	// Register API routes
	handler.RegisterRoutes(e, handlers, tradeLimiter)

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	priceWorker.Stop()
	tradeLimiter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
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
				Str("user_id", req.Header.Get(middleware.UserIDHeader)).
				Msg("request")

			return nil
		}
	}
}
