package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"translateme/docs"
	"translateme/internal/bootstrap"
	"translateme/internal/config"
	"translateme/internal/export"
	handlers "translateme/internal/http/handler"
	"translateme/internal/http/middleware"
	"translateme/internal/logging"
	"translateme/internal/otel"
	"translateme/internal/storage"
)

// @title TranslateMe API
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	fallback := zerolog.New(os.Stderr).With().Timestamp().Logger()
	cfg, err := config.Load()
	if err != nil {
		fallback.Fatal().Err(err).Msg("invalid configuration")
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		fallback.Fatal().Err(err).Msg("invalid log level")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, cfg.Tracing, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize tracing")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Error().Err(err).Msg("tracing shutdown failed")
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// History backend (postgres with LISTEN/NOTIFY, or firestore snapshots)
	store, closeStore, err := bootstrap.OpenHistory(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.History.Backend).Msg("failed to open history store")
	}
	defer closeStore()

	// Load detection models in the background so the first "auto" request is fast
	detector := bootstrap.NewDetector(cfg.Translation)
	go detector.Warm()

	translator, err := bootstrap.NewTranslator(cfg.Translation, detector, reg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build translation client")
	}

	orch, err := bootstrap.NewOrchestrator(cfg, translator, store, logger, reg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build orchestrator")
	}
	defer orch.Close()
	if err := orch.Start(ctx); err != nil {
		logger.Warn().Err(err).Msg("history feed unavailable, retrying in background")
	}

	// Object storage is optional; exports answer 503 without it
	var exporter handlers.Exporter
	if cfg.MinIO.Enabled() {
		objStore, err := storage.NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize object storage")
		}
		exporter = export.NewService(objStore, cfg.MinIO.PresignExpiry)
	}

	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to register http metrics")
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		DisableStartupMessage: cfg.Environment != config.EnvironmentLocal,
	})

	app.Use(otelfiber.Middleware())
	// RequestID adds/propagates X-Request-ID and installs a request-scoped logger
	app.Use(middleware.RequestID(logger))
	app.Use(middleware.Logger(logger))
	app.Use(promMiddleware.Handler())

	handlers.RegisterRoutes(app, handlers.Dependencies{
		Pinger:       store,
		Orchestrator: orch,
		Exporter:     exporter,
		Gatherer:     reg,
	})

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		logger.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	addr := ":" + cfg.Port
	logger.Info().Str("addr", addr).Str("backend", cfg.History.Backend).Msg("listening")
	if err := app.Listen(addr); err != nil {
		logger.Error().Err(err).Msg("failed to start server")
	}
}
