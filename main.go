package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/xiaot623/modgate/api"
	"github.com/xiaot623/modgate/audit"
	"github.com/xiaot623/modgate/classifier"
	"github.com/xiaot623/modgate/completion"
	"github.com/xiaot623/modgate/config"
	"github.com/xiaot623/modgate/monitor"
	"github.com/xiaot623/modgate/pipeline"
	"github.com/xiaot623/modgate/policy"
	"github.com/xiaot623/modgate/sanitizer"
	"github.com/xiaot623/modgate/session"
	"github.com/xiaot623/modgate/validator"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("starting modgate",
		"http_port", cfg.HTTPPort,
		"model", cfg.CompletionModel,
		"moderation", cfg.ModerationConfigured(),
		"audit", cfg.AuditConfigured(),
		"fail_closed", cfg.ModerationFailClosed)

	if cfg.CompletionAPIKey == "" {
		logger.Error("COMPLETION_API_KEY is required")
		os.Exit(1)
	}

	// Initialize the decision policy engine
	ctx := context.Background()
	engine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		logger.Error("failed to initialize policy engine", "err", err)
		os.Exit(1)
	}

	// Observability channel
	hub := monitor.NewHub(logger)
	go hub.Run()
	mon := monitor.New(100, logger, hub)

	// Completion client
	completer := completion.NewClient(cfg.CompletionBaseURL, cfg.CompletionAPIKey, cfg.CompletionModel, cfg.CompletionTimeout)

	// Optional classifier: absence is decided once, at startup
	var cls pipeline.Classifier
	if cfg.ModerationConfigured() {
		cls = classifier.NewClient(cfg.ModerationEndpoint, cfg.ModerationAPIKey, cfg.ModerationTimeout)
	} else {
		logger.Warn("moderation service not configured, screening is local-only")
	}

	// Optional audit emitter behind the bounded dispatcher
	var emitter *audit.Emitter
	if cfg.AuditConfigured() {
		emitter = audit.NewEmitter(cfg.AuditHost, cfg.AuditPublicKey, cfg.AuditSecretKey, cfg.AuditTraceName)
	} else {
		logger.Warn("audit ingestion not configured, exchanges will not be recorded")
	}
	dispatcher := audit.NewDispatcher(emitter, cfg.AuditMaxInflight, cfg.AuditTimeout, mon)

	// Session store and pipeline
	sessions := session.NewStore(cfg.SystemPrompt)
	pipe := pipeline.New(pipeline.Params{
		Validator:         validator.New(cfg.MaxInputLength),
		Engine:            engine,
		Classifier:        cls,
		Completer:         completer,
		Sanitizer:         sanitizer.New(),
		Sessions:          sessions,
		Auditor:           dispatcher,
		Monitor:           mon,
		Logger:            logger,
		Cooldown:          cfg.RateLimitCooldown,
		ClassifierTimeout: cfg.ModerationTimeout,
		CompletionTimeout: cfg.CompletionTimeout,
		FailClosed:        cfg.ModerationFailClosed,
		Temperature:       cfg.CompletionTemperature,
		MaxTokens:         cfg.CompletionMaxTokens,
	})

	// HTTP server
	h := api.NewHandler(pipe, sessions, mon, hub, logger)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	h.RegisterRoutes(e)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", "err", err)
			os.Exit(1)
		}
	}()

	logger.Info("gateway started", "port", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server gracefully", "err", err)
	}

	// Let in-flight audit emissions drain before exiting.
	dispatcher.Wait()

	logger.Info("gateway stopped")
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
