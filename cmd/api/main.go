// Command api is the athan-notify server: the Telegram webhook endpoint
// plus the background notification scheduler.
//
// Usage:
//
//	athan-api
//	API_PORT=8080 athan-api
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/athanhub/athan-notify/internal/api"
	"github.com/athanhub/athan-notify/internal/config"
	"github.com/athanhub/athan-notify/internal/db"
	"github.com/athanhub/athan-notify/internal/engine"
	"github.com/athanhub/athan-notify/internal/scheduler"
	"github.com/athanhub/athan-notify/internal/store"
	"github.com/athanhub/athan-notify/internal/telegram"
	"github.com/athanhub/athan-notify/internal/timings"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if cfg.Debug {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
		slog.SetDefault(logger)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Wire the collaborators
	st := store.New(pool.Pool, logger)
	provider := timings.NewClient(cfg.TimingsBaseURL, cfg.CalculationMethod, cfg.TimingsPerMinute, logger)
	sender := telegram.NewSender(cfg.BotToken, "", logger)

	eng := engine.New(engine.Params{
		Store:        st,
		Provider:     provider,
		Dispatcher:   sender,
		Logger:       logger,
		Offsets:      cfg.Offsets,
		MarkerPolicy: cfg.MarkerPolicy,
		Workers:      cfg.EngineWorkers,
		ReminderZone: cfg.ReminderZone,
	})

	// Register the webhook with Telegram when an external URL is set.
	if cfg.WebhookURL != "" {
		if err := sender.RegisterWebhook(ctx, cfg.WebhookURL+api.WebhookPath, cfg.WebhookSecret); err != nil {
			logger.Error("Webhook registration failed", "error", err)
			os.Exit(1)
		}
		logger.Info("Webhook registered", "url", cfg.WebhookURL+api.WebhookPath)
	} else {
		logger.Warn("WEBHOOK_URL not set, skipping webhook registration")
	}

	// Start the background scheduler
	schedCfg := scheduler.Config{
		SampleInterval:  cfg.SampleInterval,
		RefreshInterval: cfg.RefreshInterval,
	}
	if cfg.RemindersEnabled {
		zone, err := time.LoadLocation(cfg.ReminderZone)
		if err != nil {
			logger.Error("Invalid reminder zone", "zone", cfg.ReminderZone, "error", err)
			os.Exit(1)
		}
		schedCfg.ReminderZone = zone
		schedCfg.MorningAt = cfg.MorningReminder
		schedCfg.EveningAt = cfg.EveningReminder
	}
	go scheduler.Start(ctx, eng, schedCfg, logger)

	// Create router
	tgRouter := telegram.NewRouter(eng, sender, logger)
	router := api.NewRouter(pool, st, tgRouter, cfg, logger)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting athan-notify API",
			"addr", addr,
			"environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
