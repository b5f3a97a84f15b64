package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"

	"github.com/athanhub/athan-notify/internal/api/handler"
	"github.com/athanhub/athan-notify/internal/config"
	"github.com/athanhub/athan-notify/internal/db"
	"github.com/athanhub/athan-notify/internal/store"
	"github.com/athanhub/athan-notify/internal/telegram"
)

// WebhookPath is where Telegram update deliveries are received.
const WebhookPath = "/webhook/telegram"

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(pool *db.Pool, st *store.Store, tgRouter *telegram.Router, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(pool, st, tgRouter, cfg, logger)

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
	})

	// Telegram webhook
	r.Post(WebhookPath, h.Webhook)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/subscribers", h.ListSubscribers)
	})

	return r
}
