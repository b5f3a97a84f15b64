// Package handler provides HTTP handlers for the service endpoints: the
// Telegram webhook, health checks, and a small admin surface.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/athanhub/athan-notify/internal/api/respond"
	"github.com/athanhub/athan-notify/internal/config"
	"github.com/athanhub/athan-notify/internal/db"
	"github.com/athanhub/athan-notify/internal/store"
	"github.com/athanhub/athan-notify/internal/telegram"
)

const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	pool   *db.Pool
	store  *store.Store
	router *telegram.Router
	cfg    *config.Config
	logger *slog.Logger
}

// New creates a Handler with shared dependencies.
func New(pool *db.Pool, st *store.Store, router *telegram.Router, cfg *config.Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{pool: pool, store: st, router: router, cfg: cfg, logger: logger}
}

// Root serves service info at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "athan-notify",
		"status":  "running",
		"version": "1.0.0",
	})
}

// HealthCheck reports process liveness.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]string{"status": "ok"})
}

// HealthCheckDB reports database reachability.
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.pool.HealthCheck(r.Context()); err != nil {
		h.logger.Error("db health check failed", "error", err)
		respond.WriteError(w, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "database unreachable")
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Webhook receives Telegram update deliveries.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	if h.cfg.WebhookSecret != "" && r.Header.Get(secretHeader) != h.cfg.WebhookSecret {
		respond.WriteError(w, http.StatusForbidden, "FORBIDDEN", "bad webhook secret")
		return
	}

	var upd telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_UPDATE", "undecodable update payload")
		return
	}

	h.router.HandleUpdate(r.Context(), &upd)
	respond.WriteJSONObject(w, http.StatusOK, map[string]bool{"ok": true})
}

// subscriberSummary is the admin listing row.
type subscriberSummary struct {
	ChatID      int64  `json:"chat_id"`
	Timezone    string `json:"timezone,omitempty"`
	FetchedDate string `json:"fetched_date,omitempty"`
	RefreshedAt string `json:"refreshed_at,omitempty"`
}

// ListSubscribers serves the admin subscriber listing.
func (h *Handler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	subs, err := h.store.LoadAll(r.Context())
	if err != nil {
		h.logger.Error("list subscribers failed", "error", err)
		respond.WriteError(w, http.StatusInternalServerError, "STORE_ERROR", "could not list subscribers")
		return
	}

	out := make([]subscriberSummary, 0, len(subs))
	for _, sub := range subs {
		row := subscriberSummary{
			ChatID:      sub.ChatID,
			Timezone:    sub.Timezone,
			FetchedDate: sub.FetchedDate,
		}
		if sub.RefreshedAt != nil {
			row.RefreshedAt = sub.RefreshedAt.UTC().Format("2006-01-02T15:04:05Z")
		}
		out = append(out, row)
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"count":       len(out),
		"subscribers": out,
	})
}
