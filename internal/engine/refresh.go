package engine

import (
	"context"
	"fmt"

	"github.com/athanhub/athan-notify/internal/store"
)

// RefreshAll re-resolves cached timings for every subscriber. Run on a
// coarse interval; individual failures are logged and skipped.
func (e *Engine) RefreshAll(ctx context.Context) {
	subs, err := e.store.LoadAll(ctx)
	if err != nil {
		e.logger.Error("load subscribers failed", "error", err)
	}
	count := len(subs)
	e.fanOut(ctx, subs, func(ctx context.Context, sub store.Subscriber) {
		mu := e.locks.get(sub.ChatID)
		mu.Lock()
		defer mu.Unlock()
		e.refreshLocked(ctx, &sub)
	})
	e.logger.Info("timings refresh pass complete", "subscribers", count)
}

// Register creates or re-registers a subscriber and eagerly resolves its
// timings. A resolve failure is not fatal — the next sampling pass
// retries — but the registration itself must persist.
func (e *Engine) Register(ctx context.Context, chatID int64, lat, lon float64) error {
	mu := e.locks.get(chatID)
	mu.Lock()
	defer mu.Unlock()

	if err := e.store.Upsert(ctx, chatID, lat, lon); err != nil {
		return fmt.Errorf("register %d: %w", chatID, err)
	}
	sub := store.Subscriber{ChatID: chatID, Lat: lat, Lon: lon}
	e.refreshLocked(ctx, &sub)
	return nil
}

// Status returns the stored subscription for a chat, or
// store.ErrNotFound when none exists.
func (e *Engine) Status(ctx context.Context, chatID int64) (*store.Subscriber, error) {
	return e.store.Get(ctx, chatID)
}

// Unregister removes a subscriber.
func (e *Engine) Unregister(ctx context.Context, chatID int64) error {
	mu := e.locks.get(chatID)
	mu.Lock()
	defer mu.Unlock()

	if err := e.store.Delete(ctx, chatID); err != nil {
		return fmt.Errorf("unregister %d: %w", chatID, err)
	}
	return nil
}
