package engine

import (
	"context"

	"github.com/athanhub/athan-notify/internal/config"
	"github.com/athanhub/athan-notify/internal/store"
)

// Auxiliary reminder slots. Content lives in the store; the scheduler
// decides when each slot is due.
const (
	SlotMorning = "morning"
	SlotEvening = "evening"
)

// RunReminderPass sends the slot's stored reminder text to every
// subscriber, at most once per calendar day per slot. Dedup uses the
// same marker mechanism as prayer events: the marker value embeds the
// civil date, so a restart or duplicate trigger cannot double-send.
func (e *Engine) RunReminderPass(ctx context.Context, slot string) {
	bodies, err := e.store.LoadReminders(ctx)
	if err != nil {
		e.logger.Error("load reminders failed", "error", err)
		return
	}
	body, ok := bodies[slot]
	if !ok || body == "" {
		e.logger.Warn("no reminder content for slot", "slot", slot)
		return
	}

	now, err := e.clock.Now(e.reminderZone)
	if err != nil {
		e.logger.Error("reminder zone unusable", "zone", e.reminderZone, "error", err)
		return
	}
	value := slot + "@" + now.Format("2006-01-02")
	key := "reminder." + slot

	subs, err := e.store.LoadAll(ctx)
	if err != nil {
		e.logger.Error("load subscribers failed", "error", err)
	}

	e.fanOut(ctx, subs, func(ctx context.Context, sub store.Subscriber) {
		mu := e.locks.get(sub.ChatID)
		mu.Lock()
		defer mu.Unlock()

		if sub.Markers[key] == value {
			return
		}
		if err := e.dispatcher.Send(ctx, sub.ChatID, body); err != nil {
			e.logger.Warn("reminder send failed", "chat_id", sub.ChatID, "slot", slot, "error", err)
			if e.markerPolicy == config.MarkAfterSuccess {
				return
			}
		}
		if err := e.store.SetMarkerValue(ctx, sub.ChatID, key, value); err != nil {
			e.logger.Error("reminder marker update failed", "chat_id", sub.ChatID, "slot", slot, "error", err)
		}
	})
	e.logger.Info("reminder pass complete", "slot", slot, "subscribers", len(subs))
}
