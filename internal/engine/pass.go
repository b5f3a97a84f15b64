package engine

import (
	"context"

	"github.com/athanhub/athan-notify/internal/config"
	"github.com/athanhub/athan-notify/internal/prayer"
	"github.com/athanhub/athan-notify/internal/store"
	"github.com/athanhub/athan-notify/internal/timings"
)

// RunPass executes one sampling cycle over all subscribers. Errors for
// one subscriber are logged and never abort the pass.
func (e *Engine) RunPass(ctx context.Context) {
	subs, err := e.store.LoadAll(ctx)
	if err != nil {
		// Degrade to whatever rows were readable; an unreadable store
		// must not crash the sampling loop.
		e.logger.Error("load subscribers failed", "error", err)
	}
	e.fanOut(ctx, subs, e.evaluate)
}

// evaluate runs the per-subscriber state machine for the current tick.
func (e *Engine) evaluate(ctx context.Context, sub store.Subscriber) {
	mu := e.locks.get(sub.ChatID)
	mu.Lock()
	defer mu.Unlock()

	if sub.Markers == nil {
		sub.Markers = make(map[string]string)
	}

	// No usable cache yet (fresh registration, or a failed resolve):
	// fetch on demand, then evaluate with the fresh data.
	if !sub.HasTimings() {
		if !e.refreshLocked(ctx, &sub) {
			return
		}
	}

	now, err := e.clock.Now(sub.Timezone)
	if err != nil {
		e.logger.Warn("unusable timezone, refreshing", "chat_id", sub.ChatID, "zone", sub.Timezone, "error", err)
		if !e.refreshLocked(ctx, &sub) {
			return
		}
		now, err = e.clock.Now(sub.Timezone)
		if err != nil {
			e.logger.Error("timezone still unusable", "chat_id", sub.ChatID, "zone", sub.Timezone, "error", err)
			return
		}
	}

	// The cache is only valid for the civil date it was fetched on. A
	// stale date (midnight passed before the coarse refresh timer) must
	// never match, or yesterday's timestamps could re-fire today.
	today := now.Format(timings.DateLayout)
	if sub.FetchedDate != today {
		if !e.refreshLocked(ctx, &sub) {
			return
		}
		if sub.FetchedDate != today {
			// Provider still reports another civil day; skip this tick.
			return
		}
	}

	nowClock := prayer.MinuteOf(now)
	cal := prayer.CalendarContext{HijriMonth: sub.HijriMonth, Weekday: now.Weekday()}

	for _, kind := range prayer.Kinds {
		primary, ok := prayer.PrimaryTime(kind, sub.Timings, cal, e.offsets)
		if !ok {
			continue
		}

		// Primary and secondary dues are checked independently each
		// tick; if both match (zero offset) both fire, primary first.
		adhan := prayer.Occurrence{Kind: kind, Phase: prayer.Adhan, Time: primary}
		if nowClock == primary && sub.Markers[adhan.Key()] != adhan.String() {
			e.fire(ctx, &sub, adhan, prayer.AdhanMessage(kind, cal))
		}

		second, ok := prayer.SecondCall(kind, primary, cal, e.offsets)
		if !ok {
			continue
		}
		iqama := prayer.Occurrence{Kind: kind, Phase: prayer.Iqama, Time: second}
		if nowClock == second && sub.Markers[iqama.Key()] != iqama.String() {
			e.fire(ctx, &sub, iqama, prayer.IqamaMessage(kind, cal))
		}
	}
}

// fire attempts one notification and persists its marker according to
// the configured policy. The marker write follows the send attempt, so
// an interrupted send re-fires later rather than being silently skipped.
func (e *Engine) fire(ctx context.Context, sub *store.Subscriber, occ prayer.Occurrence, text string) {
	err := e.dispatcher.Send(ctx, sub.ChatID, text)
	if err != nil {
		e.logger.Warn("send failed", "chat_id", sub.ChatID, "occurrence", occ.String(), "error", err)
		if e.markerPolicy == config.MarkAfterSuccess {
			return
		}
	} else {
		e.logger.Info("notification sent", "chat_id", sub.ChatID, "occurrence", occ.String())
	}

	if err := e.store.SetMarker(ctx, sub.ChatID, occ); err != nil {
		e.logger.Error("marker update failed", "chat_id", sub.ChatID, "occurrence", occ.String(), "error", err)
	}
	// Keep the in-pass view consistent even if the store write failed;
	// the next pass re-reads persisted state.
	sub.Markers[occ.Key()] = occ.String()
}

// refreshLocked resolves and caches the subscriber's day. Returns false
// when the subscriber should be skipped for this tick. Caller holds the
// subscriber's lock.
func (e *Engine) refreshLocked(ctx context.Context, sub *store.Subscriber) bool {
	day, err := e.provider.Resolve(ctx, sub.Lat, sub.Lon)
	if err != nil {
		e.logger.Warn("timings resolve failed", "chat_id", sub.ChatID, "error", err)
		return false
	}
	if err := e.store.SaveTimings(ctx, sub.ChatID, day); err != nil {
		e.logger.Error("timings save failed", "chat_id", sub.ChatID, "error", err)
		return false
	}
	sub.Timezone = day.Timezone
	sub.Timings = day.Times
	sub.HijriMonth = day.HijriMonth
	sub.FetchedDate = day.Date
	return true
}
