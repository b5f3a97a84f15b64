// Package scheduler runs the periodic background work as Go tickers:
// the minute-sampling notification pass, the timetable refresh sweep,
// and the daily fixed-time reminder deliveries.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/athanhub/athan-notify/internal/engine"
	"github.com/athanhub/athan-notify/internal/prayer"
)

// Config controls scheduler cadences. A zero duration disables a ticker,
// and an empty reminder clock disables that reminder slot.
type Config struct {
	SampleInterval  time.Duration // notification pass cadence
	RefreshInterval time.Duration // timetable refresh sweep cadence
	ReminderZone    *time.Location
	MorningAt       prayer.Clock
	EveningAt       prayer.Clock
}

// Start launches all configured tickers and blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, eng *engine.Engine, cfg Config, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("scheduler started",
		"sample", cfg.SampleInterval,
		"refresh", cfg.RefreshInterval,
		"morning_reminder", cfg.MorningAt,
		"evening_reminder", cfg.EveningAt)

	tickers := make([]*time.Ticker, 0, 2)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	if cfg.SampleInterval > 0 {
		t := time.NewTicker(cfg.SampleInterval)
		tickers = append(tickers, t)
		// Each pass runs on its own goroutine: a slow pass (stale
		// caches forcing rate-limited resolves) must not delay the
		// next sample and make it miss a matching minute. Overlapping
		// passes are safe, per-subscriber locks and markers dedupe.
		go runLoop(ctx, t.C, func() { go eng.RunPass(ctx) })
	}

	if cfg.RefreshInterval > 0 {
		// Refresh once at startup so restarts recover their timetable
		// cache before the first tick.
		eng.RefreshAll(ctx)

		t := time.NewTicker(cfg.RefreshInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() { eng.RefreshAll(ctx) })
	}

	zone := cfg.ReminderZone
	if zone == nil {
		zone = time.UTC
	}
	if cfg.MorningAt.Valid() {
		go runDaily(ctx, zone, cfg.MorningAt, func() { eng.RunReminderPass(ctx, engine.SlotMorning) })
	}
	if cfg.EveningAt.Valid() {
		go runDaily(ctx, zone, cfg.EveningAt, func() { eng.RunReminderPass(ctx, engine.SlotEvening) })
	}

	<-ctx.Done()
	logger.Info("scheduler stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// runDaily fires fn once a day at the given wall-clock time in zone.
func runDaily(ctx context.Context, zone *time.Location, at prayer.Clock, fn func()) {
	for {
		timer := time.NewTimer(time.Until(nextAt(time.Now().In(zone), at)))
		select {
		case <-timer.C:
			fn()
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

// nextAt returns the next instant strictly after now whose wall clock in
// now's location matches at.
func nextAt(now time.Time, at prayer.Clock) time.Time {
	h, m := at.Split()
	next := time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
