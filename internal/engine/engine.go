// Package engine is the notification core. A sampling pass walks every
// subscriber, compares the subscriber-local minute against the day's
// effective prayer times (primary adhan and derived second call), and
// fires each occurrence at most once, recording a durable marker with
// the dispatch decision.
//
// The engine owns no transport and no storage format: collaborators are
// injected through the interfaces below, and every failure is scoped to
// one subscriber and one tick — nothing here is fatal to the process.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/athanhub/athan-notify/internal/config"
	"github.com/athanhub/athan-notify/internal/prayer"
	"github.com/athanhub/athan-notify/internal/store"
	"github.com/athanhub/athan-notify/internal/timings"
)

// SubscriberStore is the persistence surface the engine needs.
type SubscriberStore interface {
	LoadAll(ctx context.Context) ([]store.Subscriber, error)
	Get(ctx context.Context, chatID int64) (*store.Subscriber, error)
	Upsert(ctx context.Context, chatID int64, lat, lon float64) error
	SaveTimings(ctx context.Context, chatID int64, day *timings.Day) error
	SetMarker(ctx context.Context, chatID int64, occ prayer.Occurrence) error
	SetMarkerValue(ctx context.Context, chatID int64, slot, value string) error
	Delete(ctx context.Context, chatID int64) error
	LoadReminders(ctx context.Context) (map[string]string, error)
}

// Provider resolves a coordinate to the day's prayer data.
type Provider interface {
	Resolve(ctx context.Context, lat, lon float64) (*timings.Day, error)
}

// Dispatcher is the outbound send primitive. Failures are reported to
// the caller and never corrupt engine state.
type Dispatcher interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Clock resolves "now" in a given IANA zone.
type Clock interface {
	Now(zone string) (time.Time, error)
}

// Params configures a new Engine.
type Params struct {
	Store        SubscriberStore
	Provider     Provider
	Dispatcher   Dispatcher
	Clock        Clock
	Logger       *slog.Logger
	Offsets      prayer.Tables
	MarkerPolicy config.MarkerPolicy
	Workers      int
	ReminderZone string
}

// Engine composes the collaborators into the sampling core.
type Engine struct {
	store        SubscriberStore
	provider     Provider
	dispatcher   Dispatcher
	clock        Clock
	logger       *slog.Logger
	offsets      prayer.Tables
	markerPolicy config.MarkerPolicy
	workers      int
	reminderZone string
	locks        lockTable
}

// New creates an Engine. Zero-value optional params get defaults.
func New(p Params) *Engine {
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	if p.Clock == nil {
		p.Clock = NewRealClock()
	}
	if p.Workers < 1 {
		p.Workers = 1
	}
	if p.MarkerPolicy == "" {
		p.MarkerPolicy = config.MarkAfterAttempt
	}
	if p.ReminderZone == "" {
		p.ReminderZone = "UTC"
	}
	return &Engine{
		store:        p.Store,
		provider:     p.Provider,
		dispatcher:   p.Dispatcher,
		clock:        p.Clock,
		logger:       p.Logger,
		offsets:      p.Offsets,
		markerPolicy: p.MarkerPolicy,
		workers:      p.Workers,
		reminderZone: p.ReminderZone,
	}
}

// fanOut runs fn for each subscriber on a bounded worker pool. Per-
// subscriber serialization is handled inside fn via the lock table, so
// overlapping passes may interleave across subscribers but never within
// one.
func (e *Engine) fanOut(ctx context.Context, subs []store.Subscriber, fn func(context.Context, store.Subscriber)) {
	if len(subs) == 0 {
		return
	}
	workers := e.workers
	if workers > len(subs) {
		workers = len(subs)
	}

	ch := make(chan store.Subscriber, len(subs))
	for _, sub := range subs {
		ch <- sub
	}
	close(ch)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range ch {
				if ctx.Err() != nil {
					return
				}
				fn(ctx, sub)
			}
		}()
	}
	wg.Wait()
}

// lockTable hands out one mutex per chat id so a subscriber's
// read → compute → send → persist sequence never interleaves with a
// concurrent pass for the same subscriber.
type lockTable struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func (t *lockTable) get(chatID int64) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.locks == nil {
		t.locks = make(map[int64]*sync.Mutex)
	}
	l, ok := t.locks[chatID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[chatID] = l
	}
	return l
}
