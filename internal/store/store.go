// Package store persists subscriber state and reminder content in
// Postgres. Every mutation is scoped to a single row, so concurrent
// passes over different subscribers need no cross-record coordination.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/athanhub/athan-notify/internal/prayer"
	"github.com/athanhub/athan-notify/internal/timings"
)

// ErrNotFound is returned by Get for an unknown chat id.
var ErrNotFound = errors.New("subscriber not found")

// Subscriber is one registered chat with its cached prayer data and
// per-event fired markers.
type Subscriber struct {
	ChatID     int64
	Lat        float64
	Lon        float64
	Timezone   string
	Timings    map[prayer.Kind]prayer.Clock
	HijriMonth int
	// FetchedDate is the civil date (timings.DateLayout, in Timezone)
	// the cached timings are valid for. Empty until the first resolve.
	FetchedDate string
	RefreshedAt *time.Time
	// Markers maps a marker slot (prayer.Occurrence.Key) to the last
	// fired occurrence value.
	Markers   map[string]string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasTimings reports whether the subscriber has a usable cached day.
func (s *Subscriber) HasTimings() bool {
	return s.Timezone != "" && s.FetchedDate != "" && len(s.Timings) > 0
}

// Store wraps the connection pool with typed subscriber operations.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New creates a Store.
func New(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{pool: pool, logger: logger}
}

// LoadAll returns all subscribers. A row that fails to scan is logged
// and skipped rather than failing the whole read, so one corrupt record
// never blocks delivery to the rest.
func (s *Store) LoadAll(ctx context.Context) ([]Subscriber, error) {
	rows, err := s.pool.Query(ctx, "subscriber_all")
	if err != nil {
		return nil, fmt.Errorf("load subscribers: %w", err)
	}
	defer rows.Close()

	var subs []Subscriber
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			s.logger.Warn("skipping unreadable subscriber row", "error", err)
			continue
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// Get returns one subscriber by chat id.
func (s *Store) Get(ctx context.Context, chatID int64) (*Subscriber, error) {
	rows, err := s.pool.Query(ctx, "subscriber_get", chatID)
	if err != nil {
		return nil, fmt.Errorf("get subscriber: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("get subscriber: %w", err)
		}
		return nil, ErrNotFound
	}
	sub, err := scanSubscriber(rows)
	if err != nil {
		return nil, fmt.Errorf("get subscriber: %w", err)
	}
	return &sub, nil
}

// Upsert registers a chat at a coordinate. Re-registration overwrites
// the coordinate and clears the cached timings and all markers, so an
// event that already fired today may fire again under the new location.
// Idempotent for identical arguments.
func (s *Store) Upsert(ctx context.Context, chatID int64, lat, lon float64) error {
	_, err := s.pool.Exec(ctx, "subscriber_upsert", chatID, lat, lon)
	if err != nil {
		return fmt.Errorf("upsert subscriber %d: %w", chatID, err)
	}
	return nil
}

// SaveTimings replaces the subscriber's cached day.
func (s *Store) SaveTimings(ctx context.Context, chatID int64, day *timings.Day) error {
	raw, err := json.Marshal(clockStrings(day.Times))
	if err != nil {
		return fmt.Errorf("encode timings: %w", err)
	}
	_, err = s.pool.Exec(ctx, "subscriber_save_timings",
		chatID, day.Timezone, raw, day.HijriMonth, day.Date)
	if err != nil {
		return fmt.Errorf("save timings for %d: %w", chatID, err)
	}
	return nil
}

// SetMarker records the last fired occurrence for one marker slot as a
// single-row atomic jsonb merge. Safe to repeat with identical values.
func (s *Store) SetMarker(ctx context.Context, chatID int64, occ prayer.Occurrence) error {
	_, err := s.pool.Exec(ctx, "subscriber_set_marker", chatID, occ.Key(), occ.String())
	if err != nil {
		return fmt.Errorf("set marker %s for %d: %w", occ.Key(), chatID, err)
	}
	return nil
}

// SetMarkerValue is SetMarker for non-prayer slots (auxiliary reminders).
func (s *Store) SetMarkerValue(ctx context.Context, chatID int64, slot, value string) error {
	_, err := s.pool.Exec(ctx, "subscriber_set_marker", chatID, slot, value)
	if err != nil {
		return fmt.Errorf("set marker %s for %d: %w", slot, chatID, err)
	}
	return nil
}

// Delete removes a subscriber (unsubscribe).
func (s *Store) Delete(ctx context.Context, chatID int64) error {
	_, err := s.pool.Exec(ctx, "subscriber_delete", chatID)
	if err != nil {
		return fmt.Errorf("delete subscriber %d: %w", chatID, err)
	}
	return nil
}

// LoadReminders returns reminder bodies keyed by slot.
func (s *Store) LoadReminders(ctx context.Context) (map[string]string, error) {
	rows, err := s.pool.Query(ctx, "reminders_all")
	if err != nil {
		return nil, fmt.Errorf("load reminders: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var slot, body string
		if err := rows.Scan(&slot, &body); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		out[slot] = body
	}
	return out, rows.Err()
}

// --------------------------------------------------------------------------
// Row helpers
// --------------------------------------------------------------------------

func scanSubscriber(row pgx.Row) (Subscriber, error) {
	var (
		sub        Subscriber
		rawTimings []byte
		rawMarkers []byte
	)
	err := row.Scan(&sub.ChatID, &sub.Lat, &sub.Lon, &sub.Timezone,
		&rawTimings, &sub.HijriMonth, &sub.FetchedDate, &sub.RefreshedAt,
		&rawMarkers, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return Subscriber{}, fmt.Errorf("scan subscriber: %w", err)
	}

	var plain map[string]string
	if err := json.Unmarshal(rawTimings, &plain); err != nil {
		return Subscriber{}, fmt.Errorf("decode timings for %d: %w", sub.ChatID, err)
	}
	sub.Timings = make(map[prayer.Kind]prayer.Clock, len(plain))
	for k, v := range plain {
		sub.Timings[prayer.Kind(k)] = prayer.Clock(v)
	}

	if err := json.Unmarshal(rawMarkers, &sub.Markers); err != nil {
		return Subscriber{}, fmt.Errorf("decode markers for %d: %w", sub.ChatID, err)
	}
	if sub.Markers == nil {
		sub.Markers = make(map[string]string)
	}
	return sub, nil
}

func clockStrings(times map[prayer.Kind]prayer.Clock) map[string]string {
	out := make(map[string]string, len(times))
	for k, v := range times {
		out[string(k)] = string(v)
	}
	return out
}
