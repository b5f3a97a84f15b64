// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/athanhub/athan-notify/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers all statements the store uses.
// Table layout matches schema.sql.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Subscribers
		"subscriber_all": `
			SELECT chat_id, lat, lon, timezone, timings, hijri_month,
			       fetched_date, refreshed_at, markers, created_at, updated_at
			FROM subscribers
			ORDER BY chat_id`,

		"subscriber_get": `
			SELECT chat_id, lat, lon, timezone, timings, hijri_month,
			       fetched_date, refreshed_at, markers, created_at, updated_at
			FROM subscribers
			WHERE chat_id = $1`,

		// Re-registration resets cached timings and all markers.
		"subscriber_upsert": `
			INSERT INTO subscribers (chat_id, lat, lon)
			VALUES ($1, $2, $3)
			ON CONFLICT (chat_id) DO UPDATE SET
				lat          = EXCLUDED.lat,
				lon          = EXCLUDED.lon,
				timezone     = '',
				timings      = '{}'::jsonb,
				hijri_month  = 0,
				fetched_date = '',
				refreshed_at = NULL,
				markers      = '{}'::jsonb,
				updated_at   = NOW()`,

		"subscriber_save_timings": `
			UPDATE subscribers
			SET timezone = $2, timings = $3, hijri_month = $4,
			    fetched_date = $5, refreshed_at = NOW(), updated_at = NOW()
			WHERE chat_id = $1`,

		// Single-row jsonb merge: atomic per record, idempotent on repeat.
		"subscriber_set_marker": `
			UPDATE subscribers
			SET markers = markers || jsonb_build_object($2::text, $3::text),
			    updated_at = NOW()
			WHERE chat_id = $1`,

		"subscriber_delete": `
			DELETE FROM subscribers WHERE chat_id = $1`,

		// Reminder content
		"reminders_all": `
			SELECT slot, body FROM reminders`,
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %s: %w", name, err)
		}
	}
	return nil
}
