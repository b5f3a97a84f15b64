// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/athanctl.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/athanhub/athan-notify/internal/prayer"
)

// MarkerPolicy controls when the per-event fired marker is persisted
// relative to the dispatch attempt.
type MarkerPolicy string

const (
	// MarkAfterAttempt persists the marker once a send was attempted,
	// whether or not it succeeded. One attempt per occurrence.
	MarkAfterAttempt MarkerPolicy = "attempt"
	// MarkAfterSuccess persists the marker only on a confirmed send, so
	// a failed send retries on later samples within the same minute.
	MarkAfterSuccess MarkerPolicy = "success"
)

// Config is populated from environment variables with sensible defaults.
type Config struct {
	// Telegram
	BotToken      string
	WebhookURL    string // external base URL; empty skips webhook registration
	WebhookSecret string // X-Telegram-Bot-Api-Secret-Token value; empty disables the check

	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting (inbound)
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Timings provider
	TimingsBaseURL    string
	CalculationMethod int
	TimingsPerMinute  int // outbound rate limit

	// Engine
	SampleInterval  time.Duration
	RefreshInterval time.Duration
	EngineWorkers   int
	MarkerPolicy    MarkerPolicy
	Offsets         prayer.Tables

	// Auxiliary reminders
	RemindersEnabled bool
	ReminderZone     string       // IANA zone the fixed reminder times are read in
	MorningReminder  prayer.Clock // local wall-clock time in ReminderZone
	EveningReminder  prayer.Clock
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	token := os.Getenv("BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("BOT_TOKEN must be set")
	}

	dbURL := envOr("DATABASE_URL", "")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}

	offsets, err := loadOffsets()
	if err != nil {
		return nil, err
	}

	policy := MarkerPolicy(envOr("MARKER_POLICY", string(MarkAfterAttempt)))
	if policy != MarkAfterAttempt && policy != MarkAfterSuccess {
		return nil, fmt.Errorf("MARKER_POLICY must be %q or %q", MarkAfterAttempt, MarkAfterSuccess)
	}

	morning, err := prayer.ParseClock(envOr("MORNING_REMINDER_AT", "07:00"))
	if err != nil {
		return nil, fmt.Errorf("MORNING_REMINDER_AT: %w", err)
	}
	evening, err := prayer.ParseClock(envOr("EVENING_REMINDER_AT", "19:00"))
	if err != nil {
		return nil, fmt.Errorf("EVENING_REMINDER_AT: %w", err)
	}

	zone := envOr("REMINDER_ZONE", "UTC")
	if _, err := time.LoadLocation(zone); err != nil {
		return nil, fmt.Errorf("REMINDER_ZONE: %w", err)
	}

	return &Config{
		BotToken:      token,
		WebhookURL:    envOr("WEBHOOK_URL", ""),
		WebhookSecret: envOr("WEBHOOK_SECRET", ""),

		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		TimingsBaseURL:    envOr("TIMINGS_BASE_URL", "https://api.aladhan.com/v1"),
		CalculationMethod: envInt("CALCULATION_METHOD", 4),
		TimingsPerMinute:  envInt("TIMINGS_REQUESTS_PER_MINUTE", 30),

		SampleInterval:  envDuration("SAMPLE_INTERVAL", 30*time.Second),
		RefreshInterval: envDuration("REFRESH_INTERVAL", 6*time.Hour),
		EngineWorkers:   envInt("ENGINE_WORKERS", 8),
		MarkerPolicy:    policy,
		Offsets:         offsets,

		RemindersEnabled: envBool("REMINDERS_ENABLED", true),
		ReminderZone:     zone,
		MorningReminder:  morning,
		EveningReminder:  evening,
	}, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func loadOffsets() (prayer.Tables, error) {
	tbl := prayer.DefaultTables()

	def, err := prayer.ParseOffsets(envOr("SECOND_CALL_OFFSETS", ""), tbl.Default)
	if err != nil {
		return prayer.Tables{}, fmt.Errorf("SECOND_CALL_OFFSETS: %w", err)
	}
	ram, err := prayer.ParseOffsets(envOr("SECOND_CALL_OFFSETS_RAMADAN", ""), tbl.Ramadan)
	if err != nil {
		return prayer.Tables{}, fmt.Errorf("SECOND_CALL_OFFSETS_RAMADAN: %w", err)
	}

	tbl.Default = def
	tbl.Ramadan = ram
	tbl.RamadanIshaGap = envInt("RAMADAN_ISHA_GAP_MINUTES", tbl.RamadanIshaGap)
	return tbl, nil
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
