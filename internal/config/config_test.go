package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athanhub/athan-notify/internal/prayer"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("DATABASE_URL", "postgres://localhost/athan")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.SampleInterval)
	assert.Equal(t, 6*time.Hour, cfg.RefreshInterval)
	assert.Equal(t, MarkAfterAttempt, cfg.MarkerPolicy)
	assert.Equal(t, 4, cfg.CalculationMethod)
	assert.Equal(t, "https://api.aladhan.com/v1", cfg.TimingsBaseURL)
	assert.Equal(t, prayer.Clock("07:00"), cfg.MorningReminder)
	assert.Equal(t, 20, cfg.Offsets.Default[prayer.Fajr])
	assert.Equal(t, 120, cfg.Offsets.RamadanIshaGap)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("SAMPLE_INTERVAL", "15s")
	t.Setenv("MARKER_POLICY", "success")
	t.Setenv("SECOND_CALL_OFFSETS", "Fajr=25")
	t.Setenv("RAMADAN_ISHA_GAP_MINUTES", "90")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 15*time.Second, cfg.SampleInterval)
	assert.Equal(t, MarkAfterSuccess, cfg.MarkerPolicy)
	assert.Equal(t, 25, cfg.Offsets.Default[prayer.Fajr])
	assert.Equal(t, 15, cfg.Offsets.Default[prayer.Dhuhr])
	assert.Equal(t, 90, cfg.Offsets.RamadanIshaGap)
	assert.True(t, cfg.IsProduction())
}

func TestLoadRejectsBadInput(t *testing.T) {
	setRequired(t)
	t.Setenv("MARKER_POLICY", "maybe")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/athan")
	_, err := Load()
	assert.Error(t, err)
}
