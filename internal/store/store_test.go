package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athanhub/athan-notify/internal/prayer"
)

// fakeRow feeds canned column values through the pgx.Row interface.
type fakeRow struct {
	vals []any
}

func (r fakeRow) Scan(dest ...any) error {
	for i, d := range dest {
		switch v := d.(type) {
		case *int64:
			*v = r.vals[i].(int64)
		case *float64:
			*v = r.vals[i].(float64)
		case *string:
			*v = r.vals[i].(string)
		case *int:
			*v = r.vals[i].(int)
		case *[]byte:
			*v = r.vals[i].([]byte)
		case **time.Time:
			if r.vals[i] != nil {
				t := r.vals[i].(time.Time)
				*v = &t
			}
		case *time.Time:
			*v = r.vals[i].(time.Time)
		}
	}
	return nil
}

func sampleRow(timings, markers string) fakeRow {
	now := time.Now()
	return fakeRow{vals: []any{
		int64(42), 51.5, -0.12, "Europe/London",
		[]byte(timings), 9, "14-03-2025", now,
		[]byte(markers), now, now,
	}}
}

func TestScanSubscriber(t *testing.T) {
	sub, err := scanSubscriber(sampleRow(
		`{"Fajr":"05:12","Maghrib":"18:05"}`,
		`{"Fajr":"adhan:Fajr@05:12"}`,
	))
	require.NoError(t, err)

	assert.Equal(t, int64(42), sub.ChatID)
	assert.Equal(t, prayer.Clock("05:12"), sub.Timings[prayer.Fajr])
	assert.Equal(t, "adhan:Fajr@05:12", sub.Markers["Fajr"])
	assert.True(t, sub.HasTimings())
}

func TestScanSubscriberCorruptJSON(t *testing.T) {
	_, err := scanSubscriber(sampleRow(`{broken`, `{}`))
	assert.Error(t, err)
}

func TestScanSubscriberEmptyMarkers(t *testing.T) {
	sub, err := scanSubscriber(sampleRow(`{}`, `null`))
	require.NoError(t, err)
	require.NotNil(t, sub.Markers, "markers map must be usable even when the column is null")
	assert.False(t, sub.HasTimings(), "no cached timings yet")
}

func TestClockStrings(t *testing.T) {
	got := clockStrings(map[prayer.Kind]prayer.Clock{prayer.Isha: "19:35"})
	assert.Equal(t, map[string]string{"Isha": "19:35"}, got)
}
