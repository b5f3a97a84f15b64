package prayer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    Clock
		wantErr bool
	}{
		{in: "05:12", want: "05:12"},
		{in: "23:59", want: "23:59"},
		{in: "00:00", want: "00:00"},
		{in: "5:03", want: "05:03"},
		{in: "24:00", wantErr: true},
		{in: "12:60", wantErr: true},
		{in: "noon", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestClockAdd(t *testing.T) {
	tests := []struct {
		in   Clock
		mins int
		want Clock
	}{
		{"18:05", 10, "18:15"},
		{"23:50", 20, "00:10"},
		{"00:05", -10, "23:55"},
		{"12:00", 0, "12:00"},
		{"06:30", 24 * 60, "06:30"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.Add(tt.mins), "%s + %d", tt.in, tt.mins)
	}
}

func TestMinuteOf(t *testing.T) {
	loc, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)
	at := time.Date(2025, 3, 14, 5, 12, 45, 0, loc)
	assert.Equal(t, Clock("05:12"), MinuteOf(at))
}
