package prayer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTimes() map[Kind]Clock {
	return map[Kind]Clock{
		Fajr:    "05:12",
		Dhuhr:   "12:30",
		Asr:     "15:45",
		Maghrib: "18:05",
		Isha:    "19:35",
	}
}

func TestPrimaryTime(t *testing.T) {
	tbl := DefaultTables()
	cal := CalendarContext{HijriMonth: 3, Weekday: time.Monday}

	got, ok := PrimaryTime(Isha, sampleTimes(), cal, tbl)
	require.True(t, ok)
	assert.Equal(t, Clock("19:35"), got, "ordinary days use the provider's Isha")

	_, ok = PrimaryTime(Fajr, map[Kind]Clock{}, cal, tbl)
	assert.False(t, ok, "missing timing must not produce a time")
}

func TestPrimaryTimeRamadanIshaRelocation(t *testing.T) {
	tbl := DefaultTables()
	cal := CalendarContext{HijriMonth: 9, Weekday: time.Monday}

	got, ok := PrimaryTime(Isha, sampleTimes(), cal, tbl)
	require.True(t, ok)
	assert.Equal(t, Clock("20:05"), got, "Ramadan Isha is Maghrib + 120, not the provider value")

	// Other events are unaffected by the relocation.
	got, ok = PrimaryTime(Maghrib, sampleTimes(), cal, tbl)
	require.True(t, ok)
	assert.Equal(t, Clock("18:05"), got)

	// Relocation near midnight wraps cleanly.
	late := map[Kind]Clock{Maghrib: "23:10"}
	got, ok = PrimaryTime(Isha, late, cal, tbl)
	require.True(t, ok)
	assert.Equal(t, Clock("01:10"), got)
}

func TestSecondCall(t *testing.T) {
	tbl := DefaultTables()

	weekday := CalendarContext{HijriMonth: 3, Weekday: time.Tuesday}
	got, ok := SecondCall(Maghrib, "18:05", weekday, tbl)
	require.True(t, ok)
	assert.Equal(t, Clock("18:15"), got)

	got, ok = SecondCall(Fajr, "23:50", weekday, tbl)
	require.True(t, ok)
	assert.Equal(t, Clock("00:10"), got, "offset past midnight rolls over")
}

func TestSecondCallFridaySuppression(t *testing.T) {
	tbl := DefaultTables()
	friday := CalendarContext{HijriMonth: 3, Weekday: time.Friday}

	_, ok := SecondCall(Dhuhr, "12:30", friday, tbl)
	assert.False(t, ok, "no second call for the congregational prayer")

	// The other events still get their second call on Friday.
	got, ok := SecondCall(Asr, "15:45", friday, tbl)
	require.True(t, ok)
	assert.Equal(t, Clock("16:00"), got)
}

func TestSecondCallRamadanTable(t *testing.T) {
	tbl := DefaultTables()
	ramadan := CalendarContext{HijriMonth: 9, Weekday: time.Tuesday}

	got, ok := SecondCall(Fajr, "05:12", ramadan, tbl)
	require.True(t, ok)
	assert.Equal(t, Clock("05:22"), got, "Ramadan table shortens the Fajr offset")
}

func TestLabel(t *testing.T) {
	weekday := CalendarContext{Weekday: time.Wednesday}
	friday := CalendarContext{Weekday: time.Friday}

	assert.Equal(t, "الظهر", Label(Dhuhr, weekday))
	assert.Equal(t, "الجمعة", Label(Dhuhr, friday))
	assert.Equal(t, "الفجر", Label(Fajr, friday), "only the midday label changes on Friday")
}

func TestParseOffsets(t *testing.T) {
	base := DefaultTables().Default

	got, err := ParseOffsets("Fajr=25, Isha=5", base)
	require.NoError(t, err)
	assert.Equal(t, 25, got[Fajr])
	assert.Equal(t, 5, got[Isha])
	assert.Equal(t, base[Dhuhr], got[Dhuhr], "unlisted kinds keep the base value")

	_, err = ParseOffsets("Brunch=10", base)
	assert.Error(t, err)

	_, err = ParseOffsets("Fajr=soon", base)
	assert.Error(t, err)
}

func TestOccurrenceKeysAndValues(t *testing.T) {
	adhan := Occurrence{Kind: Fajr, Phase: Adhan, Time: "05:12"}
	iqama := Occurrence{Kind: Fajr, Phase: Iqama, Time: "05:32"}

	assert.Equal(t, "Fajr", adhan.Key())
	assert.Equal(t, "Fajr.iqama", iqama.Key())
	assert.Equal(t, "adhan:Fajr@05:12", adhan.String())
	assert.Equal(t, "iqama:Fajr@05:32", iqama.String())
	assert.NotEqual(t, adhan.String(), Occurrence{Kind: Fajr, Phase: Adhan, Time: "05:13"}.String(),
		"a new provider timing produces a new marker value")
}
