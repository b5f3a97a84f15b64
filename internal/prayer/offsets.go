package prayer

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Offset tables
// --------------------------------------------------------------------------

// Tables holds the per-event minute offsets between the adhan and the
// second call, for ordinary days and for Ramadan, plus the fixed gap
// used to relocate Isha after Maghrib during Ramadan.
type Tables struct {
	Default map[Kind]int
	Ramadan map[Kind]int
	// Minutes after Maghrib at which Isha is held in Ramadan,
	// overriding the provider's own Isha time.
	RamadanIshaGap int
}

// DefaultTables returns the stock offset tables.
func DefaultTables() Tables {
	return Tables{
		Default: map[Kind]int{
			Fajr:    20,
			Dhuhr:   15,
			Asr:     15,
			Maghrib: 10,
			Isha:    15,
		},
		Ramadan: map[Kind]int{
			Fajr:    10,
			Dhuhr:   15,
			Asr:     15,
			Maghrib: 5,
			Isha:    10,
		},
		RamadanIshaGap: 120,
	}
}

// ParseOffsets parses a "Fajr=20,Dhuhr=15,..." list into an offset map.
// Unlisted kinds keep the values from base.
func ParseOffsets(s string, base map[Kind]int) (map[Kind]int, error) {
	out := make(map[Kind]int, len(base))
	for k, v := range base {
		out[k] = v
	}
	if s == "" {
		return out, nil
	}
	for _, part := range strings.Split(s, ",") {
		name, val, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			return nil, fmt.Errorf("invalid offset entry %q", part)
		}
		kind := Kind(strings.TrimSpace(name))
		if !kind.Valid() {
			return nil, fmt.Errorf("unknown event kind %q", name)
		}
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil {
			return nil, fmt.Errorf("invalid offset for %s: %w", kind, err)
		}
		out[kind] = n
	}
	return out, nil
}

// --------------------------------------------------------------------------
// Event time derivation
// --------------------------------------------------------------------------

// PrimaryTime returns the effective adhan time for an event given the
// day's provider timings. During Ramadan the Isha time is relocated to a
// fixed gap after Maghrib regardless of the provider's own Isha value.
// ok is false when the required timing is missing from the cache.
func PrimaryTime(k Kind, times map[Kind]Clock, cal CalendarContext, tbl Tables) (Clock, bool) {
	if cal.IsRamadan() && k == Isha {
		maghrib, ok := times[Maghrib]
		if !ok || !maghrib.Valid() {
			return "", false
		}
		return maghrib.Add(tbl.RamadanIshaGap), true
	}
	t, ok := times[k]
	if !ok || !t.Valid() {
		return "", false
	}
	return t, true
}

// SecondCall derives the iqama time for an event from its effective
// primary time. On Friday the midday second call is suppressed entirely;
// ok is false in that case. During Ramadan the Ramadan offset table
// applies.
func SecondCall(k Kind, primary Clock, cal CalendarContext, tbl Tables) (Clock, bool) {
	if k == Dhuhr && cal.IsFriday() {
		return "", false
	}
	offsets := tbl.Default
	if cal.IsRamadan() {
		offsets = tbl.Ramadan
	}
	off, ok := offsets[k]
	if !ok {
		return "", false
	}
	return primary.Add(off), true
}
