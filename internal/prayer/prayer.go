// Package prayer holds the domain model for daily prayer events: event
// kinds, HH:MM clock arithmetic, second-call (iqama) offset tables, and
// the calendar-dependent rules for Ramadan and Friday.
//
// Everything here is pure computation — no I/O, no clocks, no state.
package prayer

import "time"

// Kind identifies one of the five daily prayer events. The values match
// the field names the timings provider uses, and double as jsonb keys in
// the subscriber store.
type Kind string

const (
	Fajr    Kind = "Fajr"
	Dhuhr   Kind = "Dhuhr"
	Asr     Kind = "Asr"
	Maghrib Kind = "Maghrib"
	Isha    Kind = "Isha"
)

// Kinds lists the five daily events in chronological order.
var Kinds = []Kind{Fajr, Dhuhr, Asr, Maghrib, Isha}

// Valid reports whether k is one of the five daily events.
func (k Kind) Valid() bool {
	switch k {
	case Fajr, Dhuhr, Asr, Maghrib, Isha:
		return true
	}
	return false
}

// --------------------------------------------------------------------------
// Calendar context
// --------------------------------------------------------------------------

// The hijri month number the provider reports for Ramadan.
const ramadanMonth = 9

// CalendarContext carries the calendar metadata that selects
// mode-dependent offset tables and labels. The hijri month comes from the
// cached provider response; the weekday is always derived from the
// subscriber-local "now" so a cache fetched Thursday night still applies
// the Friday rules on Friday.
type CalendarContext struct {
	HijriMonth int
	Weekday    time.Weekday
}

// IsRamadan reports whether the context falls in the fasting month.
func (c CalendarContext) IsRamadan() bool { return c.HijriMonth == ramadanMonth }

// IsFriday reports whether the context falls on the weekly
// congregational day.
func (c CalendarContext) IsFriday() bool { return c.Weekday == time.Friday }

// --------------------------------------------------------------------------
// Labels
// --------------------------------------------------------------------------

var arabicLabels = map[Kind]string{
	Fajr:    "الفجر",
	Dhuhr:   "الظهر",
	Asr:     "العصر",
	Maghrib: "المغرب",
	Isha:    "العشاء",
}

// Label returns the Arabic display name for an event. On Friday the
// midday prayer is the congregational prayer and is labelled accordingly.
func Label(k Kind, cal CalendarContext) string {
	if k == Dhuhr && cal.IsFriday() {
		return "الجمعة"
	}
	return arabicLabels[k]
}
