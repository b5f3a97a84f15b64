package prayer

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock is a local wall-clock minute in 24-hour "HH:MM" form. Event
// matching is string equality against the current minute, exactly as the
// timings provider reports times, so no timezone or date is attached.
type Clock string

// ParseClock validates s as "HH:MM" and returns it as a Clock.
func ParseClock(s string) (Clock, error) {
	hh, mm, ok := split(s)
	if !ok || hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return "", fmt.Errorf("invalid clock value %q", s)
	}
	return Clock(fmt.Sprintf("%02d:%02d", hh, mm)), nil
}

// MinuteOf truncates t to its wall-clock minute.
func MinuteOf(t time.Time) Clock {
	return Clock(t.Format("15:04"))
}

// Add returns the clock shifted by the given number of minutes, wrapping
// past midnight. Negative offsets wrap backwards.
func (c Clock) Add(minutes int) Clock {
	hh, mm, ok := split(string(c))
	if !ok {
		return c
	}
	total := (hh*60 + mm + minutes) % (24 * 60)
	if total < 0 {
		total += 24 * 60
	}
	return Clock(fmt.Sprintf("%02d:%02d", total/60, total%60))
}

// Split returns the hour and minute components. A malformed clock
// splits to 0, 0.
func (c Clock) Split() (hour, minute int) {
	hh, mm, ok := split(string(c))
	if !ok {
		return 0, 0
	}
	return hh, mm
}

// Valid reports whether c is a well-formed "HH:MM" value.
func (c Clock) Valid() bool {
	_, err := ParseClock(string(c))
	return err == nil && len(c) == 5
}

func split(s string) (hh, mm int, ok bool) {
	h, m, found := strings.Cut(s, ":")
	if !found {
		return 0, 0, false
	}
	hh, err := strconv.Atoi(h)
	if err != nil {
		return 0, 0, false
	}
	mm, err = strconv.Atoi(m)
	if err != nil {
		return 0, 0, false
	}
	return hh, mm, true
}
