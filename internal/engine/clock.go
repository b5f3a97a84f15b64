package engine

import (
	"fmt"
	"sync"
	"time"
)

// RealClock resolves "now" in IANA zones, caching loaded locations.
type RealClock struct {
	mu   sync.Mutex
	locs map[string]*time.Location
}

// NewRealClock returns a Clock backed by the system time.
func NewRealClock() *RealClock {
	return &RealClock{locs: make(map[string]*time.Location)}
}

// Now returns the current time in the given zone.
func (c *RealClock) Now(zone string) (time.Time, error) {
	c.mu.Lock()
	loc, ok := c.locs[zone]
	c.mu.Unlock()
	if !ok {
		var err error
		loc, err = time.LoadLocation(zone)
		if err != nil {
			return time.Time{}, fmt.Errorf("load zone %q: %w", zone, err)
		}
		c.mu.Lock()
		c.locs[zone] = loc
		c.mu.Unlock()
	}
	return time.Now().In(loc), nil
}
