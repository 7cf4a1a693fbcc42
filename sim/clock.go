package sim

import (
	"fmt"
	"time"
)

// Clock supplies the engine's notion of "now" in seconds.
type Clock interface {
	Now() float64
}

// ManualClock is advanced explicitly. The discrete-event host and tests drive it.
type ManualClock struct {
	now float64
}

// NewManualClock returns a clock reading start.
func NewManualClock(start float64) *ManualClock {
	return &ManualClock{now: start}
}

// Now implements Clock.
func (c *ManualClock) Now() float64 { return c.now }

// Set moves the clock to t. Panics if t is in the past.
func (c *ManualClock) Set(t float64) {
	if t < c.now {
		panic(fmt.Sprintf("ManualClock.Set: time moved backwards from %v to %v", c.now, t))
	}
	c.now = t
}

// Advance moves the clock forward by d seconds.
func (c *ManualClock) Advance(d float64) {
	c.Set(c.now + d)
}

// WallClock reads real time as Unix seconds.
type WallClock struct {
	now func() time.Time
}

// NewWallClock returns a clock backed by time.Now.
func NewWallClock() WallClock {
	return WallClock{now: time.Now}
}

// Now implements Clock.
func (c WallClock) Now() float64 {
	return UnixSeconds(c.now())
}

// UnixSeconds converts t to fractional Unix seconds.
func UnixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
