package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManualClock(t *testing.T) {
	c := NewManualClock(1.5)
	assert.Equal(t, 1.5, c.Now())

	c.Advance(2)
	assert.Equal(t, 3.5, c.Now())

	c.Set(3.5)
	assert.Equal(t, 3.5, c.Now(), "setting the current time is allowed")

	assert.Panics(t, func() { c.Set(3.4) })
	assert.Panics(t, func() { c.Advance(-1) })
}

func TestWallClock(t *testing.T) {
	fixed := time.Date(2024, 1, 2, 3, 4, 5, 500_000_000, time.UTC)
	c := WallClock{now: func() time.Time { return fixed }}
	assert.InDelta(t, float64(fixed.Unix())+0.5, c.Now(), 1e-6)

	before := UnixSeconds(time.Now())
	assert.GreaterOrEqual(t, NewWallClock().Now(), before)
}
