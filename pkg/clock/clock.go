// Package clock abstracts the monotonic time source the timer pool is
// driven by.
//
// Two implementations are provided: TickClock, a manually advanced counter
// matching the tick-interrupt model of a bare-metal target, and WallClock
// for hosts where time.Now is good enough. The pool only ever subtracts
// time points, so neither clock promises wall-clock correctness, only that
// Now never goes backwards as long as the tick counter doesn't.
package clock

import (
	"sync/atomic"
	"time"
)

// Clock yields the current time point.
type Clock interface {
	Now() time.Time
}

// DefaultTickPeriod is the tick resolution used when none is configured,
// matching a 1 kHz system tick.
const DefaultTickPeriod = time.Millisecond

// TickClock is a monotonic counter advanced by the host (typically from a
// periodic tick callback). Advance/Set/Reset are safe to call from a
// producer goroutine while the drive loop reads Now.
type TickClock struct {
	ticks  atomic.Uint64
	period time.Duration
}

// NewTickClock returns a TickClock with the given tick period.
// A non-positive period falls back to DefaultTickPeriod.
func NewTickClock(period time.Duration) *TickClock {
	if period <= 0 {
		period = DefaultTickPeriod
	}
	return &TickClock{period: period}
}

// Advance adds n ticks.
func (c *TickClock) Advance(n uint64) { c.ticks.Add(n) }

// Set forces the counter to n ticks.
func (c *TickClock) Set(n uint64) { c.ticks.Store(n) }

// Reset returns the counter to zero.
func (c *TickClock) Reset() { c.ticks.Store(0) }

// Ticks reports the current counter value.
func (c *TickClock) Ticks() uint64 { return c.ticks.Load() }

// Period reports the configured tick resolution.
func (c *TickClock) Period() time.Duration { return c.period }

// Now maps the tick counter onto the time axis: tick N is N periods past
// the zero time point.
func (c *TickClock) Now() time.Time {
	var epoch time.Time
	return epoch.Add(time.Duration(c.ticks.Load()) * c.period)
}

// WallClock adapts time.Now to the Clock interface.
type WallClock struct{}

func (WallClock) Now() time.Time { return time.Now() }
