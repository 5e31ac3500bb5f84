package clock

import "time"

// Elapsed measures time since a start point on a Clock.
//
// The zero value is not usable; construct with NewElapsed. Reset rebases
// the start point without touching the active flag, which is what lets a
// periodic timer re-arm after firing without a stop/start round trip.
type Elapsed struct {
	clk    Clock
	start  time.Time
	active bool
}

// NewElapsed returns an inactive Elapsed bound to c.
func NewElapsed(c Clock) Elapsed {
	if c == nil {
		c = WallClock{}
	}
	return Elapsed{clk: c}
}

// Active reports whether Start has been called without a matching Stop.
func (e *Elapsed) Active() bool { return e.active }

// Start marks the timer active and rebases the start point to now.
func (e *Elapsed) Start() {
	e.active = true
	e.start = e.clk.Now()
}

// Stop deactivates the timer and clears the start point.
func (e *Elapsed) Stop() {
	e.active = false
	e.start = time.Time{}
}

// Reset rebases the start point to now.
func (e *Elapsed) Reset() {
	e.start = e.clk.Now()
}

// Elapsed returns the duration since the start point.
func (e *Elapsed) Elapsed() time.Duration {
	return e.clk.Now().Sub(e.start)
}

// HasElapsed reports whether at least d has passed since the start point.
func (e *Elapsed) HasElapsed(d time.Duration) bool {
	return e.Elapsed() >= d
}

// Deadline is a fixed point-plus-interval pair: "d past the moment it was
// taken". Unlike Elapsed it has no mutable state.
type Deadline struct {
	clk   Clock
	start time.Time
	d     time.Duration
}

// After captures a deadline d past now on c.
func After(c Clock, d time.Duration) Deadline {
	if c == nil {
		c = WallClock{}
	}
	return Deadline{clk: c, start: c.Now(), d: d}
}

// Passed reports whether the deadline has been reached.
func (dl Deadline) Passed() bool {
	return dl.clk.Now().Sub(dl.start) >= dl.d
}

// Remaining returns how much time is left; negative once passed.
func (dl Deadline) Remaining() time.Duration {
	return dl.d - dl.clk.Now().Sub(dl.start)
}
