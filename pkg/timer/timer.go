// Package timer provides a fixed-capacity pool of tick-driven software
// timers.
//
// A Pool owns every timer slot; callers hold opaque id-based handles. The
// pool fires at most one expired timer per Process call, mirroring the
// kernel's one-slice-per-call policy, so a burst of simultaneous expiries
// spreads over consecutive drive passes in slot order.
package timer

import (
	"math"
	"time"

	"coresched/pkg/assert"
	"coresched/pkg/clock"
	logx "coresched/pkg/logx"
)

// ID names a slot for the registered lifetime of its timer.
type ID uint32

// None is the reserved "no timer" id carried by invalid handles.
const None ID = math.MaxUint32

// DefaultCapacity is the pool size used when NewPool gets a non-positive
// capacity.
const DefaultCapacity = 10

// Callback runs when a timer fires. It executes on the drive goroutine and
// must not block.
type Callback func()

type slot struct {
	registered bool
	active     bool
	singleShot bool
	interval   time.Duration
	elapsed    clock.Elapsed
	callback   Callback
}

// Option customizes a Pool.
type Option func(*Pool)

// WithLogger attaches a logger for capacity warnings.
func WithLogger(log logx.Logger) Option {
	return func(p *Pool) { p.log = log }
}

// Pool is a fixed array of timer slots plus a scan cursor. Like the
// kernel, it belongs to the drive goroutine; none of its methods are
// synchronized.
type Pool struct {
	slots  []slot
	cursor int
	clk    clock.Clock
	log    logx.Logger

	fired        uint64
	registerFail uint64
}

// NewPool builds a pool of capacity slots driven by c. A nil clock falls
// back to the wall clock; a non-positive capacity falls back to
// DefaultCapacity.
func NewPool(capacity int, c clock.Clock, opts ...Option) *Pool {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if c == nil {
		c = clock.WallClock{}
	}
	p := &Pool{
		slots: make([]slot, capacity),
		clk:   c,
		log:   logx.Nop(),
	}
	for i := range p.slots {
		p.slots[i].elapsed = clock.NewElapsed(c)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Capacity reports the fixed slot count.
func (p *Pool) Capacity() int { return len(p.slots) }

// Registered reports how many slots are currently claimed.
func (p *Pool) Registered() int {
	n := 0
	for i := range p.slots {
		if p.slots[i].registered {
			n++
		}
	}
	return n
}

func (p *Pool) register(interval time.Duration, cb Callback, singleShot bool) ID {
	for i := range p.slots {
		s := &p.slots[i]
		if s.registered {
			continue
		}
		*s = slot{
			registered: true,
			singleShot: singleShot,
			interval:   interval,
			elapsed:    clock.NewElapsed(p.clk),
			callback:   cb,
		}
		return ID(i)
	}
	p.registerFail++
	p.log.Warn("timer pool full", logx.Int("capacity", len(p.slots)))
	assert.Fail("timer: pool full; increase the pool capacity")
	return None
}

// Register claims a slot for a timer with the given interval and callback.
// The timer starts inactive; arm it with Timer.Start. When the pool is full
// the returned handle is invalid and the assert hook has fired.
func (p *Pool) Register(interval time.Duration, cb Callback) *Timer {
	return &Timer{pool: p, id: p.register(interval, cb, false)}
}

// SingleShot registers and immediately arms a timer that frees its slot
// after firing once. It reports false when the pool is full.
func (p *Pool) SingleShot(interval time.Duration, cb Callback) bool {
	id := p.register(interval, cb, true)
	if id == None {
		return false
	}
	s := &p.slots[id]
	s.active = true
	s.elapsed.Start()
	return true
}

// Process scans from the persistent cursor and fires the first registered,
// active slot whose interval has elapsed, then returns. At most one timer
// fires per call; the scan wraps and visits each slot at most once. After
// the callback a periodic timer re-arms with its elapsed base reset to now,
// while a single-shot slot returns to the free pool.
func (p *Pool) Process() {
	initial := p.cursor
	for {
		s := &p.slots[p.cursor]

		p.cursor++
		if p.cursor >= len(p.slots) {
			p.cursor = 0
		}

		if s.registered && s.active && s.callback != nil && s.elapsed.HasElapsed(s.interval) {
			p.fired++
			s.callback()
			s.elapsed.Reset()
			if s.singleShot {
				*s = slot{elapsed: clock.NewElapsed(p.clk)}
			}
			return
		}
		if p.cursor == initial {
			return
		}
	}
}

// Reset unregisters every slot, discarding intervals and callbacks.
func (p *Pool) Reset() {
	for i := range p.slots {
		p.slots[i] = slot{elapsed: clock.NewElapsed(p.clk)}
	}
}

// Snapshot is a point-in-time diagnostics view.
type Snapshot struct {
	Capacity         int    `json:"capacity"`
	Registered       int    `json:"registered"`
	Fired            uint64 `json:"fired"`
	RegisterFailures uint64 `json:"register_failures"`
}

// Snapshot reports occupancy and lifetime counters.
func (p *Pool) Snapshot() Snapshot {
	return Snapshot{
		Capacity:         len(p.slots),
		Registered:       p.Registered(),
		Fired:            p.fired,
		RegisterFailures: p.registerFail,
	}
}

func (p *Pool) free(id ID) {
	if int(id) >= len(p.slots) {
		return
	}
	p.slots[id] = slot{elapsed: clock.NewElapsed(p.clk)}
}

// lookup returns the slot for id, or nil for out-of-range or unregistered
// ids. Callers treat nil as the sentinel "unregistered" state rather than
// a hard failure.
func (p *Pool) lookup(id ID) *slot {
	if p == nil || int(id) >= len(p.slots) {
		return nil
	}
	s := &p.slots[id]
	if !s.registered {
		return nil
	}
	return s
}
