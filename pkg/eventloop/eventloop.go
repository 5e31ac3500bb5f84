// Package eventloop buffers producer events in a bounded FIFO and
// dispatches them on the owning loop's kernel slice.
//
// A Loop is a kernel.Task: it registers itself on construction and drains
// up to its burst limit of events per slice. Producers (other goroutines,
// interrupt-like callbacks) only ever touch the queue through Push and
// PushOver, which are the loop's only synchronized entry points.
package eventloop

import (
	"sync"

	"coresched/pkg/kernel"
	"coresched/pkg/ring"
)

// DefaultMaxEventsPerCall caps how many events one slice may dispatch when
// no per-loop limit is configured.
const DefaultMaxEventsPerCall = 10

// DefaultQueueCap is the queue capacity used when New is given a
// non-positive one.
const DefaultQueueCap = 32

// Option customizes a Loop at construction time.
type Option func(*settings)

type settings struct {
	burstCap int
	burst    int
}

// WithMaxEventsPerCall sets the upper bound SetMaxEventsPerCall clamps to.
func WithMaxEventsPerCall(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.burstCap = n
		}
	}
}

// WithBurst sets the initial events-per-slice count (clamped like
// SetMaxEventsPerCall). The default is one event per slice.
func WithBurst(n int) Option {
	return func(s *settings) { s.burst = n }
}

// Loop is a bounded event queue paired with a dispatch handler.
//
// Push/PushOver may be called from any goroutine; everything else belongs
// to the drive goroutine. The handler runs synchronously inside Run and is
// allowed to push further events into the same loop.
type Loop[E any] struct {
	k *kernel.Kernel

	mu      sync.Mutex
	q       *ring.Buffer[E]
	handler func(E)
	burst   int

	burstCap   int
	dispatched uint64
	discarded  uint64
}

// New builds a Loop with a queue of queueCap events and registers it with
// k. Registration failure follows kernel.Register's contract (assert hook
// fires, loop stays unscheduled but usable as a plain buffer).
func New[E any](k *kernel.Kernel, queueCap int, opts ...Option) *Loop[E] {
	if queueCap <= 0 {
		queueCap = DefaultQueueCap
	}
	s := settings{burstCap: DefaultMaxEventsPerCall, burst: 1}
	for _, opt := range opts {
		opt(&s)
	}
	l := &Loop[E]{
		k:        k,
		q:        ring.New[E](queueCap),
		handler:  func(E) {},
		burstCap: s.burstCap,
	}
	l.burst = clampBurst(s.burst, s.burstCap)
	if k != nil {
		k.Register(l)
	}
	return l
}

// Close unregisters the loop from the kernel. Buffered events stay in the
// queue and can still be drained manually via Run.
func (l *Loop[E]) Close() {
	if l.k != nil {
		l.k.Unregister(l)
	}
}

// Push enqueues e, reporting false when the queue is full.
func (l *Loop[E]) Push(e E) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.q.Push(e)
}

// PushOver enqueues e, discarding the oldest buffered event first when the
// queue is full. It never fails.
func (l *Loop[E]) PushOver(e E) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.q.Full() {
		l.discarded++
	}
	l.q.PushOver(e)
}

// SetHandler replaces the dispatch callback. A nil fn resets to a no-op so
// Run never invokes a nil handler.
func (l *Loop[E]) SetHandler(fn func(E)) {
	if fn == nil {
		fn = func(E) {}
	}
	l.mu.Lock()
	l.handler = fn
	l.mu.Unlock()
}

// SetMaxEventsPerCall sets the per-slice burst, silently clamping n into
// [1, the loop's configured maximum].
func (l *Loop[E]) SetMaxEventsPerCall(n int) {
	l.mu.Lock()
	l.burst = clampBurst(n, l.burstCap)
	l.mu.Unlock()
}

// MaxEventsPerCall reports the current burst limit.
func (l *Loop[E]) MaxEventsPerCall() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.burst
}

// Len reports the number of buffered events.
func (l *Loop[E]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.q.Len()
}

// Cap reports the queue capacity.
func (l *Loop[E]) Cap() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.q.Cap()
}

// Clear discards all buffered events without dispatching them.
func (l *Loop[E]) Clear() {
	l.mu.Lock()
	l.q.Clear()
	l.mu.Unlock()
}

// Run is the loop's execution slice: it pops and dispatches events in FIFO
// order until the queue drains or the burst limit is reached. The handler
// runs outside the queue lock, so it may push into this loop; events it
// pushes are eligible within the same slice if the burst allows.
func (l *Loop[E]) Run() {
	for n := l.burstLimit(); n > 0; n-- {
		l.mu.Lock()
		e, ok := l.q.PopFront()
		h := l.handler
		if ok {
			l.dispatched++
		}
		l.mu.Unlock()
		if !ok {
			return
		}
		h(e)
	}
}

func (l *Loop[E]) burstLimit() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.burst
}

// Stats is a point-in-time counter view for diagnostics.
type Stats struct {
	Buffered   int    `json:"buffered"`
	Capacity   int    `json:"capacity"`
	Burst      int    `json:"burst"`
	Dispatched uint64 `json:"dispatched"`
	Discarded  uint64 `json:"discarded"`
}

// Stats reports queue occupancy and lifetime counters. Discarded counts
// events dropped by PushOver before they were ever dispatched.
func (l *Loop[E]) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{
		Buffered:   l.q.Len(),
		Capacity:   l.q.Cap(),
		Burst:      l.burst,
		Dispatched: l.dispatched,
		Discarded:  l.discarded,
	}
}

func clampBurst(n, maxN int) int {
	if n < 1 {
		return 1
	}
	if n > maxN {
		return maxN
	}
	return n
}
