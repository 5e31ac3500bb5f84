// Package ring provides a fixed-capacity FIFO over a preallocated slice.
//
// Buffer never allocates after New, which is what lets the event loop make
// its no-heap claim on the hot path. It is not synchronized; the owner is
// responsible for serializing access (eventloop.Loop wraps it in a mutex).
package ring

// Buffer is a bounded FIFO of T. The zero value is unusable; construct
// with New.
type Buffer[T any] struct {
	buf  []T
	head int
	n    int
}

// New returns a Buffer holding at most capacity elements.
func New[T any](capacity int) *Buffer[T] {
	if capacity <= 0 {
		panic("ring: capacity must be positive")
	}
	return &Buffer[T]{buf: make([]T, capacity)}
}

func (b *Buffer[T]) Len() int    { return b.n }
func (b *Buffer[T]) Cap() int    { return len(b.buf) }
func (b *Buffer[T]) Empty() bool { return b.n == 0 }
func (b *Buffer[T]) Full() bool  { return b.n == len(b.buf) }

// Push appends v. It reports false, leaving the buffer unchanged, when the
// buffer is full.
func (b *Buffer[T]) Push(v T) bool {
	if b.Full() {
		return false
	}
	b.buf[(b.head+b.n)%len(b.buf)] = v
	b.n++
	return true
}

// PushOver appends v, discarding the oldest element first when full.
func (b *Buffer[T]) PushOver(v T) {
	if b.Full() {
		b.buf[b.head] = v
		b.head = (b.head + 1) % len(b.buf)
		return
	}
	b.Push(v)
}

// Front returns the oldest element without removing it.
func (b *Buffer[T]) Front() (T, bool) {
	var zero T
	if b.n == 0 {
		return zero, false
	}
	return b.buf[b.head], true
}

// PopFront removes and returns the oldest element.
func (b *Buffer[T]) PopFront() (T, bool) {
	var zero T
	if b.n == 0 {
		return zero, false
	}
	v := b.buf[b.head]
	b.buf[b.head] = zero // release references held by popped slots
	b.head = (b.head + 1) % len(b.buf)
	b.n--
	return v, true
}

// Clear discards all buffered elements.
func (b *Buffer[T]) Clear() {
	var zero T
	for i := range b.buf {
		b.buf[i] = zero
	}
	b.head = 0
	b.n = 0
}
