package timer

import "time"

// Timer is the owner-facing handle to a pool slot. Handles are cheap id
// wrappers: every operation resolves the id against the pool, so a handle
// whose slot was freed (or that never got one) degrades to safe no-ops and
// sentinel returns instead of touching a stale slot.
//
// Copying a handle shares the id; Unregister frees the slot for every
// copy. Transferring ownership between objects is therefore just a copy.
// A callback capturing the old owner is not rebound, so the new owner
// must call SetCallback if the callback closed over state that moved
// with it.
type Timer struct {
	pool *Pool
	id   ID
}

// ID reports the handle's slot id, None when invalid.
func (t *Timer) ID() ID {
	if t == nil {
		return None
	}
	return t.id
}

// slot resolves the handle, nil when the handle or its slot is gone.
func (t *Timer) slot() *slot {
	if t == nil || t.pool == nil {
		return nil
	}
	return t.pool.lookup(t.id)
}

// Valid reports whether the handle names a currently registered slot.
func (t *Timer) Valid() bool {
	return t.slot() != nil
}

// SetInterval updates the firing interval. No-op on an invalid handle.
func (t *Timer) SetInterval(interval time.Duration) {
	if s := t.slot(); s != nil {
		s.interval = interval
	}
}

// Interval reports the configured interval, zero for an invalid handle.
func (t *Timer) Interval() time.Duration {
	if s := t.slot(); s != nil {
		return s.interval
	}
	return 0
}

// SetCallback replaces the firing callback. No-op on an invalid handle.
func (t *Timer) SetCallback(cb Callback) {
	if s := t.slot(); s != nil {
		s.callback = cb
	}
}

// Start arms the timer and rebases its elapsed time to now.
func (t *Timer) Start() {
	if s := t.slot(); s != nil {
		s.active = true
		s.elapsed.Start()
	}
}

// Stop disarms the timer, keeping its interval and callback so Start can
// re-arm it later.
func (t *Timer) Stop() {
	if s := t.slot(); s != nil {
		s.active = false
	}
}

// Running reports whether the timer is armed; false for invalid handles.
func (t *Timer) Running() bool {
	if s := t.slot(); s != nil {
		return s.active
	}
	return false
}

// Unregister returns the slot to the pool and invalidates the handle.
// Safe to call repeatedly.
func (t *Timer) Unregister() {
	if t == nil {
		return
	}
	if t.pool != nil && t.id != None {
		t.pool.free(t.id)
	}
	t.id = None
}
