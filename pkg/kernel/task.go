package kernel

// FuncTask adapts a plain func into a Task and registers it on
// construction. Close releases the slot; a second Close is harmless.
type FuncTask struct {
	k  *Kernel
	fn func()
}

// NewFunc registers fn with k and returns the owning task. Registration
// failure follows Register's contract (assert hook + unregistered task);
// the returned task is still safe to Run and Close.
func NewFunc(k *Kernel, fn func()) *FuncTask {
	t := &FuncTask{k: k, fn: fn}
	k.Register(t)
	return t
}

func (t *FuncTask) Run() {
	if t.fn != nil {
		t.fn()
	}
}

// Close unregisters the task.
func (t *FuncTask) Close() { t.k.Unregister(t) }

// ManualTask is a Task that never registers on its own: it sits idle until
// Start and leaves the schedule on Stop. Useful for transient work that
// should not run at startup.
type ManualTask struct {
	k  *Kernel
	fn func()
}

// NewManual returns an unregistered task wrapping fn.
func NewManual(k *Kernel, fn func()) *ManualTask {
	return &ManualTask{k: k, fn: fn}
}

func (t *ManualTask) Run() {
	if t.fn != nil {
		t.fn()
	}
}

// Start registers the task; false means the registry is full.
func (t *ManualTask) Start() bool { return t.k.Register(t) }

// Stop unregisters the task. Safe to call when not started.
func (t *ManualTask) Stop() { t.k.Unregister(t) }

// Close unregisters defensively, so owners can defer it regardless of
// whether Start was ever called.
func (t *ManualTask) Close() { t.k.Unregister(t) }

// Processor is anything exposing a Process poll method. Adapter turns one
// into a schedulable Task without the wrapped type knowing about the
// kernel.
type Processor interface {
	Process()
}

// Adapter bridges a Processor into the registry.
type Adapter struct {
	k *Kernel
	h Processor
}

// NewAdapter wraps h. With autoStart the adapter registers immediately
// (capacity exhaustion hits the assert hook via Register); otherwise call
// Start when ready.
func NewAdapter(k *Kernel, h Processor, autoStart bool) *Adapter {
	a := &Adapter{k: k, h: h}
	if autoStart {
		a.Start()
	}
	return a
}

func (a *Adapter) Run() {
	if a.h != nil {
		a.h.Process()
	}
}

// Start registers the adapter; false means the registry is full.
func (a *Adapter) Start() bool { return a.k.Register(a) }

// Stop unregisters the adapter.
func (a *Adapter) Stop() { a.k.Unregister(a) }

// Close unregisters defensively.
func (a *Adapter) Close() { a.k.Unregister(a) }
