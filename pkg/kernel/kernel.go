package kernel

import (
	"coresched/pkg/assert"
	logx "coresched/pkg/logx"
)

// Task is any unit the kernel can schedule. Run receives one execution
// slice per full round-robin pass and must return without blocking; a Run
// that stalls stalls the whole system, and the kernel cannot detect it.
//
// Identity is pointer identity: the same pointer registered twice occupies
// one slot.
type Task interface {
	Run()
}

// TimerDriver is the hook Drive uses to let the timer pool fire at most one
// expired timer per pass. Implemented by timer.Pool.
type TimerDriver interface {
	Process()
}

// Default slot capacities used when Config leaves them zero.
const (
	DefaultMaxTasks      = 8
	DefaultMaxEventLoops = 4
)

// Config sizes and wires a Kernel. Capacities are fixed for the Kernel's
// lifetime; total slot count is MaxTasks + MaxEventLoops.
type Config struct {
	MaxTasks      int
	MaxEventLoops int

	// Timers, when set, is processed first on every Drive call.
	Timers TimerDriver

	Log logx.Logger
}

// Kernel is the task registry plus the round-robin cursor. It is an
// explicit object rather than package state so hosts control its lifetime;
// a process normally has exactly one.
//
// Not safe for concurrent use: all methods are meant to be called from the
// single goroutine that owns the drive loop. Producer-side traffic enters
// through eventloop.Loop.Push, which has its own synchronization.
type Kernel struct {
	slots  []Task
	cursor int
	timers TimerDriver
	log    logx.Logger

	slices       uint64
	registerFail uint64
}

// New builds a Kernel with cfg. A zero Config gets the package defaults;
// otherwise capacities are taken as given (negatives clamp to zero).
func New(cfg Config) *Kernel {
	maxTasks := cfg.MaxTasks
	maxLoops := cfg.MaxEventLoops
	if maxTasks <= 0 && maxLoops <= 0 {
		maxTasks = DefaultMaxTasks
		maxLoops = DefaultMaxEventLoops
	}
	if maxTasks < 0 {
		maxTasks = 0
	}
	if maxLoops < 0 {
		maxLoops = 0
	}
	log := cfg.Log
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Kernel{
		slots:  make([]Task, maxTasks+maxLoops),
		timers: cfg.Timers,
		log:    log,
	}
}

// Capacity reports the fixed slot count.
func (k *Kernel) Capacity() int { return len(k.slots) }

// Len reports how many slots are currently occupied.
func (k *Kernel) Len() int {
	n := 0
	for _, s := range k.slots {
		if s != nil {
			n++
		}
	}
	return n
}

// Register claims a slot for t. Registering an already-registered task is
// idempotent and reports true. A full registry reports false, fires the
// assert hook, and leaves existing slots untouched.
func (k *Kernel) Register(t Task) bool {
	if t == nil {
		return false
	}
	free := -1
	for i, s := range k.slots {
		if s == t {
			return true
		}
		if s == nil && free < 0 {
			free = i
		}
	}
	if free < 0 {
		k.registerFail++
		k.log.Warn("task registry full", logx.Int("capacity", len(k.slots)))
		assert.Fail("kernel: task registry full; increase MaxTasks/MaxEventLoops")
		return false
	}
	k.slots[free] = t
	return true
}

// Unregister releases t's slot. Calling it for an unknown or already
// removed task is a no-op.
func (k *Kernel) Unregister(t Task) {
	if t == nil {
		return
	}
	for i, s := range k.slots {
		if s == t {
			k.slots[i] = nil
			return
		}
	}
}

// RunNext advances the round-robin cursor by exactly one slot and, when
// that slot is occupied, runs its slice. Landing on an empty slot costs the
// call nothing but a cursor step; this is what makes the fairness contract
// exact: over Capacity consecutive calls every occupied slot runs exactly
// once, in registration order, regardless of where the cursor started.
func (k *Kernel) RunNext() {
	t := k.slots[k.cursor]

	k.cursor++
	if k.cursor >= len(k.slots) {
		k.cursor = 0
	}

	if t != nil {
		k.slices++
		t.Run()
	}
}

// Drive is the single integration point for the host's main loop: it lets
// the timer pool fire at most one expired timer, then runs one task slice.
func (k *Kernel) Drive() {
	if k.timers != nil {
		k.timers.Process()
	}
	k.RunNext()
}

// Snapshot is a point-in-time diagnostics view.
type Snapshot struct {
	Capacity         int    `json:"capacity"`
	Registered       int    `json:"registered"`
	SlicesRun        uint64 `json:"slices_run"`
	RegisterFailures uint64 `json:"register_failures"`
}

// Snapshot reports occupancy and lifetime counters.
func (k *Kernel) Snapshot() Snapshot {
	return Snapshot{
		Capacity:         len(k.slots),
		Registered:       k.Len(),
		SlicesRun:        k.slices,
		RegisterFailures: k.registerFail,
	}
}
