package kernel

import (
	"testing"

	"coresched/pkg/assert"
)

type countTask struct{ runs int }

func (t *countTask) Run() { t.runs++ }

// silenceAsserts swaps the process-terminating default for a counter.
func silenceAsserts(t *testing.T) *int {
	t.Helper()
	calls := 0
	prev := assert.SetHandler(func(string, int, string) { calls++ })
	t.Cleanup(func() { assert.SetHandler(prev) })
	return &calls
}

func TestRoundRobinFairness(t *testing.T) {
	k := New(Config{MaxTasks: 4, MaxEventLoops: 0})
	tasks := []*countTask{{}, {}, {}}
	for _, task := range tasks {
		if !k.Register(task) {
			t.Fatalf("Register failed with free capacity")
		}
	}

	// One full cycle: every task runs exactly once, total == N.
	for i := 0; i < k.Capacity(); i++ {
		k.RunNext()
	}
	total := 0
	for i, task := range tasks {
		if task.runs != 1 {
			t.Fatalf("task %d ran %d times in one cycle, want 1", i, task.runs)
		}
		total += task.runs
	}
	if total != len(tasks) {
		t.Fatalf("total runs = %d, want %d", total, len(tasks))
	}

	// Order is registration order, stable across cycles.
	for i := 0; i < k.Capacity(); i++ {
		k.RunNext()
	}
	for i, task := range tasks {
		if task.runs != 2 {
			t.Fatalf("task %d ran %d times after two cycles, want 2", i, task.runs)
		}
	}
}

func TestRegisterIdempotent(t *testing.T) {
	k := New(Config{MaxTasks: 4})
	task := &countTask{}
	if !k.Register(task) || !k.Register(task) {
		t.Fatal("duplicate Register reported failure")
	}
	if k.Len() != 1 {
		t.Fatalf("occupancy = %d after duplicate registration, want 1", k.Len())
	}
	for i := 0; i < k.Capacity(); i++ {
		k.RunNext()
	}
	if task.runs != 1 {
		t.Fatalf("task ran %d times in one cycle, want 1", task.runs)
	}
}

func TestCapacityExhaustion(t *testing.T) {
	asserts := silenceAsserts(t)
	k := New(Config{MaxTasks: 2, MaxEventLoops: 0})
	a, b, c := &countTask{}, &countTask{}, &countTask{}
	if !k.Register(a) || !k.Register(b) {
		t.Fatal("setup registration failed")
	}
	if k.Register(c) {
		t.Fatal("Register succeeded beyond capacity")
	}
	if *asserts != 1 {
		t.Fatalf("assert hook fired %d times, want 1", *asserts)
	}
	// Survivors keep functioning.
	for i := 0; i < 2*k.Capacity(); i++ {
		k.RunNext()
	}
	if a.runs != 2 || b.runs != 2 || c.runs != 0 {
		t.Fatalf("runs = %d/%d/%d, want 2/2/0", a.runs, b.runs, c.runs)
	}
	if got := k.Snapshot().RegisterFailures; got != 1 {
		t.Fatalf("RegisterFailures = %d, want 1", got)
	}
}

func TestUnregisterUnknownIsNoop(t *testing.T) {
	k := New(Config{MaxTasks: 2})
	k.Unregister(&countTask{}) // never registered
	k.Unregister(nil)
	task := &countTask{}
	k.Register(task)
	k.Unregister(task)
	k.Unregister(task) // second remove
	if k.Len() != 0 {
		t.Fatalf("occupancy = %d, want 0", k.Len())
	}
}

func TestRunNextEmptyRegistryReturns(t *testing.T) {
	k := New(Config{MaxTasks: 3})
	// Must terminate without any occupied slot.
	for i := 0; i < 10; i++ {
		k.RunNext()
	}
	if got := k.Snapshot().SlicesRun; got != 0 {
		t.Fatalf("SlicesRun = %d on empty registry, want 0", got)
	}
}

type fakeTimers struct{ calls int }

func (f *fakeTimers) Process() { f.calls++ }

func TestDriveProcessesTimersFirst(t *testing.T) {
	timers := &fakeTimers{}
	k := New(Config{MaxTasks: 2, Timers: timers})
	task := &countTask{}
	k.Register(task)
	for i := 0; i < 5; i++ {
		k.Drive()
	}
	if timers.calls != 5 {
		t.Fatalf("timer driver ran %d times, want 5", timers.calls)
	}
	if task.runs == 0 {
		t.Fatal("task never ran under Drive")
	}
}

func TestFuncTaskLifecycle(t *testing.T) {
	k := New(Config{MaxTasks: 2})
	runs := 0
	ft := NewFunc(k, func() { runs++ })
	if k.Len() != 1 {
		t.Fatal("FuncTask did not register on construction")
	}
	k.RunNext()
	if runs != 1 {
		t.Fatalf("runs = %d, want 1", runs)
	}
	ft.Close()
	ft.Close() // idempotent
	if k.Len() != 0 {
		t.Fatal("Close did not unregister")
	}
}

func TestManualTaskStartStop(t *testing.T) {
	k := New(Config{MaxTasks: 2})
	runs := 0
	mt := NewManual(k, func() { runs++ })
	defer mt.Close()
	for i := 0; i < k.Capacity(); i++ {
		k.RunNext()
	}
	if runs != 0 {
		t.Fatal("manual task ran before Start")
	}
	if !mt.Start() {
		t.Fatal("Start failed with free capacity")
	}
	k.RunNext()
	if runs != 1 {
		t.Fatalf("runs = %d after Start, want 1", runs)
	}
	mt.Stop()
	for i := 0; i < k.Capacity(); i++ {
		k.RunNext()
	}
	if runs != 1 {
		t.Fatal("manual task ran after Stop")
	}
}

type pollDevice struct{ polls int }

func (d *pollDevice) Process() { d.polls++ }

func TestAdapter(t *testing.T) {
	k := New(Config{MaxTasks: 2})
	dev := &pollDevice{}
	a := NewAdapter(k, dev, true)
	defer a.Close()
	k.RunNext()
	if dev.polls != 1 {
		t.Fatalf("polls = %d, want 1", dev.polls)
	}

	deferred := &pollDevice{}
	b := NewAdapter(k, deferred, false)
	defer b.Close()
	for i := 0; i < k.Capacity(); i++ {
		k.RunNext()
	}
	if deferred.polls != 0 {
		t.Fatal("deferred adapter ran before Start")
	}
	if !b.Start() {
		t.Fatal("Start failed")
	}
	for i := 0; i < k.Capacity(); i++ {
		k.RunNext()
	}
	if deferred.polls != 1 {
		t.Fatalf("deferred polls = %d, want 1", deferred.polls)
	}
}

func TestFairnessAfterChurn(t *testing.T) {
	// Removing and re-adding tasks must not starve anyone: over capacity
	// calls each occupied slot still runs exactly once.
	k := New(Config{MaxTasks: 4, MaxEventLoops: 0})
	a, b, c := &countTask{}, &countTask{}, &countTask{}
	k.Register(a)
	k.Register(b)
	k.RunNext() // a runs; cursor now mid-array
	k.Unregister(a)
	k.Register(c) // takes a's slot
	for i := 0; i < k.Capacity(); i++ {
		k.RunNext()
	}
	if b.runs < 1 || c.runs < 1 {
		t.Fatalf("starved slot: b=%d c=%d", b.runs, c.runs)
	}
}
