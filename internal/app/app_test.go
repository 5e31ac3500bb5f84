package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testConfig = `
logging:
  level: error
  console: false
kernel:
  max_tasks: 4
  max_event_loops: 2
  queue_size: 8
timers:
  capacity: 4
  defs:
    - name: heartbeat
      interval: 5ms
      event: tick
drive:
  rate_per_sec: 2000
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestNewBuildsFromConfig(t *testing.T) {
	a, err := New(writeConfig(t, testConfig))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.kern.Capacity() != 6 {
		t.Fatalf("kernel capacity = %d, want 6", a.kern.Capacity())
	}
	if a.pool.Capacity() != 4 {
		t.Fatalf("pool capacity = %d, want 4", a.pool.Capacity())
	}
	// The heartbeat timer from the config is registered and armed.
	if a.pool.Registered() != 1 {
		t.Fatalf("registered timers = %d, want 1", a.pool.Registered())
	}
	tm, ok := a.timers["heartbeat"]
	if !ok || !tm.Running() {
		t.Fatal("heartbeat timer missing or not armed")
	}
	_ = a.logSvc.Close()
}

func TestStartDrivesTimersAndEvents(t *testing.T) {
	a, err := New(writeConfig(t, testConfig))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Give the drive loop a few heartbeat intervals.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if a.loop.Stats().Dispatched > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := a.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	if a.pool.Snapshot().Fired == 0 {
		t.Fatal("heartbeat timer never fired under the drive loop")
	}
	if a.loop.Stats().Dispatched == 0 {
		t.Fatal("heartbeat events never dispatched")
	}
}

func TestNewWiresFileHistory(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig + `
history:
  driver: file
  path: ` + filepath.Join(dir, "history.jsonl") + `
  flush_every: 50ms
`
	a, err := New(writeConfig(t, cfg))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if a.store == nil {
		t.Fatal("file history store not opened")
	}
	tm, ok := a.timers["history-flush"]
	if !ok || !tm.Running() {
		t.Fatal("history flush timer missing or not armed")
	}
	if err := a.store.Close(); err != nil {
		t.Fatalf("store close: %v", err)
	}
	_ = a.logSvc.Close()
}

func TestNewRejectsBrokenConfig(t *testing.T) {
	t.Parallel()
	if _, err := New(writeConfig(t, "kernel:\n  bogus: 1\n")); err == nil {
		t.Fatal("broken config accepted")
	}
}

func TestNewRejectsTimerOverflow(t *testing.T) {
	t.Parallel()
	// Two defs, capacity covers them, but the pool also backs history and
	// watchdog timers; this config makes the defs themselves overflow.
	cfg := `
timers:
  capacity: 1
  defs:
    - name: a
      interval: 1s
    - name: b
      interval: 1s
`
	if _, err := New(writeConfig(t, cfg)); err == nil {
		t.Fatal("timer overflow accepted")
	}
}
