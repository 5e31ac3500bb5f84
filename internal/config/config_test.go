package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

const yamlConfig = `
logging:
  level: debug
  console: true
kernel:
  max_tasks: 4
  max_event_loops: 2
  queue_size: 16
timers:
  capacity: 8
  defs:
    - name: heartbeat
      interval: 500ms
      event: tick
drive:
  rate_per_sec: 200
producers:
  - name: minutely
    spec: "0 * * * * *"
    event: minute
`

func TestParseYAML(t *testing.T) {
	t.Parallel()
	m := NewManager(writeFile(t, "config.yaml", yamlConfig))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Kernel.MaxTasks != 4 || cfg.Kernel.MaxEventLoops != 2 {
		t.Fatalf("kernel capacities = %d/%d, want 4/2", cfg.Kernel.MaxTasks, cfg.Kernel.MaxEventLoops)
	}
	if cfg.Timers.Capacity != 8 || len(cfg.Timers.Defs) != 1 {
		t.Fatalf("timers = %d cap, %d defs", cfg.Timers.Capacity, len(cfg.Timers.Defs))
	}
	if cfg.Drive.RatePerSec != 200 {
		t.Fatalf("rate = %d, want 200", cfg.Drive.RatePerSec)
	}
	// Defaults filled by Validate.
	if cfg.Kernel.MaxEventsPerCall != DefaultMaxEventsPerCall {
		t.Fatalf("max_events_per_call default = %d", cfg.Kernel.MaxEventsPerCall)
	}
	if cfg.History.FlushEvery != DefaultFlushEvery {
		t.Fatalf("flush_every default = %q", cfg.History.FlushEvery)
	}
	if got := m.Get(); got != cfg {
		t.Fatal("Get did not return committed config")
	}
}

func TestParseJSON(t *testing.T) {
	t.Parallel()
	m := NewManager(writeFile(t, "config.json", `{"kernel":{"max_tasks":2}}`))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Kernel.MaxTasks != 2 {
		t.Fatalf("max_tasks = %d, want 2", cfg.Kernel.MaxTasks)
	}
}

func TestParseUnrecognizedExtensionIsYAML(t *testing.T) {
	t.Parallel()
	m := NewManager(writeFile(t, "coresched.conf", "kernel:\n  max_tasks: 3\n"))
	cfg, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Kernel.MaxTasks != 3 {
		t.Fatalf("max_tasks = %d, want 3", cfg.Kernel.MaxTasks)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	t.Parallel()
	m := NewManager(writeFile(t, "config.yaml", "kernel:\n  max_taskz: 3\n"))
	if _, err := m.Parse(); err == nil {
		t.Fatal("unknown field accepted")
	}
}

func TestValidateRejections(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		yaml string
	}{
		{name: "bad interval", yaml: "timers:\n  capacity: 2\n  defs:\n    - name: a\n      interval: nope\n"},
		{name: "unnamed timer", yaml: "timers:\n  capacity: 2\n  defs:\n    - interval: 1s\n"},
		{name: "duplicate timer", yaml: "timers:\n  capacity: 3\n  defs:\n    - name: a\n      interval: 1s\n    - name: a\n      interval: 2s\n"},
		{name: "defs exceed capacity", yaml: "timers:\n  capacity: 1\n  defs:\n    - name: a\n      interval: 1s\n    - name: b\n      interval: 1s\n"},
		{name: "producer without spec", yaml: "producers:\n  - name: p\n"},
		{name: "negative rate", yaml: "drive:\n  rate_per_sec: -1\n"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := NewManager(writeFile(t, "config.yaml", tt.yaml))
			if _, err := m.Parse(); err == nil {
				t.Fatalf("config accepted: %s", tt.yaml)
			}
		})
	}
}

func TestSummarizeChange(t *testing.T) {
	t.Parallel()
	oldCfg := &Config{}
	newCfg := &Config{}
	newCfg.Logging.Level = "debug"
	newCfg.Drive.RatePerSec = 10

	changed, _ := SummarizeChange(oldCfg, newCfg)
	want := map[string]bool{"logging": true, "drive": true}
	if len(changed) != len(want) {
		t.Fatalf("changed = %v, want logging+drive", changed)
	}
	for _, s := range changed {
		if !want[s] {
			t.Fatalf("unexpected changed section %q", s)
		}
	}
	if NeedsRestart(changed) {
		t.Fatal("logging/drive changes must be hot-applicable")
	}

	newCfg.Kernel.MaxTasks = 9
	changed, _ = SummarizeChange(oldCfg, newCfg)
	if !NeedsRestart(changed) {
		t.Fatal("kernel capacity change must require restart")
	}
}

func TestParseDurationField(t *testing.T) {
	t.Parallel()
	if d, err := ParseDurationField("x", "1500ms"); err != nil || d.Milliseconds() != 1500 {
		t.Fatalf("ParseDurationField = %v/%v", d, err)
	}
	if d, err := ParseDurationField("x", ""); err != nil || d != 0 {
		t.Fatalf("empty duration = %v/%v, want 0/nil", d, err)
	}
	if _, err := ParseDurationField("x", "-5s"); err == nil {
		t.Fatal("negative duration accepted")
	}
	if _, err := ParseDurationField("x", "fast"); err == nil {
		t.Fatal("garbage duration accepted")
	}
}
