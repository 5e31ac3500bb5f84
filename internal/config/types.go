package config

import (
	"errors"
	"fmt"
	"strings"
)

// Config is the host daemon's configuration. The file may be JSON or YAML;
// either way it is decoded strictly (unknown fields are rejected).
type Config struct {
	Logging   LoggingConfig    `json:"logging"`
	Kernel    KernelConfig     `json:"kernel"`
	Timers    TimersConfig     `json:"timers"`
	Drive     DriveConfig      `json:"drive"`
	History   HistoryConfig    `json:"history"`
	Producers []ProducerConfig `json:"producers"`
}

type LoggingConfig struct {
	Level   string     `json:"level"`
	Console bool       `json:"console"`
	File    FileConfig `json:"file"`
}

type FileConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// KernelConfig sizes the task registry and the host's event loop.
type KernelConfig struct {
	MaxTasks      int `json:"max_tasks"`
	MaxEventLoops int `json:"max_event_loops"`

	// QueueSize is the event loop queue capacity.
	QueueSize int `json:"queue_size"`

	// MaxEventsPerCall is the loop's per-slice dispatch burst.
	MaxEventsPerCall int `json:"max_events_per_call"`
}

// TimersConfig sizes the timer pool and declares static timers armed at
// startup.
type TimersConfig struct {
	Capacity int        `json:"capacity"`
	Defs     []TimerDef `json:"defs"`
}

// TimerDef is a declaratively configured timer: every Interval it pushes
// Event into the host event loop (overwriting the oldest buffered event
// when full). SingleShot timers fire once and free their slot.
type TimerDef struct {
	Name       string `json:"name"`
	Interval   string `json:"interval"`
	SingleShot bool   `json:"single_shot"`
	Event      string `json:"event"`
}

// DriveConfig paces the main loop.
type DriveConfig struct {
	// RatePerSec caps Drive passes per second. 0 uses the default.
	RatePerSec int `json:"rate_per_sec"`

	// Watchdog enables systemd readiness + watchdog notifications.
	Watchdog bool `json:"watchdog"`
}

// HistoryConfig controls the run-statistics store.
type HistoryConfig struct {
	// Driver: "", "none" (disabled), "file" (JSON Lines) or "sqlite"
	// (requires -tags sqlite).
	Driver string `json:"driver"`
	Path   string `json:"path"`

	// FlushEvery is how often a snapshot row is appended (duration string).
	FlushEvery string `json:"flush_every"`

	// BusyTimeout for sqlite (duration string); empty means default.
	BusyTimeout string `json:"busy_timeout"`
}

// ProducerConfig is a cron-triggered event producer: on every trigger it
// pushes Event into the host event loop from outside the drive goroutine.
type ProducerConfig struct {
	Name string `json:"name"`
	// Spec is a cron expression; a leading seconds field is allowed.
	Spec  string `json:"spec"`
	Event string `json:"event"`
}

// Defaults applied by Validate when fields are zero.
const (
	DefaultQueueSize        = 32
	DefaultMaxEventsPerCall = 10
	DefaultRatePerSec       = 1000
	DefaultFlushEvery       = "10s"
)

// Validate checks invariants and fills defaults in place.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Kernel.MaxTasks < 0 || c.Kernel.MaxEventLoops < 0 {
		return errors.New("kernel: capacities must be >= 0")
	}
	if c.Kernel.QueueSize <= 0 {
		c.Kernel.QueueSize = DefaultQueueSize
	}
	if c.Kernel.MaxEventsPerCall <= 0 {
		c.Kernel.MaxEventsPerCall = DefaultMaxEventsPerCall
	}
	if c.Timers.Capacity < 0 {
		return errors.New("timers: capacity must be >= 0")
	}
	if len(c.Timers.Defs) > c.Timers.Capacity && c.Timers.Capacity > 0 {
		return fmt.Errorf("timers: %d defs exceed pool capacity %d", len(c.Timers.Defs), c.Timers.Capacity)
	}
	seen := map[string]bool{}
	for i := range c.Timers.Defs {
		d := &c.Timers.Defs[i]
		if strings.TrimSpace(d.Name) == "" {
			return fmt.Errorf("timers.defs[%d]: name is required", i)
		}
		if seen[d.Name] {
			return fmt.Errorf("timers.defs[%d]: duplicate name %q", i, d.Name)
		}
		seen[d.Name] = true
		if _, err := ParseDurationField(fmt.Sprintf("timers.defs[%d].interval", i), d.Interval); err != nil {
			return err
		}
	}
	if c.Drive.RatePerSec < 0 {
		return errors.New("drive: rate_per_sec must be >= 0")
	}
	if c.Drive.RatePerSec == 0 {
		c.Drive.RatePerSec = DefaultRatePerSec
	}
	if strings.TrimSpace(c.History.FlushEvery) == "" {
		c.History.FlushEvery = DefaultFlushEvery
	}
	if _, err := ParseDurationField("history.flush_every", c.History.FlushEvery); err != nil {
		return err
	}
	if _, err := ParseDurationField("history.busy_timeout", c.History.BusyTimeout); err != nil {
		return err
	}
	for i := range c.Producers {
		p := &c.Producers[i]
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("producers[%d]: name is required", i)
		}
		if strings.TrimSpace(p.Spec) == "" {
			return fmt.Errorf("producers[%d]: spec is required", i)
		}
	}
	return nil
}
