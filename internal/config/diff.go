package config

import (
	"reflect"
	"strings"

	logx "coresched/pkg/logx"
)

// SummarizeChange returns a compact list of changed sections plus safe
// structured attrs for logging. The app layer uses the section list to
// decide what a hot reload can apply in place (logging, drive, burst) and
// what needs a restart (capacities, timer defs, producers).
func SummarizeChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 6)
	attrs := make([]logx.Field, 0, 12)

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logx.level", newCfg.Logging.Level),
			logx.Bool("logx.console", newCfg.Logging.Console),
			logx.Bool("logx.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	if oldCfg.Kernel != newCfg.Kernel {
		changed = append(changed, "kernel")
		attrs = append(attrs,
			logx.Int("kernel.max_tasks", newCfg.Kernel.MaxTasks),
			logx.Int("kernel.max_event_loops", newCfg.Kernel.MaxEventLoops),
			logx.Int("kernel.queue_size", newCfg.Kernel.QueueSize),
			logx.Int("kernel.max_events_per_call", newCfg.Kernel.MaxEventsPerCall),
		)
	}

	if oldCfg.Timers.Capacity != newCfg.Timers.Capacity ||
		!reflect.DeepEqual(oldCfg.Timers.Defs, newCfg.Timers.Defs) {
		changed = append(changed, "timers")
		attrs = append(attrs,
			logx.Int("timers.capacity", newCfg.Timers.Capacity),
			logx.Int("timers.defs", len(newCfg.Timers.Defs)),
		)
	}

	if oldCfg.Drive != newCfg.Drive {
		changed = append(changed, "drive")
		attrs = append(attrs,
			logx.Int("drive.rate_per_sec", newCfg.Drive.RatePerSec),
			logx.Bool("drive.watchdog", newCfg.Drive.Watchdog),
		)
	}

	if strings.TrimSpace(oldCfg.History.Driver) != strings.TrimSpace(newCfg.History.Driver) ||
		strings.TrimSpace(oldCfg.History.Path) != strings.TrimSpace(newCfg.History.Path) ||
		oldCfg.History.FlushEvery != newCfg.History.FlushEvery {
		changed = append(changed, "history")
		attrs = append(attrs,
			logx.String("history.driver", strings.TrimSpace(newCfg.History.Driver)),
			logx.Bool("history.path_set", strings.TrimSpace(newCfg.History.Path) != ""),
		)
	}

	if !reflect.DeepEqual(oldCfg.Producers, newCfg.Producers) {
		changed = append(changed, "producers")
		attrs = append(attrs, logx.Int("producers.count", len(newCfg.Producers)))
	}

	return changed, attrs
}

// NeedsRestart reports whether any changed section cannot be applied to a
// running host.
func NeedsRestart(changed []string) bool {
	for _, s := range changed {
		switch s {
		case "kernel", "timers", "producers", "history":
			return true
		}
	}
	return false
}
