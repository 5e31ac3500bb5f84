package history

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("history disabled")

// Snapshots older than this are pruned opportunistically by every backend.
const pruneOlderThan = 30 * 24 * time.Hour

// Config configures the history store.
//
// Driver values:
//   - "file": append-only JSON Lines file (no extra dependencies)
//   - "sqlite": SQLite database file (requires the sqlite build tag)
//
// If Driver is empty or "none", history is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Entry is one run-statistics snapshot. Counters are lifetime totals;
// consumers diff consecutive rows for rates. Keep it compact and
// schema-stable.
type Entry struct {
	At time.Time

	TasksRegistered  int
	TimersRegistered int

	SlicesRun        uint64
	TimersFired      uint64
	EventsDispatched uint64
	EventsDiscarded  uint64
	RegisterFailures uint64
}
