// Package history persists periodic run-statistics snapshots of the
// scheduling core (slices run, timers fired, events dispatched/discarded)
// so operators can see drift and drop rates across restarts.
//
// The default backend appends JSON Lines to a plain file; the sqlite
// backend is optional, build with -tags sqlite.
package history
