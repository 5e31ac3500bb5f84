//go:build sqlite
// +build sqlite

package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	logx "coresched/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger

	opCount    atomic.Uint64
	pruneEvery uint64
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log, pruneEvery: 500}

	// Basic pragmas.
	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Append(ctx context.Context, e Entry) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots(at, tasks_registered, timers_registered, slices_run,
		   timers_fired, events_dispatched, events_discarded, register_failures)
		 VALUES(?,?,?,?,?,?,?,?)`,
		e.At.Format(time.RFC3339Nano), e.TasksRegistered, e.TimersRegistered,
		e.SlicesRun, e.TimersFired, e.EventsDispatched, e.EventsDiscarded,
		e.RegisterFailures,
	)
	if err != nil {
		return err
	}
	if s.opCount.Add(1)%s.pruneEvery == 0 {
		s.pruneOld(ctx)
	}
	return nil
}

func (s *sqliteStore) Latest(ctx context.Context) (Entry, bool, error) {
	if s == nil || s.db == nil {
		return Entry{}, false, ErrDisabled
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT at, tasks_registered, timers_registered, slices_run,
		   timers_fired, events_dispatched, events_discarded, register_failures
		 FROM snapshots ORDER BY id DESC LIMIT 1`)

	var at string
	var e Entry
	err := row.Scan(&at, &e.TasksRegistered, &e.TimersRegistered, &e.SlicesRun,
		&e.TimersFired, &e.EventsDispatched, &e.EventsDiscarded, &e.RegisterFailures)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	if ts, perr := time.Parse(time.RFC3339Nano, at); perr == nil {
		e.At = ts
	}
	return e, true, nil
}

func (s *sqliteStore) pruneOld(ctx context.Context) {
	cutoff := time.Now().Add(-pruneOlderThan).Format(time.RFC3339Nano)
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE at < ?`, cutoff); err != nil {
		s.log.Debug("history prune failed", logx.Err(err))
	}
}
