package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	logx "coresched/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none", " NONE "} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil {
			t.Fatalf("Open(%q) err = %v", driver, err)
		}
		if st != nil {
			t.Fatalf("Open(%q) returned a store for disabled history", driver)
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "postgres"}, logx.Nop()); err == nil {
		t.Fatal("unknown driver accepted")
	}
}

func TestFileDriverRequiresPath(t *testing.T) {
	t.Parallel()
	if _, err := Open(Config{Driver: "file"}, logx.Nop()); err == nil {
		t.Fatal("file driver accepted an empty path")
	}
}

func TestFileAppendAndLatest(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "history.jsonl")
	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	ctx := context.Background()

	if _, ok, err := st.Latest(ctx); err != nil || ok {
		t.Fatalf("Latest on empty store = (ok=%v, err=%v), want (false, nil)", ok, err)
	}

	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 3; i++ {
		e := Entry{
			At:        base.Add(time.Duration(i) * time.Minute),
			SlicesRun: uint64(i * 100),
		}
		if err := st.Append(ctx, e); err != nil {
			t.Fatalf("Append #%d: %v", i, err)
		}
	}

	last, ok, err := st.Latest(ctx)
	if err != nil || !ok {
		t.Fatalf("Latest = (ok=%v, err=%v), want (true, nil)", ok, err)
	}
	if last.SlicesRun != 300 || !last.At.Equal(base.Add(3*time.Minute)) {
		t.Fatalf("Latest = %+v, want the third snapshot", last)
	}
}

func TestFileSurvivesReopen(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "history.jsonl")
	ctx := context.Background()

	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := st.Append(ctx, Entry{At: time.Now(), TimersFired: 7}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	st2, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st2.Close()
	last, ok, err := st2.Latest(ctx)
	if err != nil || !ok {
		t.Fatalf("Latest after reopen = (ok=%v, err=%v), want (true, nil)", ok, err)
	}
	if last.TimersFired != 7 {
		t.Fatalf("Latest.TimersFired = %d, want 7", last.TimersFired)
	}
}

func TestFileCompactDropsExpired(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "history.jsonl")
	ctx := context.Background()

	st, err := Open(Config{Driver: "file", Path: path}, logx.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer st.Close()

	old := Entry{At: time.Now().Add(-pruneOlderThan - time.Hour), SlicesRun: 1}
	recent := Entry{At: time.Now(), SlicesRun: 2}
	if err := st.Append(ctx, old); err != nil {
		t.Fatalf("Append old: %v", err)
	}
	if err := st.Append(ctx, recent); err != nil {
		t.Fatalf("Append recent: %v", err)
	}

	fs := st.(*fileStore)
	fs.mu.Lock()
	err = fs.compactLocked()
	fs.mu.Unlock()
	if err != nil {
		t.Fatalf("compact: %v", err)
	}

	last, ok, err := st.Latest(ctx)
	if err != nil || !ok {
		t.Fatalf("Latest after compact = (ok=%v, err=%v), want (true, nil)", ok, err)
	}
	if last.SlicesRun != 2 {
		t.Fatalf("Latest.SlicesRun = %d, want the recent snapshot", last.SlicesRun)
	}

	// The expired snapshot is gone: appending nothing further, the file
	// holds exactly one line.
	if err := st.Append(ctx, Entry{At: time.Now(), SlicesRun: 3}); err != nil {
		t.Fatalf("Append after compact: %v", err)
	}
	last, _, err = st.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if last.SlicesRun != 3 {
		t.Fatalf("append handle broken after compact: Latest.SlicesRun = %d, want 3", last.SlicesRun)
	}
}
