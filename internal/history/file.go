package history

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	logx "coresched/pkg/logx"
)

// fileStore is the dependency-free backend: one append-only JSON Lines
// file, one snapshot per line. Every compactEvery appends the file is
// rewritten in place, dropping snapshots outside the retention window.
type fileStore struct {
	log logx.Logger

	mu      sync.Mutex
	path    string
	f       *os.File
	appends int
}

const compactEvery = 1000

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("history.path is required for the file driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	return &fileStore{log: log, path: path, f: f}, nil
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

func (s *fileStore) Append(ctx context.Context, e Entry) error {
	_ = ctx
	if e.At.IsZero() {
		e.At = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return errors.New("history file closed")
	}
	if err := json.NewEncoder(s.f).Encode(e); err != nil {
		return err
	}
	s.appends++
	if s.appends%compactEvery == 0 {
		// Best-effort compact.
		if err := s.compactLocked(); err != nil {
			s.log.Debug("history compact failed", logx.Err(err))
		}
	}
	return nil
}

func (s *fileStore) Latest(ctx context.Context) (Entry, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Entry{}, false, nil
		}
		return Entry{}, false, err
	}
	defer f.Close()

	var (
		last  Entry
		found bool
	)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		e, ok := decodeLine(sc.Text())
		if !ok {
			continue
		}
		last = e
		found = true
	}
	if err := sc.Err(); err != nil {
		return Entry{}, false, err
	}
	return last, found, nil
}

// compactLocked rewrites the file keeping only snapshots inside the
// retention window, swaps it in via rename, and reopens the append handle.
func (s *fileStore) compactLocked() error {
	cutoff := time.Now().Add(-pruneOlderThan)

	src, err := os.Open(s.path)
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	dst, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		_ = src.Close()
		return err
	}

	enc := json.NewEncoder(dst)
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		e, ok := decodeLine(sc.Text())
		if !ok || e.At.Before(cutoff) {
			continue
		}
		if err := enc.Encode(e); err != nil {
			_ = src.Close()
			_ = dst.Close()
			return err
		}
	}
	scanErr := sc.Err()
	_ = src.Close()
	if scanErr != nil {
		_ = dst.Close()
		return scanErr
	}
	if err := dst.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return err
	}

	// The old append handle points at the unlinked file; reopen.
	_ = s.f.Close()
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		s.f = nil
		return err
	}
	s.f = f
	return nil
}

// decodeLine parses one JSONL snapshot, tolerating blank lines and a torn
// tail write.
func decodeLine(line string) (Entry, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Entry{}, false
	}
	var e Entry
	if err := json.Unmarshal([]byte(line), &e); err != nil {
		return Entry{}, false
	}
	return e, true
}
