package history

import (
	"context"
	"errors"
	"strings"

	logx "coresched/pkg/logx"
)

// Store is the minimal persistence API the app layer uses.
type Store interface {
	Append(ctx context.Context, e Entry) error
	Latest(ctx context.Context) (Entry, bool, error)
	Close() error
}

// Open initializes the configured store.
// It returns (nil, nil) if history is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file", "jsonl":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown history driver: " + driver)
	}
}
