package config

import (
	"fmt"
	"strings"
	"time"
)

// ParseDurationField parses one of the config's duration strings (timer
// intervals, history.flush_every, history.busy_timeout). Empty means
// unset and parses to zero; negatives are rejected so a typo cannot back-
// date a timer.
func ParseDurationField(field, raw string) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q: %w", field, raw, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s: duration must be >= 0", field)
	}
	return d, nil
}
