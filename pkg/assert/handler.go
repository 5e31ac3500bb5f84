package assert

import (
	"fmt"
	"os"
	"sync"
)

// Handler receives the failing call site and a message.
// It is expected to either terminate the process or record the failure;
// the caller proceeds with its normal failure return either way.
type Handler func(file string, line int, msg string)

var (
	mu      sync.Mutex
	current Handler = defaultHandler
)

// SetHandler installs h as the active handler and returns the previous one.
// Passing nil restores the default (terminate the process).
func SetHandler(h Handler) Handler {
	mu.Lock()
	defer mu.Unlock()
	prev := current
	if h == nil {
		h = defaultHandler
	}
	current = h
	return prev
}

func handler() Handler {
	mu.Lock()
	defer mu.Unlock()
	return current
}

func defaultHandler(file string, line int, msg string) {
	fmt.Fprintf(os.Stderr, "assert: %s:%d: %s\n", file, line, msg)
	os.Exit(1)
}
