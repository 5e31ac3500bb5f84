//go:build !noassert
// +build !noassert

package assert

import (
	"path/filepath"
	"runtime"
)

// Fail reports an unconditional failure at the caller's location.
func Fail(msg string) {
	fail(2, msg)
}

// Check reports a failure when cond is false and returns cond, so call
// sites can keep their normal failure return on the same line.
func Check(cond bool, msg string) bool {
	if !cond {
		fail(2, msg)
	}
	return cond
}

func fail(skip int, msg string) {
	file := "???"
	line := 0
	if _, f, l, ok := runtime.Caller(skip); ok {
		file = filepath.Base(f)
		line = l
	}
	handler()(file, line, msg)
}
