//go:build noassert
// +build noassert

package assert

// Fail is compiled out under the noassert tag.
func Fail(msg string) { _ = msg }

// Check is compiled out under the noassert tag; it still returns cond so
// call sites behave identically, minus the handler invocation.
func Check(cond bool, msg string) bool {
	_ = msg
	return cond
}
