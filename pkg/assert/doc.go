// Package assert is the loud failure channel for capacity bugs.
//
// Fallible core operations (registry full, timer pool full) always report
// failure through their return value; on top of that they call assert.Fail
// so a misconfigured pool size is caught during development instead of
// silently degrading. The handler decides severity: the default terminates
// the process, a test harness swaps it out with SetHandler, and building
// with -tags noassert compiles every call down to a no-op.
package assert
