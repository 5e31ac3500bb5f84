// Package kernel is the cooperative round-robin driver at the center of
// coresched.
//
// A Kernel owns a fixed array of task slots and hands out exactly one
// execution slice per Drive call, after giving the timer pool a chance to
// fire at most one expired timer. Everything is driven from a single
// goroutine calling Drive in a loop; tasks must return without blocking.
//
//	k := kernel.New(kernel.Config{MaxTasks: 8, MaxEventLoops: 4, Timers: pool})
//	blinker := kernel.NewFunc(k, func() { /* poll hardware */ })
//	defer blinker.Close()
//	for {
//		k.Drive()
//	}
package kernel
