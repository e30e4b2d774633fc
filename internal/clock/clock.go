// Package clock provides the monotonic timing primitive the render and
// virtual-clock loops pace themselves against.
package clock

import (
	"runtime"
	"time"
)

// spinThreshold is the point below which WaitUntil stops yielding full
// scheduler quanta and starts spinning instead. 2ms matches the teacher
// loops' tolerance for sub-millisecond wakeups without relying on the OS
// timer wheel.
const spinThreshold = 2 * time.Millisecond

// yieldSlice is how long WaitUntil sleeps per iteration while still more
// than spinThreshold away from the target.
const yieldSlice = 1 * time.Millisecond

// Now returns the current monotonic time point.
func Now() time.Time {
	return time.Now()
}

// WaitUntil blocks until at least target. It never returns early; it may
// return up to one scheduler quantum late. While more than spinThreshold
// remains it sleeps in 1ms slices so other goroutines/cores make progress;
// inside spinThreshold it spins on runtime.Gosched(), Go's portable
// stand-in for a CPU-friendly pause instruction.
func WaitUntil(target time.Time) {
	for {
		remaining := time.Until(target)
		if remaining <= 0 {
			return
		}
		if remaining > spinThreshold {
			time.Sleep(yieldSlice)
			continue
		}
		runtime.Gosched()
	}
}
