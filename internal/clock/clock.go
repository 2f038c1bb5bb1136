// Package clock is the time source for task timing.
package clock

import "time"

// NowFunc returns the current time; tests replace it to pin durations.
var NowFunc = time.Now

// Now returns NowFunc().
func Now() time.Time { return NowFunc() }

// SinceMs returns milliseconds elapsed since started.
func SinceMs(started time.Time) int64 {
	return Now().Sub(started).Milliseconds()
}
