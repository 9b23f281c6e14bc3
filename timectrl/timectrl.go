package timectrl

import (
	"time"
)

// Clock schedules deferred callbacks. Playback depends on this interface
// rather than on the time package directly so tests can drive time by hand.
type Clock interface {
	// Now returns the current time as seen by this clock.
	Now() time.Time
	// AfterFunc arranges for fn to run once after d has elapsed and returns
	// a handle that can cancel the call before it fires.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a cancellation handle for a scheduled callback.
type Timer interface {
	// Stop prevents the callback from firing. It returns false if the
	// callback already fired or was already stopped.
	Stop() bool
}

// RealClock is a Clock backed by the wall clock. Callbacks run on their own
// goroutine, exactly like time.AfterFunc.
type RealClock struct{}

// NewRealClock constructs a wall-clock Clock.
func NewRealClock() RealClock { return RealClock{} }

// Now implements Clock.
func (RealClock) Now() time.Time { return time.Now() }

// AfterFunc implements Clock.
func (RealClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
