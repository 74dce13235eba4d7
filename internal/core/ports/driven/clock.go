package driven

import "time"

// Clock supplies the current time; date windows and cache expiry are computed from it
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock
type SystemClock struct{}

// Now implements Clock
func (SystemClock) Now() time.Time {
	return time.Now()
}
