package engine

import "time"

// Clock abstracts "now" so session classification and sweep-date
// computation are deterministic under test. The engine reads the clock
// only when a request carries no timestamp of its own; transports that
// stamp events (or tests injecting instants) bypass it entirely.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the local wall clock. All date and time-of-day
// handling in the engine assumes this single implicit local zone.
type SystemClock struct{}

// Now returns the current local time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
