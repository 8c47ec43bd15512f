package shared

import "time"

// Clock abstracts time for deterministic testing
type Clock interface {
	Now() time.Time
}

// SystemClock returns the real wall-clock time
type SystemClock struct{}

// Now returns the current time
func (SystemClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns the same instant
type FixedClock struct {
	Instant time.Time
}

// Now returns the fixed instant
func (c FixedClock) Now() time.Time {
	return c.Instant
}
