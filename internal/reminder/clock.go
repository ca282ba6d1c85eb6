package reminder

import "time"

// Clock supplies the current time. The sweeper takes it as an interface
// so tests can drive the lookahead window deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }
