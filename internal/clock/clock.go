package clock

import "time"

// Clock abstracts wall-clock reads so drafts and workers can be tested
// deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the system clock in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }
