// Package clock abstracts "now" so engine runs stay reproducible; the current
// time is always an explicit input, never read mid-computation.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Fixed is a test clock pinned to one instant.
type Fixed struct {
	At time.Time
}

func (f Fixed) Now() time.Time { return f.At }
