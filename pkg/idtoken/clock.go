package idtoken

import "time"

// Clock abstracts the current time so token expiry checks are deterministic in tests
type Clock interface {
	Now() time.Time
}

// UTCClock is the production Clock backed by the system time
type UTCClock struct{}

// Now returns the current time in UTC
func (UTCClock) Now() time.Time {
	return time.Now().UTC()
}
