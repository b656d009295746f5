package repository

import "time"

// Clock supplies the current time for expiry comparisons. Swappable in tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}
