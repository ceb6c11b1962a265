package domain

import "time"

// DefaultWindow spans from the first of now's month at midnight to now, in loc.
func DefaultWindow(now time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	now = now.In(loc)
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	return from, now
}
