package leases

import "time"

// Interval is a half-open lease date range. A nil End means the lease is
// open-ended (month-to-month with no agreed end).
type Interval struct {
	Start time.Time
	End   *time.Time
}

// Overlaps reports whether two intervals share at least one day. Open-ended
// intervals extend to infinity, so two open-ended intervals always collide.
func (a Interval) Overlaps(b Interval) bool {
	aEndsBefore := a.End != nil && !a.End.After(b.Start)
	bEndsBefore := b.End != nil && !b.End.After(a.Start)
	return !aEndsBefore && !bEndsBefore
}

// Contains reports whether the given day falls inside the interval.
func (a Interval) Contains(day time.Time) bool {
	if day.Before(a.Start) {
		return false
	}
	if a.End == nil {
		return true
	}
	return day.Before(*a.End)
}
