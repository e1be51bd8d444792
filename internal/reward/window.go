package reward

import "time"

// lastBoundary returns the most recent reset boundary at or before now:
// today at resetHour:00:00 in the reference zone, or the same hour on
// the previous calendar day when now has not reached it yet. AddDate
// follows standard calendar rules, so month and year rollover behave.
func lastBoundary(now time.Time, resetHour int, loc *time.Location) time.Time {
	n := now.In(loc)
	boundary := time.Date(n.Year(), n.Month(), n.Day(), resetHour, 0, 0, 0, loc)
	if boundary.After(now) {
		boundary = boundary.AddDate(0, 0, -1)
	}
	return boundary
}

// NextBoundary returns the first reset boundary strictly after now.
func NextBoundary(now time.Time, resetHour int, loc *time.Location) time.Time {
	return lastBoundary(now, resetHour, loc).AddDate(0, 0, 1)
}

// Eligible reports whether a key whose last grant happened at last
// qualifies again at now, i.e. whether at least one reset boundary has
// elapsed since the stored grant: last < boundary <= now. A zero last
// means the key has never been granted and is always eligible.
func Eligible(last, now time.Time, resetHour int, loc *time.Location) bool {
	if last.IsZero() {
		return true
	}
	return last.Before(lastBoundary(now, resetHour, loc))
}
