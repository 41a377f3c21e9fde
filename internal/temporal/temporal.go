// Package temporal decides whether a date falls inside an account's
// management window.
package temporal

import "time"

var (
	// FarPast stands in for a missing expiry date.
	FarPast = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	// FarFuture stands in for a period that has not been closed.
	FarFuture = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
)

// Date truncates t to its calendar date in UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	return int(Date(b).Sub(Date(a)).Hours() / 24)
}

// AddDays shifts a calendar date by n days.
func AddDays(t time.Time, n int) time.Time {
	return Date(t).AddDate(0, 0, n)
}

// OrFarPast returns the date of t, or FarPast when t is nil.
func OrFarPast(t *time.Time) time.Time {
	if t == nil || t.IsZero() {
		return FarPast
	}
	return Date(*t)
}

// OrFarFuture returns the date of t, or FarFuture when t is nil.
func OrFarFuture(t *time.Time) time.Time {
	if t == nil || t.IsZero() {
		return FarFuture
	}
	return Date(*t)
}

// Window is an inclusive management window at calendar-day granularity.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow builds the window opened by an assignment. A nil closure leaves
// the window open-ended.
func NewWindow(assigned time.Time, closed *time.Time) Window {
	return Window{Start: Date(assigned), End: OrFarFuture(closed)}
}

// Contains reports whether the calendar date of t lies within the window,
// both ends inclusive.
func (w Window) Contains(t time.Time) bool {
	d := Date(t)
	return !d.Before(w.Start) && !d.After(w.End)
}
