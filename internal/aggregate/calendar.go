package aggregate

import (
	"time"

	"github.com/reyer3/faco-etl/internal/temporal"
)

// peruHolidays are the fixed-date national holidays as MMDD.
var peruHolidays = []string{
	"0101", "0501", "0607", "0629", "0723", "0728", "0729",
	"0806", "0830", "1008", "1101", "1208", "1209", "1225",
}

// BusinessCalendar counts working days. Sundays never count; Saturdays count
// only when IncludeSaturdays is set.
type BusinessCalendar struct {
	IncludeSaturdays bool
	recurring        map[string]struct{}
	dates            map[time.Time]struct{}
}

// NewBusinessCalendar builds a calendar with the recurring national holidays
// plus any explicit extra dates.
func NewBusinessCalendar(includeSaturdays bool, extra []time.Time) *BusinessCalendar {
	c := &BusinessCalendar{
		IncludeSaturdays: includeSaturdays,
		recurring:        make(map[string]struct{}, len(peruHolidays)),
		dates:            make(map[time.Time]struct{}, len(extra)),
	}
	for _, h := range peruHolidays {
		c.recurring[h] = struct{}{}
	}
	for _, d := range extra {
		c.dates[temporal.Date(d)] = struct{}{}
	}
	return c
}

// IsHoliday reports whether d is a recurring or configured holiday.
func (c *BusinessCalendar) IsHoliday(d time.Time) bool {
	d = temporal.Date(d)
	if _, ok := c.dates[d]; ok {
		return true
	}
	_, ok := c.recurring[d.Format("0102")]
	return ok
}

// IsBusinessDay reports whether d is a working day.
func (c *BusinessCalendar) IsBusinessDay(d time.Time) bool {
	switch d.Weekday() {
	case time.Sunday:
		return false
	case time.Saturday:
		if !c.IncludeSaturdays {
			return false
		}
	}
	return !c.IsHoliday(d)
}

// BusinessDayOfMonth counts the working days from the first of d's month
// through d inclusive.
func (c *BusinessCalendar) BusinessDayOfMonth(d time.Time) int {
	d = temporal.Date(d)
	n := 0
	for cur := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC); !cur.After(d); cur = cur.AddDate(0, 0, 1) {
		if c.IsBusinessDay(cur) {
			n++
		}
	}
	return n
}

// SameBusinessDayPrevMonth returns the date holding the same business-day
// position in the previous month, clamped to that month's last working day.
// The second value is false when d falls before its month's first working
// day or the previous month has no working days.
func (c *BusinessCalendar) SameBusinessDayPrevMonth(d time.Time) (time.Time, bool) {
	pos := c.BusinessDayOfMonth(d)
	if pos == 0 {
		return time.Time{}, false
	}
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	last := first.AddDate(0, 1, -1)

	var found time.Time
	n := 0
	for cur := first; !cur.After(last); cur = cur.AddDate(0, 0, 1) {
		if !c.IsBusinessDay(cur) {
			continue
		}
		n++
		found = cur
		if n == pos {
			break
		}
	}
	return found, n > 0
}
