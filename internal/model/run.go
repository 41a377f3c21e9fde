package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ParseDateRange parses two YYYY-MM-DD strings into a validated range.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(time.DateOnly, start)
	if err != nil {
		return DateRange{}, eris.Wrapf(err, "model: parse start date %q", start)
	}
	e, err := time.Parse(time.DateOnly, end)
	if err != nil {
		return DateRange{}, eris.Wrapf(err, "model: parse end date %q", end)
	}
	r := DateRange{Start: s, End: e}
	return r, r.Validate()
}

// Validate rejects empty or inverted ranges.
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return eris.New("model: date range requires both start and end")
	}
	if r.End.Before(r.Start) {
		return eris.Errorf("model: end date %s is before start date %s",
			r.End.Format(time.DateOnly), r.Start.Format(time.DateOnly))
	}
	return nil
}

// Contains reports whether t falls on a calendar day inside the range.
func (r DateRange) Contains(t time.Time) bool {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return !day.Before(r.Start) && !day.After(r.End)
}

// String renders the range as "start..end".
func (r DateRange) String() string {
	return r.Start.Format(time.DateOnly) + ".." + r.End.Format(time.DateOnly)
}

// RunStatus is the lifecycle state of an ETL run in the ledger.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one ledger entry for a pipeline invocation.
type Run struct {
	ID          string           `json:"id"`
	Range       DateRange        `json:"range"`
	Status      RunStatus        `json:"status"`
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt *time.Time       `json:"completed_at,omitempty"`
	Rows        map[string]int64 `json:"rows,omitempty"`
	Error       string           `json:"error,omitempty"`
}
