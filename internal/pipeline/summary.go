package pipeline

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/reyer3/faco-etl/internal/dimension"
	"github.com/reyer3/faco-etl/internal/model"
	"github.com/reyer3/faco-etl/internal/source"
	"github.com/reyer3/faco-etl/internal/universe"
)

// Summary is a quick look at the assignments behind a range, computed
// without touching the warehouse.
type Summary struct {
	Range     model.DateRange `json:"range"`
	Periods   int             `json:"periods"`
	Accounts  int             `json:"accounts"`
	Clients   int             `json:"clients"`
	ByCartera map[string]int  `json:"by_cartera"`
	BySegment map[string]int  `json:"by_segment"`
	ByService map[string]int  `json:"by_service"`
}

// Summarize reads the calendar and assignments for rng and counts accounts
// per cartera, segment and service.
func Summarize(ctx context.Context, r source.Reader, rng model.DateRange, rules *dimension.Rules) (*Summary, error) {
	if err := rng.Validate(); err != nil {
		return nil, eris.Wrap(err, "pipeline: invalid range")
	}
	if rules == nil {
		rules = dimension.Default()
	}

	periods, err := r.Calendar(ctx, rng)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: summary calendar")
	}
	assignments, err := r.Assignments(ctx, AssignmentFiles(periods))
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: summary assignments")
	}

	rows := universe.Build(universe.Input{Periods: periods, Assignments: assignments}, rules)

	s := &Summary{
		Range:     rng,
		Periods:   len(periods),
		Accounts:  len(rows),
		ByCartera: make(map[string]int),
		BySegment: make(map[string]int),
		ByService: make(map[string]int),
	}
	clients := make(map[int64]struct{}, len(rows))
	for _, row := range rows {
		clients[row.ClientID] = struct{}{}
		s.ByCartera[row.Cartera]++
		s.BySegment[row.Segment]++
		s.ByService[row.Service]++
	}
	s.Clients = len(clients)
	return s, nil
}
