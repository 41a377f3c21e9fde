// Package pipeline runs the ETL phases for one date range: extract the
// upstream tables, build the universe, homologate gestiones, attribute
// payments, aggregate and load the fact tables.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/reyer3/faco-etl/internal/aggregate"
	"github.com/reyer3/faco-etl/internal/attribution"
	"github.com/reyer3/faco-etl/internal/dimension"
	"github.com/reyer3/faco-etl/internal/gestion"
	"github.com/reyer3/faco-etl/internal/model"
	"github.com/reyer3/faco-etl/internal/source"
	"github.com/reyer3/faco-etl/internal/temporal"
	"github.com/reyer3/faco-etl/internal/universe"
	"github.com/reyer3/faco-etl/internal/warehouse"
)

// Options configures a Pipeline. Reader and Sink are required.
type Options struct {
	Reader   source.Reader
	Sink     warehouse.Sink
	Rules    *dimension.Rules
	Calendar *aggregate.BusinessCalendar
}

// Pipeline orchestrates one run. It holds no state between runs.
type Pipeline struct {
	reader source.Reader
	sink   warehouse.Sink
	rules  *dimension.Rules
	cal    *aggregate.BusinessCalendar
}

// New creates a Pipeline, filling defaults for optional fields.
func New(opts Options) *Pipeline {
	p := &Pipeline{
		reader: opts.Reader,
		sink:   opts.Sink,
		rules:  opts.Rules,
		cal:    opts.Calendar,
	}
	if p.rules == nil {
		p.rules = dimension.Default()
	}
	if p.cal == nil {
		p.cal = aggregate.NewBusinessCalendar(false, nil)
	}
	return p
}

// PhaseResult records one phase of a run.
type PhaseResult struct {
	Name     string `json:"name"`
	Rows     int    `json:"rows"`
	Duration int64  `json:"duration_ms"`
}

// Result accumulates what a run read, dropped and wrote.
type Result struct {
	Range           model.DateRange   `json:"range"`
	ExecutiveWindow model.DateRange   `json:"executive_window"`
	Periods         int               `json:"periods"`
	UniverseRows    int               `json:"universe_rows"`
	Interactions    int               `json:"interactions"`
	OutOfWindow     int               `json:"interactions_out_of_window"`
	Gestion         gestion.Stats     `json:"gestion"`
	Attribution     attribution.Stats `json:"attribution"`
	Rows            map[string]int64  `json:"rows"`
	Phases          []PhaseResult     `json:"phases"`
	Elapsed         time.Duration     `json:"elapsed"`
}

// extract holds everything read from upstream for one run.
type extract struct {
	periods     []model.CalendarPeriod
	assignments []model.Assignment
	debts       []model.DebtSnapshot
	bot         []model.BotRecord
	human       []model.HumanRecord
	lookups     gestion.Lookups
	payments    []model.Payment
}

// Run processes rng end to end. Any read or write failure aborts the run;
// tables already replaced stay replaced.
func (p *Pipeline) Run(ctx context.Context, rng model.DateRange) (*Result, error) {
	if err := rng.Validate(); err != nil {
		return nil, eris.Wrap(err, "pipeline: invalid range")
	}
	if p.reader == nil || p.sink == nil {
		return nil, eris.New("pipeline: reader and sink are required")
	}

	start := time.Now()
	log := zap.L().With(zap.String("component", "pipeline"), zap.String("range", rng.String()))
	log.Info("pipeline: starting run")

	res := &Result{Range: rng, ExecutiveWindow: rng, Rows: make(map[string]int64)}

	var mu sync.Mutex
	track := func(name string, fn func() (int, error)) error {
		t0 := time.Now()
		n, err := fn()
		pr := PhaseResult{Name: name, Rows: n, Duration: time.Since(t0).Milliseconds()}
		if err != nil {
			log.Error("pipeline: phase failed", zap.String("phase", name),
				zap.Int64("duration_ms", pr.Duration), zap.Error(err))
			return err
		}
		log.Info("pipeline: phase complete", zap.String("phase", name),
			zap.Int("rows", n), zap.Int64("duration_ms", pr.Duration))
		mu.Lock()
		res.Phases = append(res.Phases, pr)
		mu.Unlock()
		return nil
	}

	if err := track("prepare", func() (int, error) {
		return 0, p.sink.Prepare(ctx)
	}); err != nil {
		return nil, eris.Wrap(err, "pipeline: prepare sink")
	}

	x, err := p.extract(ctx, rng, track)
	if err != nil {
		return nil, err
	}
	res.Periods = len(x.periods)
	res.ExecutiveWindow = ExecutiveWindow(rng, x.periods)

	var rows []model.UniverseRow
	if err := track("universe", func() (int, error) {
		rows = universe.Build(universe.Input{
			Periods:     x.periods,
			Assignments: x.assignments,
			Debts:       x.debts,
		}, p.rules)
		return len(rows), nil
	}); err != nil {
		return nil, eris.Wrap(err, "pipeline: build universe")
	}
	res.UniverseRows = len(rows)
	idx := universe.NewIndex(rows)

	var interactions []model.Interaction
	if err := track("unify", func() (int, error) {
		interactions, res.Gestion = gestion.Unify(x.bot, x.human, x.lookups)
		return len(interactions), nil
	}); err != nil {
		return nil, eris.Wrap(err, "pipeline: unify gestiones")
	}
	res.Interactions = len(interactions)

	var resolved []model.ResolvedInteraction
	if err := track("resolve", func() (int, error) {
		resolved, res.OutOfWindow = gestion.Resolve(interactions, idx)
		gestion.MarkFirstContacts(resolved)
		return len(resolved), nil
	}); err != nil {
		return nil, eris.Wrap(err, "pipeline: resolve gestiones")
	}

	var attributed []model.AttributedPayment
	if err := track("attribute", func() (int, error) {
		attributed, res.Attribution = attribution.New(idx, x.debts, interactions).Attribute(x.payments)
		return len(attributed), nil
	}); err != nil {
		return nil, eris.Wrap(err, "pipeline: attribute payments")
	}

	uf := aggregate.Universe(rows, rng)
	gf := aggregate.Gestion(resolved, rng, p.cal)
	rf := aggregate.Recovery(attributed)

	if err := p.load(track, res, warehouse.Universe, func() (int64, error) {
		return p.sink.ReplaceUniverse(ctx, rng, uf)
	}); err != nil {
		return nil, err
	}
	if err := p.load(track, res, warehouse.Gestion, func() (int64, error) {
		return p.sink.ReplaceGestion(ctx, rng, gf)
	}); err != nil {
		return nil, err
	}
	if err := p.load(track, res, warehouse.Recovery, func() (int64, error) {
		return p.sink.ReplaceRecovery(ctx, rng, rf)
	}); err != nil {
		return nil, err
	}

	// The executive table spans every period touched by the range, so it is
	// rebuilt from the persisted facts rather than this run's slice.
	win := res.ExecutiveWindow
	var ef []model.ExecutiveFact
	if err := track("executive", func() (int, error) {
		u, err := p.sink.ReadUniverse(ctx, win)
		if err != nil {
			return 0, err
		}
		g, err := p.sink.ReadGestion(ctx, win)
		if err != nil {
			return 0, err
		}
		r, err := p.sink.ReadRecovery(ctx, win)
		if err != nil {
			return 0, err
		}
		ef = aggregate.Executive(u, g, r)
		return len(ef), nil
	}); err != nil {
		return nil, eris.Wrap(err, "pipeline: read facts for executive window")
	}
	if err := p.load(track, res, warehouse.Executive, func() (int64, error) {
		return p.sink.ReplaceExecutive(ctx, win, ef)
	}); err != nil {
		return nil, err
	}

	res.Elapsed = time.Since(start)
	log.Info("pipeline: run complete",
		zap.Int("universe_rows", res.UniverseRows),
		zap.Int("interactions", res.Interactions),
		zap.Int("payments_attributed", res.Attribution.Attributed),
		zap.Any("rows", res.Rows),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

func (p *Pipeline) load(track func(string, func() (int, error)) error, res *Result, t warehouse.Table, fn func() (int64, error)) error {
	err := track("load_"+t.Name, func() (int, error) {
		n, err := fn()
		if err != nil {
			return 0, err
		}
		res.Rows[t.Name] = n
		return int(n), nil
	})
	return eris.Wrapf(err, "pipeline: load %s", t.Name)
}

// extract reads every upstream table the run needs. The calendar is read
// first since it scopes the other reads; the rest run concurrently.
func (p *Pipeline) extract(ctx context.Context, rng model.DateRange, track func(string, func() (int, error)) error) (*extract, error) {
	x := &extract{}

	if err := track("extract_calendar", func() (int, error) {
		var err error
		x.periods, err = p.reader.Calendar(ctx, rng)
		return len(x.periods), err
	}); err != nil {
		return nil, eris.Wrap(err, "pipeline: extract calendar")
	}

	// Interactions before the range still matter for first-contact flags
	// and for crediting payments, so logs are read from the earliest
	// overlapping assignment.
	from := ExecutiveWindow(rng, x.periods).Start

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return track("extract_accounts", func() (int, error) {
			var err error
			x.assignments, err = p.reader.Assignments(gCtx, AssignmentFiles(x.periods))
			if err != nil {
				return 0, err
			}
			files, err := p.reader.DebtFiles(gCtx)
			if err != nil {
				return 0, err
			}
			x.debts, err = p.reader.DebtSnapshots(gCtx, DebtFilesFor(files, x.periods))
			if err != nil {
				return 0, err
			}
			x.payments, err = p.reader.Payments(gCtx, rng)
			return len(x.assignments) + len(x.debts) + len(x.payments), err
		})
	})

	g.Go(func() error {
		return track("extract_bot_log", func() (int, error) {
			var err error
			x.bot, err = p.reader.BotLog(gCtx, from, rng.End)
			return len(x.bot), err
		})
	})

	g.Go(func() error {
		return track("extract_human_log", func() (int, error) {
			var err error
			x.human, err = p.reader.HumanLog(gCtx, from, rng.End)
			return len(x.human), err
		})
	})

	g.Go(func() error {
		return track("extract_lookups", func() (int, error) {
			var err error
			if x.lookups.Bot, err = p.reader.BotTaxonomy(gCtx); err != nil {
				return 0, err
			}
			if x.lookups.Human, err = p.reader.HumanTaxonomy(gCtx); err != nil {
				return 0, err
			}
			x.lookups.Operators, err = p.reader.Operators(gCtx)
			return len(x.lookups.Bot) + len(x.lookups.Human) + len(x.lookups.Operators), err
		})
	})

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "pipeline: extract")
	}
	return x, nil
}

// AssignmentFiles returns the assignment source file names of the periods.
func AssignmentFiles(periods []model.CalendarPeriod) []string {
	seen := make(map[string]struct{}, len(periods))
	out := make([]string, 0, len(periods))
	for _, pr := range periods {
		f := pr.File + universe.FileSuffix
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// DebtFilesFor keeps the debt files whose snapshot date is the debt
// snapshot date of some period. Periods without one use their assignment
// date.
func DebtFilesFor(files []model.DebtFile, periods []model.CalendarPeriod) []model.DebtFile {
	want := make(map[time.Time]struct{}, len(periods))
	for _, pr := range periods {
		d := pr.AssignedAt
		if pr.DebtSnapshotAt != nil {
			d = *pr.DebtSnapshotAt
		}
		want[temporal.Date(d)] = struct{}{}
	}
	var out []model.DebtFile
	for _, f := range files {
		if _, ok := want[source.SnapshotDate(f.Name, f.CreatedAt)]; ok {
			out = append(out, f)
		}
	}
	return out
}

// ExecutiveWindow spans from the earliest assignment date among periods
// through the end of rng. With no earlier period it is rng itself.
func ExecutiveWindow(rng model.DateRange, periods []model.CalendarPeriod) model.DateRange {
	w := rng
	for _, pr := range periods {
		if d := temporal.Date(pr.AssignedAt); d.Before(w.Start) {
			w.Start = d
		}
	}
	return w
}
