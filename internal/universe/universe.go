// Package universe builds the set of assigned account-periods with their
// derived business dimensions.
package universe

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/reyer3/faco-etl/internal/dimension"
	"github.com/reyer3/faco-etl/internal/model"
	"github.com/reyer3/faco-etl/internal/temporal"
)

// FileSuffix is the extension carried by assignment source files but not by
// calendar file identifiers.
const FileSuffix = ".txt"

// Input bundles the upstream rows the universe is built from.
type Input struct {
	Periods     []model.CalendarPeriod
	Assignments []model.Assignment
	Debts       []model.DebtSnapshot
}

// Build joins assignments to their calendar period and derives dimensions.
// Assignments whose file has no calendar row are excluded. Expiry buckets
// are measured against the period's debt snapshot date, so every run over a
// period assigns an account the same bucket.
func Build(in Input, rules *dimension.Rules) []model.UniverseRow {
	periods := make(map[string]model.CalendarPeriod, len(in.Periods))
	for _, p := range in.Periods {
		periods[strings.TrimSpace(p.File)+FileSuffix] = p
	}

	exigible := sumDebts(in.Debts)

	rows := make([]model.UniverseRow, 0, len(in.Assignments))
	for _, a := range in.Assignments {
		p, ok := periods[strings.TrimSpace(a.SourceFile)]
		if !ok {
			continue
		}
		snapshot := snapshotDate(p)
		rows = append(rows, model.UniverseRow{
			AccountID:       strings.TrimSpace(a.AccountID),
			ClientID:        a.ClientID,
			Phone:           strings.TrimSpace(a.Phone),
			Service:         orDefault(a.Service, model.NoService),
			Segment:         orDefault(a.Tranche, model.NoSegment),
			Zone:            orDefault(a.Zone, model.NoZone),
			MinExpiry:       temporal.OrFarPast(a.MinExpiry),
			SourceFile:      a.SourceFile,
			AssignedAt:      temporal.Date(p.AssignedAt),
			ClosedAt:        temporal.OrFarFuture(p.ClosedAt),
			DebtSnapshotAt:  snapshot,
			ManagementDays:  p.ManagementDays,
			Cartera:         rules.Cartera(a.SourceFile),
			ObjRecupero:     rules.ObjRecupero(a.Tranche, a.SourceFile),
			Vencimiento:     dimension.ExpiryBucket(a.MinExpiry, snapshot),
			Fraccionamiento: rules.Fraccionamiento(a.Fractionation),
			Exigible:        exigible[debtKey{strings.TrimSpace(a.AccountID), snapshot}],
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.AssignedAt.Equal(b.AssignedAt) {
			return a.AssignedAt.Before(b.AssignedAt)
		}
		if a.SourceFile != b.SourceFile {
			return a.SourceFile < b.SourceFile
		}
		return a.AccountID < b.AccountID
	})
	return rows
}

// Window returns the management window of a universe row.
func Window(r *model.UniverseRow) temporal.Window {
	return temporal.Window{Start: r.AssignedAt, End: r.ClosedAt}
}

// Outranks reports whether a is preferred over b when both own the same
// client or account: later assignment first, then file and account
// ascending.
func Outranks(a, b *model.UniverseRow) bool {
	if !a.AssignedAt.Equal(b.AssignedAt) {
		return a.AssignedAt.After(b.AssignedAt)
	}
	if a.SourceFile != b.SourceFile {
		return a.SourceFile < b.SourceFile
	}
	return a.AccountID < b.AccountID
}

type debtKey struct {
	account string
	date    time.Time
}

func sumDebts(debts []model.DebtSnapshot) map[debtKey]decimal.Decimal {
	out := make(map[debtKey]decimal.Decimal)
	for _, d := range debts {
		k := debtKey{strings.TrimSpace(d.AccountID), temporal.Date(d.SnapshotDate)}
		out[k] = out[k].Add(d.Exigible)
	}
	return out
}

// snapshotDate is the debt cut used for a period; periods without one use
// their assignment date.
func snapshotDate(p model.CalendarPeriod) time.Time {
	if p.DebtSnapshotAt != nil && !p.DebtSnapshotAt.IsZero() {
		return temporal.Date(*p.DebtSnapshotAt)
	}
	return temporal.Date(p.AssignedAt)
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}
