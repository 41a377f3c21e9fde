// Package source reads the upstream assignment, debt, interaction, lookup
// and payment tables.
package source

import (
	"context"
	"time"

	"github.com/reyer3/faco-etl/internal/model"
)

// Reader reads upstream rows. Every method returns rows in a deterministic
// order.
type Reader interface {
	// Calendar returns the periods whose management window overlaps rng.
	Calendar(ctx context.Context, rng model.DateRange) ([]model.CalendarPeriod, error)
	// Assignments returns the accounts delivered in the given source files.
	Assignments(ctx context.Context, files []string) ([]model.Assignment, error)
	DebtFiles(ctx context.Context) ([]model.DebtFile, error)
	// DebtSnapshots returns the debt rows of the given files with their
	// snapshot date resolved.
	DebtSnapshots(ctx context.Context, files []model.DebtFile) ([]model.DebtSnapshot, error)
	BotLog(ctx context.Context, from, to time.Time) ([]model.BotRecord, error)
	HumanLog(ctx context.Context, from, to time.Time) ([]model.HumanRecord, error)
	BotTaxonomy(ctx context.Context) ([]model.BotTaxonomy, error)
	HumanTaxonomy(ctx context.Context) ([]model.HumanTaxonomy, error)
	Operators(ctx context.Context) ([]model.OperatorAlias, error)
	Payments(ctx context.Context, rng model.DateRange) ([]model.Payment, error)
	// CheckTables verifies every upstream table exists.
	CheckTables(ctx context.Context) error
}

// Upstream table identifiers.
const (
	TableCalendar      = "raw.calendario"
	TableAssignment    = "raw.asignacion"
	TableDebt          = "raw.tran_deuda"
	TableBotLog        = "raw.voicebot"
	TableHumanLog      = "raw.mibotair"
	TableBotTaxonomy   = "raw.homologacion_voicebot"
	TableHumanTaxonomy = "raw.homologacion_mibotair"
	TableOperators     = "raw.usuarios"
	TablePayments      = "raw.pagos"
)

// Tables lists every upstream table.
func Tables() []string {
	return []string{
		TableCalendar, TableAssignment, TableDebt, TableBotLog, TableHumanLog,
		TableBotTaxonomy, TableHumanTaxonomy, TableOperators, TablePayments,
	}
}
