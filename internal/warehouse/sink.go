package warehouse

import (
	"context"

	"github.com/reyer3/faco-etl/internal/model"
)

// Sink is a fact-table destination. Each Replace call deletes the table's
// rows whose load date falls in the range and inserts the new rows in one
// transaction, so rerunning a range converges to the same contents.
type Sink interface {
	// Prepare ensures the fact tables exist.
	Prepare(ctx context.Context) error

	ReplaceUniverse(ctx context.Context, rng model.DateRange, rows []model.UniverseFact) (int64, error)
	ReplaceGestion(ctx context.Context, rng model.DateRange, rows []model.GestionFact) (int64, error)
	ReplaceRecovery(ctx context.Context, rng model.DateRange, rows []model.RecoveryFact) (int64, error)
	ReplaceExecutive(ctx context.Context, rng model.DateRange, rows []model.ExecutiveFact) (int64, error)

	// Read methods return rows whose fecha_asignacion falls in the range.
	ReadUniverse(ctx context.Context, rng model.DateRange) ([]model.UniverseFact, error)
	ReadGestion(ctx context.Context, rng model.DateRange) ([]model.GestionFact, error)
	ReadRecovery(ctx context.Context, rng model.DateRange) ([]model.RecoveryFact, error)
	ReadExecutive(ctx context.Context, rng model.DateRange) ([]model.ExecutiveFact, error)

	Close() error
}
