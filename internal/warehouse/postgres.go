package warehouse

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/reyer3/faco-etl/internal/db"
	"github.com/reyer3/faco-etl/internal/model"
)

// Postgres loads facts into the faco schema. The pool is owned by the
// caller; Close does not release it.
type Postgres struct {
	pool db.Pool
	log  *zap.Logger
}

var _ Sink = (*Postgres)(nil)

// NewPostgres creates a Postgres sink.
func NewPostgres(pool db.Pool) *Postgres {
	return &Postgres{
		pool: pool,
		log:  zap.L().With(zap.String("component", "warehouse.postgres")),
	}
}

// Prepare reports which fact tables are missing and applies pending
// migrations.
func (p *Postgres) Prepare(ctx context.Context) error {
	for _, t := range Tables() {
		var exists bool
		if err := p.pool.QueryRow(ctx, "SELECT to_regclass($1) IS NOT NULL", t.Qualified()).Scan(&exists); err != nil {
			return eris.Wrapf(err, "warehouse: check table %s", t.Qualified())
		}
		if !exists {
			p.log.Info("table does not exist yet, will be created", zap.String("table", t.Qualified()))
		}
	}
	return Migrate(ctx, p.pool)
}

// ReplaceUniverse replaces dash_universo rows assigned within rng.
func (p *Postgres) ReplaceUniverse(ctx context.Context, rng model.DateRange, rows []model.UniverseFact) (int64, error) {
	return p.replace(ctx, Universe, rng, encodeRows(Universe, rows, universeValues, encodePG))
}

// ReplaceGestion replaces dash_gestiones rows dated within rng.
func (p *Postgres) ReplaceGestion(ctx context.Context, rng model.DateRange, rows []model.GestionFact) (int64, error) {
	return p.replace(ctx, Gestion, rng, encodeRows(Gestion, rows, gestionValues, encodePG))
}

// ReplaceRecovery replaces dash_recupero rows paid within rng.
func (p *Postgres) ReplaceRecovery(ctx context.Context, rng model.DateRange, rows []model.RecoveryFact) (int64, error) {
	return p.replace(ctx, Recovery, rng, encodeRows(Recovery, rows, recoveryValues, encodePG))
}

// ReplaceExecutive replaces dash_kpi_ejecutivo rows assigned within rng.
func (p *Postgres) ReplaceExecutive(ctx context.Context, rng model.DateRange, rows []model.ExecutiveFact) (int64, error) {
	return p.replace(ctx, Executive, rng, encodeRows(Executive, rows, executiveValues, encodePG))
}

func (p *Postgres) replace(ctx context.Context, t Table, rng model.DateRange, rows [][]any) (int64, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrapf(err, "warehouse: begin %s", t.Name)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tag, err := tx.Exec(ctx, t.pgDelete, dateOnly(rng.Start), dateOnly(rng.End))
	if err != nil {
		return 0, eris.Wrapf(err, "warehouse: delete %s range %s", t.Name, rng)
	}

	n, err := db.CopyFromSchema(ctx, tx, Schema, t.Name, t.ColumnNames(), rows)
	if err != nil {
		return 0, eris.Wrapf(err, "warehouse: load %s", t.Name)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrapf(err, "warehouse: commit %s", t.Name)
	}

	p.log.Info("table replaced",
		zap.String("table", t.Name),
		zap.String("range", rng.String()),
		zap.Int64("deleted", tag.RowsAffected()),
		zap.Int64("inserted", n),
	)
	return n, nil
}

// ReadUniverse returns universe facts assigned within rng.
func (p *Postgres) ReadUniverse(ctx context.Context, rng model.DateRange) ([]model.UniverseFact, error) {
	return readPG(ctx, p.pool, Universe, rng, scanUniverse)
}

// ReadGestion returns gestión facts assigned within rng.
func (p *Postgres) ReadGestion(ctx context.Context, rng model.DateRange) ([]model.GestionFact, error) {
	return readPG(ctx, p.pool, Gestion, rng, scanGestion)
}

// ReadRecovery returns recovery facts assigned within rng.
func (p *Postgres) ReadRecovery(ctx context.Context, rng model.DateRange) ([]model.RecoveryFact, error) {
	return readPG(ctx, p.pool, Recovery, rng, scanRecovery)
}

// ReadExecutive returns executive facts assigned within rng.
func (p *Postgres) ReadExecutive(ctx context.Context, rng model.DateRange) ([]model.ExecutiveFact, error) {
	return readPG(ctx, p.pool, Executive, rng, scanExecutive)
}

// Close is a no-op.
func (p *Postgres) Close() error { return nil }

func readPG[T any](ctx context.Context, pool db.Pool, t Table, rng model.DateRange, scan func(scanner) (T, error)) ([]T, error) {
	rows, err := pool.Query(ctx, t.readSQL(true), dateOnly(rng.Start), dateOnly(rng.End))
	if err != nil {
		return nil, eris.Wrapf(err, "warehouse: read %s", t.Name)
	}
	defer rows.Close()
	return collect(rows, scan, rows.Err)
}

func collect[T any](s interface {
	scanner
	Next() bool
}, scan func(scanner) (T, error), final func() error) ([]T, error) {
	var out []T
	for s.Next() {
		v, err := scan(s)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := final(); err != nil {
		return nil, eris.Wrap(err, "warehouse: iterate rows")
	}
	return out, nil
}
