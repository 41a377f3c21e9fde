package source

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/reyer3/faco-etl/internal/db"
	"github.com/reyer3/faco-etl/internal/model"
	"github.com/reyer3/faco-etl/internal/resilience"
)

const (
	sqlCalendar = `SELECT archivo, fecha_asignacion, fecha_cierre, fecha_trandeuda, COALESCE(dias_gestion, 0)
		FROM raw.calendario
		WHERE fecha_asignacion <= $2 AND COALESCE(fecha_cierre, DATE '9999-12-31') >= $1
		ORDER BY fecha_asignacion, archivo`

	sqlAssignments = `SELECT cuenta, cod_luna, COALESCE(telefono, ''), COALESCE(negocio, ''),
		COALESCE(tramo_gestion, ''), COALESCE(zona, ''), min_vto, COALESCE(fraccionamiento, ''), archivo
		FROM raw.asignacion
		WHERE archivo = ANY($1)
		ORDER BY archivo, cuenta`

	sqlDebtFiles = `SELECT archivo, MIN(creado_el)
		FROM raw.tran_deuda
		GROUP BY archivo
		ORDER BY archivo`

	sqlDebtSnapshots = `SELECT cod_cuenta, nro_documento, COALESCE(monto_exigible::text, '0'), archivo
		FROM raw.tran_deuda
		WHERE archivo = ANY($1)
		ORDER BY archivo, cod_cuenta, nro_documento`

	sqlBotLog = `SELECT document, date, COALESCE(management, ''), COALESCE(sub_management, ''),
		COALESCE(compromiso, ''), fecha_compromiso
		FROM raw.voicebot
		WHERE date::date BETWEEN $1 AND $2
		ORDER BY date, document`

	sqlHumanLog = `SELECT document, date, COALESCE(management, ''), COALESCE(sub_management, ''),
		COALESCE(compromiso, ''), COALESCE(nombre_agente, ''), COALESCE(monto_compromiso::text, '0'), fecha_compromiso
		FROM raw.mibotair
		WHERE date::date BETWEEN $1 AND $2
		ORDER BY date, document`

	sqlBotTaxonomy = `SELECT COALESCE(bot_management, ''), COALESCE(bot_sub_management, ''), COALESCE(bot_compromiso, ''),
		COALESCE(grupo_respuesta, ''), COALESCE(nivel_1, ''), COALESCE(nivel_2, ''), COALESCE(pdp, 0) = 1
		FROM raw.homologacion_voicebot
		ORDER BY 1, 2, 3`

	sqlHumanTaxonomy = `SELECT COALESCE(management, ''), COALESCE(grupo_respuesta, ''),
		COALESCE(n1_homologado, ''), COALESCE(n2_homologado, '')
		FROM raw.homologacion_mibotair
		ORDER BY 1`

	sqlOperators = `SELECT usuario, COALESCE(nombre_apellidos, '')
		FROM raw.usuarios
		ORDER BY usuario`

	sqlPayments = `SELECT nro_documento, fecha_pago, COALESCE(monto_cancelado::text, '0')
		FROM raw.pagos
		WHERE fecha_pago BETWEEN $1 AND $2
		ORDER BY fecha_pago, nro_documento`

	sqlTableExists = `SELECT to_regclass($1) IS NOT NULL`
)

// Postgres reads the upstream tables from a Postgres database. Reads that
// fail with a transient error are retried under the reader's policy.
type Postgres struct {
	pool  db.Pool
	log   *zap.Logger
	retry resilience.Policy
}

// Option configures a Postgres reader.
type Option func(*Postgres)

// WithRetry overrides the default retry policy for upstream reads.
func WithRetry(p resilience.Policy) Option {
	return func(r *Postgres) { r.retry = p }
}

// NewPostgres creates a reader backed by pool.
func NewPostgres(pool db.Pool, opts ...Option) *Postgres {
	p := &Postgres{
		pool:  pool,
		log:   zap.L().With(zap.String("component", "source")),
		retry: resilience.DefaultPolicy(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Calendar implements Reader.
func (p *Postgres) Calendar(ctx context.Context, rng model.DateRange) ([]model.CalendarPeriod, error) {
	return query(ctx, p, "calendar", sqlCalendar, []any{rng.Start, rng.End}, func(r pgx.Rows) (model.CalendarPeriod, error) {
		var c model.CalendarPeriod
		err := r.Scan(&c.File, &c.AssignedAt, &c.ClosedAt, &c.DebtSnapshotAt, &c.ManagementDays)
		return c, err
	})
}

// Assignments implements Reader.
func (p *Postgres) Assignments(ctx context.Context, files []string) ([]model.Assignment, error) {
	if len(files) == 0 {
		return nil, nil
	}
	return query(ctx, p, "assignments", sqlAssignments, []any{files}, func(r pgx.Rows) (model.Assignment, error) {
		var a model.Assignment
		err := r.Scan(&a.AccountID, &a.ClientID, &a.Phone, &a.Service, &a.Tranche, &a.Zone,
			&a.MinExpiry, &a.Fractionation, &a.SourceFile)
		return a, err
	})
}

// DebtFiles implements Reader.
func (p *Postgres) DebtFiles(ctx context.Context) ([]model.DebtFile, error) {
	return query(ctx, p, "debt files", sqlDebtFiles, nil, func(r pgx.Rows) (model.DebtFile, error) {
		var f model.DebtFile
		err := r.Scan(&f.Name, &f.CreatedAt)
		return f, err
	})
}

// DebtSnapshots implements Reader.
func (p *Postgres) DebtSnapshots(ctx context.Context, files []model.DebtFile) ([]model.DebtSnapshot, error) {
	if len(files) == 0 {
		return nil, nil
	}
	names := make([]string, len(files))
	dates := make(map[string]time.Time, len(files))
	for i, f := range files {
		names[i] = f.Name
		dates[f.Name] = SnapshotDate(f.Name, f.CreatedAt)
	}
	return query(ctx, p, "debt snapshots", sqlDebtSnapshots, []any{names}, func(r pgx.Rows) (model.DebtSnapshot, error) {
		var (
			d      model.DebtSnapshot
			amount string
		)
		if err := r.Scan(&d.AccountID, &d.Document, &amount, &d.SourceFile); err != nil {
			return d, err
		}
		d.SnapshotDate = dates[d.SourceFile]
		var err error
		d.Exigible, err = parseAmount(amount)
		return d, err
	})
}

// BotLog implements Reader.
func (p *Postgres) BotLog(ctx context.Context, from, to time.Time) ([]model.BotRecord, error) {
	return query(ctx, p, "bot log", sqlBotLog, []any{from, to}, func(r pgx.Rows) (model.BotRecord, error) {
		var b model.BotRecord
		err := r.Scan(&b.Document, &b.At, &b.Outcome, &b.SubOutcome, &b.Commitment, &b.PromisedDate)
		return b, err
	})
}

// HumanLog implements Reader.
func (p *Postgres) HumanLog(ctx context.Context, from, to time.Time) ([]model.HumanRecord, error) {
	return query(ctx, p, "human log", sqlHumanLog, []any{from, to}, func(r pgx.Rows) (model.HumanRecord, error) {
		var (
			h      model.HumanRecord
			amount string
		)
		if err := r.Scan(&h.Document, &h.At, &h.Outcome, &h.SubOutcome, &h.Commitment, &h.Agent,
			&amount, &h.PromisedDate); err != nil {
			return h, err
		}
		var err error
		h.PromisedAmount, err = parseAmount(amount)
		return h, err
	})
}

// BotTaxonomy implements Reader.
func (p *Postgres) BotTaxonomy(ctx context.Context) ([]model.BotTaxonomy, error) {
	return query(ctx, p, "bot taxonomy", sqlBotTaxonomy, nil, func(r pgx.Rows) (model.BotTaxonomy, error) {
		var t model.BotTaxonomy
		err := r.Scan(&t.Outcome, &t.SubOutcome, &t.Commitment, &t.Group, &t.Level1, &t.Level2, &t.PDP)
		return t, err
	})
}

// HumanTaxonomy implements Reader.
func (p *Postgres) HumanTaxonomy(ctx context.Context) ([]model.HumanTaxonomy, error) {
	return query(ctx, p, "human taxonomy", sqlHumanTaxonomy, nil, func(r pgx.Rows) (model.HumanTaxonomy, error) {
		var t model.HumanTaxonomy
		err := r.Scan(&t.Outcome, &t.Group, &t.Level1, &t.Level2)
		return t, err
	})
}

// Operators implements Reader.
func (p *Postgres) Operators(ctx context.Context) ([]model.OperatorAlias, error) {
	return query(ctx, p, "operators", sqlOperators, nil, func(r pgx.Rows) (model.OperatorAlias, error) {
		var o model.OperatorAlias
		err := r.Scan(&o.Username, &o.Name)
		return o, err
	})
}

// Payments implements Reader.
func (p *Postgres) Payments(ctx context.Context, rng model.DateRange) ([]model.Payment, error) {
	return query(ctx, p, "payments", sqlPayments, []any{rng.Start, rng.End}, func(r pgx.Rows) (model.Payment, error) {
		var (
			pm     model.Payment
			amount string
		)
		if err := r.Scan(&pm.Document, &pm.PaidAt, &amount); err != nil {
			return pm, err
		}
		var err error
		pm.Amount, err = parseAmount(amount)
		return pm, err
	})
}

// CheckTables implements Reader.
func (p *Postgres) CheckTables(ctx context.Context) error {
	var missing []string
	for _, t := range Tables() {
		var ok bool
		if err := p.pool.QueryRow(ctx, sqlTableExists, t).Scan(&ok); err != nil {
			return eris.Wrapf(err, "source: check table %s", t)
		}
		if !ok {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("source: missing upstream tables: %s", strings.Join(missing, ", "))
	}
	p.log.Debug("upstream tables present", zap.Int("tables", len(Tables())))
	return nil
}

// query runs sql and scans every row. The whole read is retried on
// transient failures, including ones surfacing mid-iteration.
func query[T any](ctx context.Context, p *Postgres, what, sql string, args []any, scan func(pgx.Rows) (T, error)) ([]T, error) {
	policy := p.retry
	if policy.OnRetry == nil {
		policy.OnRetry = resilience.RetryLogger("source", what)
	}
	return resilience.DoVal(ctx, policy, func(ctx context.Context) ([]T, error) {
		rows, err := p.pool.Query(ctx, sql, args...)
		if err != nil {
			return nil, eris.Wrapf(err, "source: query %s", what)
		}
		defer rows.Close()

		var out []T
		for rows.Next() {
			v, err := scan(rows)
			if err != nil {
				return nil, eris.Wrapf(err, "source: scan %s", what)
			}
			out = append(out, v)
		}
		if err := rows.Err(); err != nil {
			return nil, eris.Wrapf(err, "source: iterate %s", what)
		}
		return out, nil
	})
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, eris.Wrapf(err, "parse amount %q", s)
	}
	return d, nil
}
