package warehouse

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/reyer3/faco-etl/internal/model"
)

// SQLite is a local fact sink used for dry runs. Dates and amounts are
// stored as text.
type SQLite struct {
	db  *sql.DB
	log *zap.Logger
}

var _ Sink = (*SQLite)(nil)

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLite{db: db, log: zap.L().With(zap.String("component", "warehouse.sqlite"))}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS dash_universo (
	fecha_asignacion      TEXT    NOT NULL,
	cartera               TEXT    NOT NULL,
	categoria_vencimiento TEXT    NOT NULL,
	servicio              TEXT    NOT NULL,
	segmento              TEXT    NOT NULL,
	zona                  TEXT    NOT NULL,
	tipo_fraccionamiento  TEXT    NOT NULL,
	obj_recupero          REAL    NOT NULL,
	cuentas               INTEGER NOT NULL,
	clientes_unicos       INTEGER NOT NULL,
	monto_exigible        TEXT    NOT NULL,
	monto_objetivo        TEXT    NOT NULL,
	dias_gestion          INTEGER NOT NULL,
	UNIQUE (fecha_asignacion, cartera, categoria_vencimiento, servicio, segmento, zona,
		tipo_fraccionamiento, obj_recupero)
);

CREATE TABLE IF NOT EXISTS dash_gestiones (
	fecha_gestion             TEXT    NOT NULL,
	fecha_asignacion          TEXT    NOT NULL,
	cartera                   TEXT    NOT NULL,
	categoria_vencimiento     TEXT    NOT NULL,
	servicio                  TEXT    NOT NULL,
	canal                     TEXT    NOT NULL,
	operador                  TEXT    NOT NULL,
	grupo_respuesta           TEXT    NOT NULL,
	nivel_1                   TEXT    NOT NULL,
	nivel_2                   TEXT    NOT NULL,
	gestiones                 INTEGER NOT NULL,
	contactos_efectivos       INTEGER NOT NULL,
	compromisos               INTEGER NOT NULL,
	monto_comprometido        TEXT    NOT NULL,
	clientes_unicos           INTEGER NOT NULL,
	clientes_efectivos        INTEGER NOT NULL,
	clientes_nuevos_periodo   INTEGER NOT NULL,
	tasa_contacto_efectivo    REAL,
	tasa_compromiso           REAL,
	monto_promedio_compromiso REAL,
	dia_habil                 INTEGER NOT NULL,
	fecha_comparacion         TEXT,
	UNIQUE (fecha_gestion, fecha_asignacion, cartera, categoria_vencimiento, servicio, canal,
		operador, grupo_respuesta, nivel_1, nivel_2)
);

CREATE TABLE IF NOT EXISTS dash_recupero (
	fecha_pago                 TEXT    NOT NULL,
	fecha_asignacion           TEXT    NOT NULL,
	cartera                    TEXT    NOT NULL,
	categoria_vencimiento      TEXT    NOT NULL,
	servicio                   TEXT    NOT NULL,
	canal_atribuido            TEXT    NOT NULL,
	operador_atribuido         TEXT    NOT NULL,
	es_pago_con_pdp            INTEGER NOT NULL,
	pdp_estaba_vigente         INTEGER NOT NULL,
	pago_es_puntual            INTEGER NOT NULL,
	score_efectividad          REAL    NOT NULL,
	pagos                      INTEGER NOT NULL,
	documentos_unicos          INTEGER NOT NULL,
	clientes_unicos            INTEGER NOT NULL,
	monto_pagado               TEXT    NOT NULL,
	dias_promedio_gestion_pago REAL,
	UNIQUE (fecha_pago, fecha_asignacion, cartera, categoria_vencimiento, servicio, canal_atribuido,
		operador_atribuido, es_pago_con_pdp, pdp_estaba_vigente, pago_es_puntual, score_efectividad)
);

CREATE TABLE IF NOT EXISTS dash_kpi_ejecutivo (
	fecha_asignacion          TEXT    NOT NULL,
	cartera                   TEXT    NOT NULL,
	categoria_vencimiento     TEXT    NOT NULL,
	servicio                  TEXT    NOT NULL,
	clientes_universo         INTEGER NOT NULL,
	monto_exigible            TEXT    NOT NULL,
	monto_objetivo            TEXT    NOT NULL,
	gestiones                 INTEGER NOT NULL,
	contactos_efectivos       INTEGER NOT NULL,
	compromisos               INTEGER NOT NULL,
	monto_comprometido        TEXT    NOT NULL,
	clientes_contactados      INTEGER NOT NULL,
	pagos                     INTEGER NOT NULL,
	monto_recuperado          TEXT    NOT NULL,
	tasa_contacto_efectivo    REAL,
	tasa_compromiso           REAL,
	monto_promedio_compromiso REAL,
	tasa_contactabilidad      REAL,
	tasa_recupero             REAL,
	cumplimiento_objetivo     REAL,
	UNIQUE (fecha_asignacion, cartera, categoria_vencimiento, servicio)
);

CREATE INDEX IF NOT EXISTS idx_dash_gestiones_asig ON dash_gestiones(fecha_asignacion);
CREATE INDEX IF NOT EXISTS idx_dash_recupero_asig ON dash_recupero(fecha_asignacion);
`

// Prepare creates the fact tables if absent.
func (s *SQLite) Prepare(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// ReplaceUniverse implements Sink.
func (s *SQLite) ReplaceUniverse(ctx context.Context, rng model.DateRange, rows []model.UniverseFact) (int64, error) {
	return s.replace(ctx, Universe, rng, encodeRows(Universe, rows, universeValues, encodeSQLite))
}

// ReplaceGestion implements Sink.
func (s *SQLite) ReplaceGestion(ctx context.Context, rng model.DateRange, rows []model.GestionFact) (int64, error) {
	return s.replace(ctx, Gestion, rng, encodeRows(Gestion, rows, gestionValues, encodeSQLite))
}

// ReplaceRecovery implements Sink.
func (s *SQLite) ReplaceRecovery(ctx context.Context, rng model.DateRange, rows []model.RecoveryFact) (int64, error) {
	return s.replace(ctx, Recovery, rng, encodeRows(Recovery, rows, recoveryValues, encodeSQLite))
}

// ReplaceExecutive implements Sink.
func (s *SQLite) ReplaceExecutive(ctx context.Context, rng model.DateRange, rows []model.ExecutiveFact) (int64, error) {
	return s.replace(ctx, Executive, rng, encodeRows(Executive, rows, executiveValues, encodeSQLite))
}

func (s *SQLite) replace(ctx context.Context, t Table, rng model.DateRange, rows [][]any) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: begin %s", t.Name)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, t.sqliteDelete,
		rng.Start.Format("2006-01-02"), rng.End.Format("2006-01-02")); err != nil {
		return 0, eris.Wrapf(err, "sqlite: delete %s range %s", t.Name, rng)
	}

	stmt, err := tx.PrepareContext(ctx, t.sqliteInsert())
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: prepare insert %s", t.Name)
	}
	defer stmt.Close()

	var n int64
	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert %s", t.Name)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrapf(err, "sqlite: commit %s", t.Name)
	}
	s.log.Info("table replaced", zap.String("table", t.Name), zap.String("range", rng.String()), zap.Int64("inserted", n))
	return n, nil
}

// ReadUniverse implements Sink.
func (s *SQLite) ReadUniverse(ctx context.Context, rng model.DateRange) ([]model.UniverseFact, error) {
	return readSQLite(ctx, s.db, Universe, rng, scanUniverse)
}

// ReadGestion implements Sink.
func (s *SQLite) ReadGestion(ctx context.Context, rng model.DateRange) ([]model.GestionFact, error) {
	return readSQLite(ctx, s.db, Gestion, rng, scanGestion)
}

// ReadRecovery implements Sink.
func (s *SQLite) ReadRecovery(ctx context.Context, rng model.DateRange) ([]model.RecoveryFact, error) {
	return readSQLite(ctx, s.db, Recovery, rng, scanRecovery)
}

// ReadExecutive implements Sink.
func (s *SQLite) ReadExecutive(ctx context.Context, rng model.DateRange) ([]model.ExecutiveFact, error) {
	return readSQLite(ctx, s.db, Executive, rng, scanExecutive)
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func readSQLite[T any](ctx context.Context, db *sql.DB, t Table, rng model.DateRange, scan func(scanner) (T, error)) ([]T, error) {
	rows, err := db.QueryContext(ctx, t.readSQL(false),
		rng.Start.Format("2006-01-02"), rng.End.Format("2006-01-02"))
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: read %s", t.Name)
	}
	defer rows.Close()
	return collect(rows, scan, rows.Err)
}
