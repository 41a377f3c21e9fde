// Package warehouse persists the fact tables. Every write replaces one
// table's rows for a date range inside a single transaction.
package warehouse

import (
	"strings"
)

// Schema holds the fact tables in Postgres.
const Schema = "faco"

type kind int

const (
	kindPlain kind = iota
	kindDate
	kindMoney
	kindNullDate
)

// Column is a fact-table column.
type Column struct {
	Name string
	kind kind
}

func plain(n string) Column { return Column{n, kindPlain} }
func date(n string) Column  { return Column{n, kindDate} }
func money(n string) Column { return Column{n, kindMoney} }

func nullDate(n string) Column { return Column{n, kindNullDate} }

// Table describes one fact table. Range deletes use DateColumn; reads for
// the executive pass filter on fecha_asignacion.
type Table struct {
	Name       string
	DateColumn string
	Columns    []Column
	// Key is the full grouping key, unique within the table.
	Key []string

	pgDelete     string
	sqliteDelete string
}

// Qualified returns schema.table.
func (t Table) Qualified() string { return Schema + "." + t.Name }

// ColumnNames returns the column names in insert order.
func (t Table) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Fact tables.
var (
	Universe = Table{
		Name:       "dash_universo",
		DateColumn: "fecha_asignacion",
		Columns: []Column{
			date("fecha_asignacion"), plain("cartera"), plain("categoria_vencimiento"), plain("servicio"),
			plain("segmento"), plain("zona"), plain("tipo_fraccionamiento"), plain("obj_recupero"),
			plain("cuentas"), plain("clientes_unicos"), money("monto_exigible"), money("monto_objetivo"),
			plain("dias_gestion"),
		},
		Key: []string{"fecha_asignacion", "cartera", "categoria_vencimiento", "servicio", "segmento",
			"zona", "tipo_fraccionamiento", "obj_recupero"},
		pgDelete:     `DELETE FROM faco.dash_universo WHERE fecha_asignacion BETWEEN $1 AND $2`,
		sqliteDelete: `DELETE FROM dash_universo WHERE fecha_asignacion BETWEEN ? AND ?`,
	}

	Gestion = Table{
		Name:       "dash_gestiones",
		DateColumn: "fecha_gestion",
		Columns: []Column{
			date("fecha_gestion"), date("fecha_asignacion"), plain("cartera"), plain("categoria_vencimiento"),
			plain("servicio"), plain("canal"), plain("operador"), plain("grupo_respuesta"),
			plain("nivel_1"), plain("nivel_2"), plain("gestiones"), plain("contactos_efectivos"),
			plain("compromisos"), money("monto_comprometido"), plain("clientes_unicos"),
			plain("clientes_efectivos"), plain("clientes_nuevos_periodo"), plain("tasa_contacto_efectivo"),
			plain("tasa_compromiso"), plain("monto_promedio_compromiso"), plain("dia_habil"),
			nullDate("fecha_comparacion"),
		},
		Key: []string{"fecha_gestion", "fecha_asignacion", "cartera", "categoria_vencimiento", "servicio",
			"canal", "operador", "grupo_respuesta", "nivel_1", "nivel_2"},
		pgDelete:     `DELETE FROM faco.dash_gestiones WHERE fecha_gestion BETWEEN $1 AND $2`,
		sqliteDelete: `DELETE FROM dash_gestiones WHERE fecha_gestion BETWEEN ? AND ?`,
	}

	Recovery = Table{
		Name:       "dash_recupero",
		DateColumn: "fecha_pago",
		Columns: []Column{
			date("fecha_pago"), date("fecha_asignacion"), plain("cartera"), plain("categoria_vencimiento"),
			plain("servicio"), plain("canal_atribuido"), plain("operador_atribuido"), plain("es_pago_con_pdp"),
			plain("pdp_estaba_vigente"), plain("pago_es_puntual"), plain("score_efectividad"),
			plain("pagos"), plain("documentos_unicos"), plain("clientes_unicos"), money("monto_pagado"),
			plain("dias_promedio_gestion_pago"),
		},
		Key: []string{"fecha_pago", "fecha_asignacion", "cartera", "categoria_vencimiento", "servicio",
			"canal_atribuido", "operador_atribuido", "es_pago_con_pdp", "pdp_estaba_vigente",
			"pago_es_puntual", "score_efectividad"},
		pgDelete:     `DELETE FROM faco.dash_recupero WHERE fecha_pago BETWEEN $1 AND $2`,
		sqliteDelete: `DELETE FROM dash_recupero WHERE fecha_pago BETWEEN ? AND ?`,
	}

	Executive = Table{
		Name:       "dash_kpi_ejecutivo",
		DateColumn: "fecha_asignacion",
		Columns: []Column{
			date("fecha_asignacion"), plain("cartera"), plain("categoria_vencimiento"), plain("servicio"),
			plain("clientes_universo"), money("monto_exigible"), money("monto_objetivo"), plain("gestiones"),
			plain("contactos_efectivos"), plain("compromisos"), money("monto_comprometido"),
			plain("clientes_contactados"), plain("pagos"), money("monto_recuperado"),
			plain("tasa_contacto_efectivo"), plain("tasa_compromiso"), plain("monto_promedio_compromiso"),
			plain("tasa_contactabilidad"), plain("tasa_recupero"), plain("cumplimiento_objetivo"),
		},
		Key:          []string{"fecha_asignacion", "cartera", "categoria_vencimiento", "servicio"},
		pgDelete:     `DELETE FROM faco.dash_kpi_ejecutivo WHERE fecha_asignacion BETWEEN $1 AND $2`,
		sqliteDelete: `DELETE FROM dash_kpi_ejecutivo WHERE fecha_asignacion BETWEEN ? AND ?`,
	}
)

// Tables lists the fact tables in load order.
func Tables() []Table { return []Table{Universe, Gestion, Recovery, Executive} }

// selectList renders the column list for reads. Postgres casts dates and
// money to text so both dialects scan the same Go types.
func (t Table) selectList(pg bool) string {
	parts := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		if pg && c.kind != kindPlain {
			parts[i] = c.Name + "::text"
			continue
		}
		parts[i] = c.Name
	}
	return strings.Join(parts, ", ")
}

// readSQL selects rows assigned within a range, ordered by the full key.
func (t Table) readSQL(pg bool) string {
	from, ph1, ph2 := t.Name, "?", "?"
	if pg {
		from, ph1, ph2 = t.Qualified(), "$1", "$2"
	}
	return "SELECT " + t.selectList(pg) + " FROM " + from +
		" WHERE fecha_asignacion BETWEEN " + ph1 + " AND " + ph2 +
		" ORDER BY " + strings.Join(t.Key, ", ")
}

// sqliteInsert is the parameterized insert used by the SQLite sink.
func (t Table) sqliteInsert() string {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)), ", ")
	return "INSERT INTO " + t.Name + " (" + strings.Join(t.ColumnNames(), ", ") + ") VALUES (" + marks + ")"
}
