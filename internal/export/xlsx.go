// Package export writes fact rows to XLSX workbooks.
package export

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v2"

	"github.com/reyer3/faco-etl/internal/model"
)

const moneyFormat = "#,##0.00"

// Sheet names.
const (
	SheetExecutive = "kpi_ejecutivo"
	SheetRecovery  = "recupero"
)

type column[T any] struct {
	name  string
	write func(*xlsx.Cell, *T)
}

func text[T any](name string, get func(*T) string) column[T] {
	return column[T]{name, func(c *xlsx.Cell, r *T) { c.SetString(get(r)) }}
}

func day[T any](name string, get func(*T) time.Time) column[T] {
	return column[T]{name, func(c *xlsx.Cell, r *T) { c.SetString(get(r).Format(time.DateOnly)) }}
}

func count[T any](name string, get func(*T) int64) column[T] {
	return column[T]{name, func(c *xlsx.Cell, r *T) { c.SetInt64(get(r)) }}
}

func money[T any](name string, get func(*T) decimal.Decimal) column[T] {
	return column[T]{name, func(c *xlsx.Cell, r *T) {
		c.SetFloatWithFormat(get(r).InexactFloat64(), moneyFormat)
	}}
}

// ratio leaves the cell empty when the ratio is undefined.
func ratio[T any](name string, get func(*T) *float64) column[T] {
	return column[T]{name, func(c *xlsx.Cell, r *T) {
		if v := get(r); v != nil {
			c.SetFloat(*v)
		}
	}}
}

func flag[T any](name string, get func(*T) bool) column[T] {
	return column[T]{name, func(c *xlsx.Cell, r *T) { c.SetBool(get(r)) }}
}

func number[T any](name string, get func(*T) float64) column[T] {
	return column[T]{name, func(c *xlsx.Cell, r *T) { c.SetFloat(get(r)) }}
}

var executiveColumns = []column[model.ExecutiveFact]{
	day("fecha_asignacion", func(r *model.ExecutiveFact) time.Time { return r.AssignedAt }),
	text("cartera", func(r *model.ExecutiveFact) string { return r.Cartera }),
	text("categoria_vencimiento", func(r *model.ExecutiveFact) string { return r.Vencimiento }),
	text("servicio", func(r *model.ExecutiveFact) string { return r.Service }),
	count("clientes_universo", func(r *model.ExecutiveFact) int64 { return r.UniverseClients }),
	money("monto_exigible", func(r *model.ExecutiveFact) decimal.Decimal { return r.Exigible }),
	money("monto_objetivo", func(r *model.ExecutiveFact) decimal.Decimal { return r.Target }),
	count("gestiones", func(r *model.ExecutiveFact) int64 { return r.Interactions }),
	count("contactos_efectivos", func(r *model.ExecutiveFact) int64 { return r.EffectiveContacts }),
	count("compromisos", func(r *model.ExecutiveFact) int64 { return r.Commitments }),
	money("monto_comprometido", func(r *model.ExecutiveFact) decimal.Decimal { return r.CommittedAmount }),
	count("clientes_contactados", func(r *model.ExecutiveFact) int64 { return r.ContactedClients }),
	count("pagos", func(r *model.ExecutiveFact) int64 { return r.Payments }),
	money("monto_recuperado", func(r *model.ExecutiveFact) decimal.Decimal { return r.Recovered }),
	ratio("tasa_contacto_efectivo", func(r *model.ExecutiveFact) *float64 { return r.EffectiveRate }),
	ratio("tasa_compromiso", func(r *model.ExecutiveFact) *float64 { return r.CommitmentRate }),
	ratio("monto_promedio_compromiso", func(r *model.ExecutiveFact) *float64 { return r.AvgCommitment }),
	ratio("tasa_contactabilidad", func(r *model.ExecutiveFact) *float64 { return r.Contactability }),
	ratio("tasa_recupero", func(r *model.ExecutiveFact) *float64 { return r.RecoveryRate }),
	ratio("cumplimiento_objetivo", func(r *model.ExecutiveFact) *float64 { return r.Attainment }),
}

var recoveryColumns = []column[model.RecoveryFact]{
	day("fecha_pago", func(r *model.RecoveryFact) time.Time { return r.PaidAt }),
	day("fecha_asignacion", func(r *model.RecoveryFact) time.Time { return r.AssignedAt }),
	text("cartera", func(r *model.RecoveryFact) string { return r.Cartera }),
	text("categoria_vencimiento", func(r *model.RecoveryFact) string { return r.Vencimiento }),
	text("servicio", func(r *model.RecoveryFact) string { return r.Service }),
	text("canal_atribuido", func(r *model.RecoveryFact) string { return r.Channel }),
	text("operador_atribuido", func(r *model.RecoveryFact) string { return r.Operator }),
	flag("es_pago_con_pdp", func(r *model.RecoveryFact) bool { return r.WithPDP }),
	flag("pdp_estaba_vigente", func(r *model.RecoveryFact) bool { return r.PDPActive }),
	flag("pago_es_puntual", func(r *model.RecoveryFact) bool { return r.OnTime }),
	number("score_efectividad", func(r *model.RecoveryFact) float64 { return r.Score }),
	count("pagos", func(r *model.RecoveryFact) int64 { return r.Payments }),
	count("documentos_unicos", func(r *model.RecoveryFact) int64 { return r.Documents }),
	count("clientes_unicos", func(r *model.RecoveryFact) int64 { return r.Clients }),
	money("monto_pagado", func(r *model.RecoveryFact) decimal.Decimal { return r.Amount }),
	ratio("dias_promedio_gestion_pago", func(r *model.RecoveryFact) *float64 { return r.AvgDaysToPay }),
}

func addSheet[T any](f *xlsx.File, name string, cols []column[T], rows []T) error {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "export: add sheet %s", name)
	}
	header := sheet.AddRow()
	for _, c := range cols {
		header.AddCell().SetString(c.name)
	}
	for i := range rows {
		row := sheet.AddRow()
		for _, c := range cols {
			c.write(row.AddCell(), &rows[i])
		}
	}
	return nil
}

// WriteExecutive writes executive KPI rows to a single-sheet workbook.
func WriteExecutive(path string, rows []model.ExecutiveFact) error {
	f := xlsx.NewFile()
	if err := addSheet(f, SheetExecutive, executiveColumns, rows); err != nil {
		return err
	}
	return eris.Wrapf(f.Save(path), "export: save %s", path)
}

// WriteReport writes executive and recovery rows to one workbook, one sheet
// each.
func WriteReport(path string, exec []model.ExecutiveFact, rec []model.RecoveryFact) error {
	f := xlsx.NewFile()
	if err := addSheet(f, SheetExecutive, executiveColumns, exec); err != nil {
		return err
	}
	if err := addSheet(f, SheetRecovery, recoveryColumns, rec); err != nil {
		return err
	}
	return eris.Wrapf(f.Save(path), "export: save %s", path)
}
