package export

import (
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/reyer3/faco-etl/internal/model"
)

func openSheet(t *testing.T, path, name string) *xlsx.Sheet {
	t.Helper()
	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	sheet, ok := f.Sheet[name]
	require.True(t, ok, "sheet %s missing", name)
	return sheet
}

func execRow() model.ExecutiveFact {
	rate := 0.8
	return model.ExecutiveFact{
		AssignedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Cartera: "TEMPRANA", Vencimiento: "OVERDUE",
		Service: "MOVIL", UniverseClients: 10, Exigible: decimal.RequireFromString("1000.50"),
		Target: decimal.RequireFromString("200.10"), Interactions: 30, Payments: 4,
		Recovered: decimal.RequireFromString("800.40"), RecoveryRate: &rate,
	}
}

func TestWriteExecutive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kpi.xlsx")
	require.NoError(t, WriteExecutive(path, []model.ExecutiveFact{execRow()}))

	sheet := openSheet(t, path, SheetExecutive)
	require.Len(t, sheet.Rows, 2)

	header := sheet.Rows[0].Cells
	require.Len(t, header, len(executiveColumns))
	assert.Equal(t, "fecha_asignacion", header[0].String())
	assert.Equal(t, "cumplimiento_objetivo", header[len(header)-1].String())

	row := sheet.Rows[1].Cells
	assert.Equal(t, "2025-06-01", row[0].Value)
	assert.Equal(t, "TEMPRANA", row[1].Value)
	assert.Equal(t, "10", row[4].Value)

	exigible, err := strconv.ParseFloat(row[5].Value, 64)
	require.NoError(t, err)
	assert.InDelta(t, 1000.50, exigible, 1e-9)

	// tasa_contacto_efectivo is undefined, tasa_recupero is set.
	assert.Empty(t, row[14].Value)
	recovery, err := strconv.ParseFloat(row[18].Value, 64)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, recovery, 1e-9)
}

func TestWriteExecutive_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteExecutive(path, nil))

	sheet := openSheet(t, path, SheetExecutive)
	require.Len(t, sheet.Rows, 1)
}

func TestWriteExecutive_BadPath(t *testing.T) {
	err := WriteExecutive(filepath.Join(t.TempDir(), "missing", "kpi.xlsx"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export: save")
}

func TestWriteReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	rec := []model.RecoveryFact{{
		PaidAt: time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC), AssignedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Cartera: "TEMPRANA", Channel: "HUMAN", Operator: "JOHN DOE", WithPDP: true, OnTime: true,
		Score: 1, Payments: 1, Documents: 1, Clients: 1, Amount: decimal.RequireFromString("80"),
	}}
	require.NoError(t, WriteReport(path, []model.ExecutiveFact{execRow()}, rec))

	openSheet(t, path, SheetExecutive)
	sheet := openSheet(t, path, SheetRecovery)
	require.Len(t, sheet.Rows, 2)
	row := sheet.Rows[1].Cells
	assert.Equal(t, "2025-06-12", row[0].Value)
	assert.Equal(t, "HUMAN", row[5].Value)
	assert.True(t, row[7].Bool())
	assert.False(t, row[8].Bool())
}
