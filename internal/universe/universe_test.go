package universe

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reyer3/faco-etl/internal/dimension"
	"github.com/reyer3/faco-etl/internal/model"
	"github.com/reyer3/faco-etl/internal/temporal"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func fixture() Input {
	return Input{
		Periods: []model.CalendarPeriod{
			{
				File:           "Cartera_Temprana_20250601",
				AssignedAt:     day(2025, 6, 1),
				ClosedAt:       ptr(day(2025, 6, 30)),
				DebtSnapshotAt: ptr(day(2025, 6, 1)),
				ManagementDays: 30,
			},
			{
				File:           "Cartera_Cobranding_20250615",
				AssignedAt:     day(2025, 6, 15),
				ManagementDays: 16,
			},
		},
		Assignments: []model.Assignment{
			{
				AccountID: "A1", ClientID: 100, Service: "MOVIL", Tranche: "AL VCTO",
				Zone: "LIMA", MinExpiry: ptr(day(2025, 5, 27)), Fractionation: "SI",
				SourceFile: "Cartera_Temprana_20250601.txt",
			},
			{
				AccountID: "A2", ClientID: 200, SourceFile: "Cartera_Cobranding_20250615.txt",
			},
			{
				AccountID: "A3", ClientID: 300, SourceFile: "unknown_file.txt",
			},
		},
		Debts: []model.DebtSnapshot{
			{AccountID: "A1", Document: "D1", Exigible: decimal.RequireFromString("100.50"), SnapshotDate: day(2025, 6, 1)},
			{AccountID: "A1", Document: "D2", Exigible: decimal.RequireFromString("49.50"), SnapshotDate: day(2025, 6, 1)},
			{AccountID: "A1", Document: "D1", Exigible: decimal.RequireFromString("999"), SnapshotDate: day(2025, 5, 1)},
			{AccountID: "A2", Document: "D3", Exigible: decimal.RequireFromString("80"), SnapshotDate: day(2025, 6, 15)},
		},
	}
}

func TestBuild(t *testing.T) {
	t.Parallel()

	rows := Build(fixture(), dimension.Default())
	require.Len(t, rows, 2, "unmatched file is excluded")

	a1 := rows[0]
	assert.Equal(t, "A1", a1.AccountID)
	assert.Equal(t, "TEMPRANA", a1.Cartera)
	assert.InDelta(t, 0.15, a1.ObjRecupero, 1e-9)
	assert.Equal(t, dimension.Overdue, a1.Vencimiento)
	assert.Equal(t, dimension.Fraccionado, a1.Fraccionamiento)
	assert.Equal(t, "AL VCTO", a1.Segment)
	assert.True(t, decimal.RequireFromString("150").Equal(a1.Exigible), "only the period snapshot is summed")
	assert.Equal(t, day(2025, 6, 30), a1.ClosedAt)

	a2 := rows[1]
	assert.Equal(t, "COBRANDING", a2.Cartera)
	assert.InDelta(t, 0.18, a2.ObjRecupero, 1e-9)
	assert.Equal(t, model.NoService, a2.Service)
	assert.Equal(t, model.NoSegment, a2.Segment)
	assert.Equal(t, model.NoZone, a2.Zone)
	assert.Equal(t, temporal.FarPast, a2.MinExpiry)
	assert.Equal(t, dimension.NoExpiry, a2.Vencimiento)
	assert.Equal(t, dimension.NoFraccionado, a2.Fraccionamiento)
	assert.Equal(t, temporal.FarFuture, a2.ClosedAt)
	assert.True(t, decimal.RequireFromString("80").Equal(a2.Exigible), "snapshot falls back to assignment date")
}

func TestBuild_DimensionsAlwaysResolved(t *testing.T) {
	t.Parallel()

	rules := dimension.Default()
	for _, r := range Build(fixture(), rules) {
		assert.Contains(t, rules.Carteras(), r.Cartera)
		assert.Contains(t, dimension.Buckets(), r.Vencimiento)
	}
}

func TestIndex_Resolve(t *testing.T) {
	t.Parallel()

	rows := []model.UniverseRow{
		{AccountID: "A1", ClientID: 1, SourceFile: "b.txt", AssignedAt: day(2025, 6, 1), ClosedAt: day(2025, 6, 30)},
		{AccountID: "A1", ClientID: 1, SourceFile: "c.txt", AssignedAt: day(2025, 6, 15), ClosedAt: day(2025, 7, 15)},
		{AccountID: "A2", ClientID: 1, SourceFile: "a.txt", AssignedAt: day(2025, 6, 15), ClosedAt: day(2025, 7, 15)},
	}
	idx := NewIndex(rows)

	assert.Nil(t, idx.Resolve(1, day(2025, 5, 31)))
	assert.Equal(t, "b.txt", idx.Resolve(1, day(2025, 6, 10)).SourceFile)
	// latest assignment wins; same date ties break on file name
	assert.Equal(t, "a.txt", idx.Resolve(1, day(2025, 6, 20)).SourceFile)
	assert.Equal(t, "c.txt", idx.ResolveAccount("A1", day(2025, 6, 20)).SourceFile)
	assert.Nil(t, idx.Resolve(2, day(2025, 6, 20)))
	assert.Len(t, idx.Candidates("A1", day(2025, 6, 20)), 2)
	assert.Equal(t, 1, idx.Clients())
}
