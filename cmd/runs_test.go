package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/reyer3/faco-etl/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	done := now.Add(2 * time.Minute)
	runs := []model.Run{
		{
			ID: "abc12345-6789-0000-0000-000000000000",
			Range: model.DateRange{
				Start: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC),
			},
			Status:      model.RunStatusComplete,
			StartedAt:   now,
			CompletedAt: &done,
			Rows:        map[string]int64{"dash_universo": 12, "dash_gestiones": 40},
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			Status:    model.RunStatusRunning,
			StartedAt: now.Add(-1 * time.Hour),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "RANGE")
	assert.Contains(t, output, "STATUS")
	assert.Contains(t, output, "abc12345")
	assert.NotContains(t, output, "abc12345-6789")
	assert.Contains(t, output, "2025-06-01..2025-06-14")
	assert.Contains(t, output, "complete")
	assert.Contains(t, output, "running")
	assert.Contains(t, output, "2025-06-15 10:30")
	assert.Contains(t, output, "2m0s")
	assert.Contains(t, output, "dash_gestiones=40 dash_universo=12")
}

func TestFormatRunsList_FailedRun(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	done := now.Add(30 * time.Second)
	runs := []model.Run{
		{
			ID:          "abc12345-6789-0000-0000-000000000000",
			Status:      model.RunStatusFailed,
			StartedAt:   now,
			CompletedAt: &done,
			Error:       "pipeline: load dash_recupero: warehouse: load faco.dash_recupero: connection reset",
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "failed")
	assert.Contains(t, output, "30s")
	assert.Contains(t, output, "pipeline: load dash_recupero: warehou...")
	assert.NotContains(t, output, "connection reset")
}

func TestFormatRowCounts(t *testing.T) {
	assert.Empty(t, formatRowCounts(nil))
	assert.Equal(t, "a=1 b=0", formatRowCounts(map[string]int64{"b": 0, "a": 1}))
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789-0000-0000-000000000000"))
	assert.Equal(t, "short", truncateID("short"))
	assert.Equal(t, "", truncateID(""))
}
