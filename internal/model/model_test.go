package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStatusValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status RunStatus
		want   string
	}{
		{RunStatusRunning, "running"},
		{RunStatusComplete, "complete"},
		{RunStatusFailed, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, string(tt.status))
		})
	}
}

func TestParseDateRange(t *testing.T) {
	t.Parallel()

	r, err := ParseDateRange("2025-06-01", "2025-06-30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), r.Start)
	assert.Equal(t, time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), r.End)
	assert.Equal(t, "2025-06-01..2025-06-30", r.String())
}

func TestParseDateRange_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		start, end string
	}{
		{"bad start", "2025/06/01", "2025-06-30"},
		{"bad end", "2025-06-01", "junio"},
		{"inverted", "2025-06-30", "2025-06-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseDateRange(tt.start, tt.end)
			assert.Error(t, err)
		})
	}
}

func TestDateRange_SingleDayValid(t *testing.T) {
	t.Parallel()

	r, err := ParseDateRange("2025-06-15", "2025-06-15")
	require.NoError(t, err)
	assert.True(t, r.Contains(time.Date(2025, 6, 15, 23, 59, 0, 0, time.UTC)))
}

func TestDateRange_Validate_Empty(t *testing.T) {
	t.Parallel()
	assert.Error(t, DateRange{}.Validate())
}

func TestDateRange_Contains(t *testing.T) {
	t.Parallel()

	r := DateRange{
		Start: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
	}
	assert.True(t, r.Contains(time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)))
	assert.True(t, r.Contains(time.Date(2025, 6, 30, 18, 30, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2025, 5, 31, 23, 0, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)))
}
