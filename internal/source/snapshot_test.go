package source

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotDate(t *testing.T) {
	t.Parallel()

	created := time.Date(2025, 6, 3, 14, 22, 0, 0, time.UTC)
	tests := []struct {
		name string
		file string
		want time.Time
	}{
		{"yyyymmdd", "TRAN_DEUDA_20250601.txt", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		{"tran deuda ddmm", "TRAN_DEUDA_0206.txt", time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)},
		{"tran deuda lowercase", "tran_deuda_3105_v2.txt", time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC)},
		{"ddmmyyyy", "deuda_15062025.txt", time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)},
		{"invalid calendar date falls through", "TRAN_DEUDA_3102.txt", time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)},
		{"no pattern", "deuda_final.txt", time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, SnapshotDate(tt.file, created))
		})
	}
}
