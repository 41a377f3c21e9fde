package source

import (
	"regexp"
	"strconv"
	"time"

	"github.com/reyer3/faco-etl/internal/temporal"
)

var (
	reYYYYMMDD = regexp.MustCompile(`(\d{4})(\d{2})(\d{2})`)
	reTranDDMM = regexp.MustCompile(`(?i)TRAN_DEUDA_(\d{2})(\d{2})(?:\D|$)`)
	reDDMMYYYY = regexp.MustCompile(`(\d{2})(\d{2})(\d{4})`)
)

// SnapshotDate extracts the debt cut date embedded in a debt file name.
// Patterns are tried in order: YYYYMMDD, TRAN_DEUDA_DDMM (year taken from
// createdAt), DDMMYYYY. When none yields a valid date the file's creation
// date is used.
func SnapshotDate(filename string, createdAt time.Time) time.Time {
	for _, m := range reYYYYMMDD.FindAllStringSubmatch(filename, -1) {
		if d, ok := mkdate(m[1], m[2], m[3]); ok {
			return d
		}
	}
	if m := reTranDDMM.FindStringSubmatch(filename); m != nil {
		if d, ok := mkdate(strconv.Itoa(createdAt.Year()), m[2], m[1]); ok {
			return d
		}
	}
	for _, m := range reDDMMYYYY.FindAllStringSubmatch(filename, -1) {
		if d, ok := mkdate(m[3], m[2], m[1]); ok {
			return d
		}
	}
	return temporal.Date(createdAt)
}

func mkdate(ys, ms, ds string) (time.Time, bool) {
	y, err1 := strconv.Atoi(ys)
	m, err2 := strconv.Atoi(ms)
	d, err3 := strconv.Atoi(ds)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if y < 2000 || y > 2099 || m < 1 || m > 12 || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}
