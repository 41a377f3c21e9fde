package warehouse

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/reyer3/faco-etl/internal/db"
	"github.com/reyer3/faco-etl/internal/model"
)

// RunLog provides read/write access to the faco.etl_runs ledger.
type RunLog struct {
	pool db.Pool
}

// NewRunLog creates a RunLog backed by the given connection pool.
func NewRunLog(pool db.Pool) *RunLog {
	return &RunLog{pool: pool}
}

// Start records the beginning of a run and returns its ID.
func (l *RunLog) Start(ctx context.Context, rng model.DateRange) (string, error) {
	id := uuid.New().String()
	_, err := l.pool.Exec(ctx,
		`INSERT INTO faco.etl_runs (id, start_date, end_date, status, started_at)
		 VALUES ($1, $2, $3, 'running', now())`,
		id, dateOnly(rng.Start), dateOnly(rng.End),
	)
	if err != nil {
		return "", eris.Wrapf(err, "runlog: start run %s", rng)
	}
	return id, nil
}

// Complete marks a run as complete with per-table row counts.
func (l *RunLog) Complete(ctx context.Context, id string, rows map[string]int64) error {
	counts, err := json.Marshal(rows)
	if err != nil {
		return eris.Wrap(err, "runlog: marshal row counts")
	}
	_, err = l.pool.Exec(ctx,
		`UPDATE faco.etl_runs
		 SET status = 'complete', completed_at = now(), row_counts = $1
		 WHERE id = $2`,
		counts, id,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: complete run %s", id)
	}
	return nil
}

// Fail marks a run as failed with an error message.
func (l *RunLog) Fail(ctx context.Context, id string, errMsg string) error {
	_, err := l.pool.Exec(ctx,
		`UPDATE faco.etl_runs
		 SET status = 'failed', completed_at = now(), error = $1
		 WHERE id = $2`,
		errMsg, id,
	)
	if err != nil {
		return eris.Wrapf(err, "runlog: fail run %s", id)
	}
	return nil
}

// List returns up to limit runs, most recent first. A non-positive limit
// returns every run.
func (l *RunLog) List(ctx context.Context, limit int) ([]model.Run, error) {
	sql := `SELECT id::text, start_date, end_date, status, started_at, completed_at, row_counts, error
		 FROM faco.etl_runs ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		sql += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := l.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrap(err, "runlog: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var (
			r           model.Run
			status      string
			completedAt *time.Time
			counts      []byte
			errStr      *string
		)
		if err := rows.Scan(&r.ID, &r.Range.Start, &r.Range.End, &status, &r.StartedAt, &completedAt, &counts, &errStr); err != nil {
			return nil, eris.Wrap(err, "runlog: scan run")
		}
		r.Status = model.RunStatus(status)
		r.CompletedAt = completedAt
		if errStr != nil {
			r.Error = *errStr
		}
		if counts != nil {
			if err := json.Unmarshal(counts, &r.Rows); err != nil {
				return nil, eris.Wrapf(err, "runlog: decode row counts of %s", r.ID)
			}
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
