package main

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reyer3/faco-etl/internal/aggregate"
	"github.com/reyer3/faco-etl/internal/db"
	"github.com/reyer3/faco-etl/internal/model"
	"github.com/reyer3/faco-etl/internal/resilience"
	"github.com/reyer3/faco-etl/internal/source"
)

// warehousePool opens the Postgres pool that holds both the raw upstream
// tables and the fact tables.
func warehousePool(ctx context.Context) (*pgxpool.Pool, error) {
	if cfg.Warehouse.DatabaseURL == "" {
		return nil, eris.New("no database_url configured (set warehouse.database_url or FACO_WAREHOUSE_DATABASE_URL)")
	}

	pool, err := db.Connect(ctx, db.PoolConfig{
		URL:      cfg.Warehouse.DatabaseURL,
		MaxConns: cfg.Warehouse.MaxConns,
		MinConns: cfg.Warehouse.MinConns,
	})
	if err != nil {
		return nil, err
	}

	zap.L().Debug("connected to warehouse")
	return pool, nil
}

// upstreamReader reads the raw tables through pool with the configured
// retry policy.
func upstreamReader(pool db.Pool) *source.Postgres {
	return source.NewPostgres(pool, source.WithRetry(
		resilience.FromConfig(cfg.Warehouse.RetryAttempts, cfg.Warehouse.RetryBackoffMs)))
}

// businessCalendar builds the day counter from the calendar config.
func businessCalendar() (*aggregate.BusinessCalendar, error) {
	holidays, err := cfg.Calendar.HolidayDates()
	if err != nil {
		return nil, err
	}
	return aggregate.NewBusinessCalendar(cfg.Calendar.IncludeSaturdays, holidays), nil
}

// addRangeFlags registers the --start/--end pair shared by range commands.
func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().String("start", "", "first date of the range (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "last date of the range (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
}

func rangeFlags(cmd *cobra.Command) (model.DateRange, error) {
	start, _ := cmd.Flags().GetString("start")
	end, _ := cmd.Flags().GetString("end")
	return model.ParseDateRange(start, end)
}

// lookbackRange returns the inclusive window of days ending on now's date.
// A lookback of zero covers only today.
func lookbackRange(now time.Time, days int) model.DateRange {
	y, m, d := now.Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	if days < 0 {
		days = 0
	}
	return model.DateRange{Start: end.AddDate(0, 0, -days), End: end}
}
