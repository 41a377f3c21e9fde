package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Re-run the trailing window on a cron schedule",
	Long:  "Runs the ETL for the last schedule.lookback_days days every time schedule.cron fires. A trigger that arrives while a run is still in progress is skipped.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("schedule"); err != nil {
			return err
		}
		runNow, _ := cmd.Flags().GetBool("run-now")

		pool, err := warehousePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		log := zap.L().With(zap.String("component", "schedule"))
		job := scheduledJob(ctx, pool, cfg.Schedule.LookbackDays, log)

		c, err := newScheduler(cfg.Schedule.Cron, log, job)
		if err != nil {
			return err
		}

		if runNow {
			job()
		}

		c.Start()
		log.Info("scheduler started",
			zap.String("cron", cfg.Schedule.Cron),
			zap.Int("lookback_days", cfg.Schedule.LookbackDays),
		)

		<-ctx.Done()
		log.Info("shutting down scheduler")
		<-c.Stop().Done()
		return nil
	},
}

func init() {
	scheduleCmd.Flags().Bool("run-now", false, "run once immediately before waiting for the first trigger")
	rootCmd.AddCommand(scheduleCmd)
}

// scheduledJob returns the cron job: one warehouse run over the trailing
// lookback window ending today. Failures are logged and the schedule goes on.
func scheduledJob(ctx context.Context, pool *pgxpool.Pool, lookbackDays int, log *zap.Logger) func() {
	return func() {
		if ctx.Err() != nil {
			return
		}
		rng := lookbackRange(time.Now(), lookbackDays)
		log.Info("scheduled run starting", zap.String("range", rng.String()))
		if _, err := executeRun(ctx, pool, rng, false); err != nil {
			log.Error("scheduled run failed", zap.String("range", rng.String()), zap.Error(err))
		}
	}
}

// newScheduler builds a cron with one job on spec. Overlapping triggers are
// skipped and panics are recovered.
func newScheduler(spec string, log *zap.Logger, job func()) (*cron.Cron, error) {
	l := cronLogger{s: log.Sugar()}
	c := cron.New(cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)))
	if _, err := c.AddFunc(spec, job); err != nil {
		return nil, eris.Wrapf(err, "schedule: parse cron %q", spec)
	}
	return c, nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
