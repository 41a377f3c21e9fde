package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reyer3/faco-etl/internal/model"
	"github.com/reyer3/faco-etl/internal/pipeline"
	"github.com/reyer3/faco-etl/internal/warehouse"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the ETL for a date range",
	Long:  "Extracts the range from the raw tables, rebuilds every fact for it and replaces the range in the fact tables. Re-running a range is idempotent.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rng, err := rangeFlags(cmd)
		if err != nil {
			return err
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		mode := "run"
		if dryRun {
			mode = "dry-run"
		}
		if err := cfg.Validate(mode); err != nil {
			return err
		}

		pool, err := warehousePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		result, err := executeRun(ctx, pool, rng, dryRun)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	addRangeFlags(runCmd)
	runCmd.Flags().Bool("dry-run", false, "write facts to the local SQLite file instead of the warehouse")
	rootCmd.AddCommand(runCmd)
}

// runLedger records run lifecycle. Dry runs have none.
type runLedger interface {
	Start(ctx context.Context, rng model.DateRange) (string, error)
	Complete(ctx context.Context, id string, rows map[string]int64) error
	Fail(ctx context.Context, id string, errMsg string) error
}

// executeRun wires the reader, sink and ledger for one run against pool.
func executeRun(ctx context.Context, pool *pgxpool.Pool, rng model.DateRange, dryRun bool) (*pipeline.Result, error) {
	cal, err := businessCalendar()
	if err != nil {
		return nil, err
	}

	var (
		sink   warehouse.Sink
		ledger runLedger
	)
	if dryRun {
		s, err := warehouse.NewSQLite(cfg.Local.SQLitePath)
		if err != nil {
			return nil, err
		}
		sink = s
		zap.L().Info("dry run, writing to local sqlite", zap.String("path", cfg.Local.SQLitePath))
	} else {
		if err := warehouse.Migrate(ctx, pool); err != nil {
			return nil, eris.Wrap(err, "migrate warehouse")
		}
		sink = warehouse.NewPostgres(pool)
		ledger = warehouse.NewRunLog(pool)
	}
	defer sink.Close() //nolint:errcheck

	p := pipeline.New(pipeline.Options{
		Reader:   upstreamReader(pool),
		Sink:     sink,
		Calendar: cal,
	})
	return runWith(ctx, p, ledger, rng)
}

// runWith runs p over rng, bracketing it with ledger entries when a ledger
// is present. Ledger failures after the run are logged, not returned.
func runWith(ctx context.Context, p *pipeline.Pipeline, ledger runLedger, rng model.DateRange) (*pipeline.Result, error) {
	log := zap.L().With(zap.String("range", rng.String()))

	var runID string
	if ledger != nil {
		id, err := ledger.Start(ctx, rng)
		if err != nil {
			return nil, err
		}
		runID = id
		log = log.With(zap.String("run_id", runID))
	}

	result, err := p.Run(ctx, rng)
	if err != nil {
		if ledger != nil {
			if ferr := ledger.Fail(context.WithoutCancel(ctx), runID, err.Error()); ferr != nil {
				log.Warn("failed to record run failure", zap.Error(ferr))
			}
		}
		return nil, eris.Wrap(err, "pipeline run")
	}

	if ledger != nil {
		if cerr := ledger.Complete(ctx, runID, result.Rows); cerr != nil {
			log.Warn("failed to record run completion", zap.Error(cerr))
		}
	}

	log.Info("run complete",
		zap.Int("universe_rows", result.UniverseRows),
		zap.Int("interactions", result.Interactions),
		zap.Int("payments_attributed", result.Attribution.Attributed),
		zap.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}
