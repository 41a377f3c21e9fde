package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reyer3/faco-etl/internal/export"
	"github.com/reyer3/faco-etl/internal/model"
	"github.com/reyer3/faco-etl/internal/warehouse"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export executive KPIs to a spreadsheet",
	Long:  "Reads executive KPI rows (and, unless --executive-only, recovery rows) for the range from the fact tables and writes them to an XLSX workbook.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		rng, err := rangeFlags(cmd)
		if err != nil {
			return err
		}
		local, _ := cmd.Flags().GetBool("local")
		execOnly, _ := cmd.Flags().GetBool("executive-only")
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = defaultExportPath(cfg.Export.Dir, rng)
		}

		var sink warehouse.Sink
		if local {
			s, err := warehouse.NewSQLite(cfg.Local.SQLitePath)
			if err != nil {
				return err
			}
			if err := s.Prepare(ctx); err != nil {
				_ = s.Close()
				return err
			}
			sink = s
		} else {
			if err := cfg.Validate("export"); err != nil {
				return err
			}
			pool, err := warehousePool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()
			sink = warehouse.NewPostgres(pool)
		}
		defer sink.Close() //nolint:errcheck

		n, err := writeExport(ctx, sink, rng, out, execOnly)
		if err != nil {
			return err
		}

		zap.L().Info("export written", zap.String("path", out), zap.Int("executive_rows", n))
		fmt.Println(out)
		return nil
	},
}

func init() {
	addRangeFlags(exportCmd)
	exportCmd.Flags().String("out", "", "output .xlsx path (default: <export.dir>/faco_kpi_<start>_<end>.xlsx)")
	exportCmd.Flags().Bool("local", false, "read from the local SQLite file written by run --dry-run")
	exportCmd.Flags().Bool("executive-only", false, "omit the recovery sheet")
	rootCmd.AddCommand(exportCmd)
}

func defaultExportPath(dir string, rng model.DateRange) string {
	return filepath.Join(dir, fmt.Sprintf("faco_kpi_%s_%s.xlsx",
		rng.Start.Format("20060102"), rng.End.Format("20060102")))
}

// writeExport reads the range from sink and writes the workbook at path,
// returning the number of executive rows written.
func writeExport(ctx context.Context, sink warehouse.Sink, rng model.DateRange, path string, execOnly bool) (int, error) {
	execRows, err := sink.ReadExecutive(ctx, rng)
	if err != nil {
		return 0, eris.Wrap(err, "export: read executive")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, eris.Wrapf(err, "export: create %s", dir)
		}
	}

	if execOnly {
		return len(execRows), export.WriteExecutive(path, execRows)
	}

	recRows, err := sink.ReadRecovery(ctx, rng)
	if err != nil {
		return 0, eris.Wrap(err, "export: read recovery")
	}
	return len(execRows), export.WriteReport(path, execRows, recRows)
}
