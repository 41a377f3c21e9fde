package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/reyer3/faco-etl/internal/pipeline"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize the assignments behind a date range",
	Long:  "Counts calendar periods, assigned accounts and clients for the range, broken down by cartera, segment and service. Nothing is written.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		rng, err := rangeFlags(cmd)
		if err != nil {
			return err
		}

		pool, err := warehousePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		s, err := pipeline.Summarize(ctx, upstreamReader(pool), rng, nil)
		if err != nil {
			return eris.Wrap(err, "summary")
		}

		formatSummary(os.Stdout, s)
		return nil
	},
}

func init() {
	addRangeFlags(summaryCmd)
	rootCmd.AddCommand(summaryCmd)
}

// formatSummary writes s as a header block followed by one table per
// breakdown.
func formatSummary(out io.Writer, s *pipeline.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Range:\t%s\n", s.Range)
	_, _ = fmt.Fprintf(w, "Periods:\t%d\n", s.Periods)
	_, _ = fmt.Fprintf(w, "Accounts:\t%d\n", s.Accounts)
	_, _ = fmt.Fprintf(w, "Clients:\t%d\n", s.Clients)

	breakdown := func(title string, counts map[string]int) {
		_, _ = fmt.Fprintln(w)
		_, _ = fmt.Fprintf(w, "%s\tACCOUNTS\n", title)
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			_, _ = fmt.Fprintf(w, "%s\t%d\n", k, counts[k])
		}
	}
	breakdown("CARTERA", s.ByCartera)
	breakdown("SEGMENT", s.BySegment)
	breakdown("SERVICE", s.ByService)
	_ = w.Flush()
}
