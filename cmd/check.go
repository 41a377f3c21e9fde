package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/reyer3/faco-etl/internal/source"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Test warehouse connectivity",
	Long:  "Pings the warehouse and verifies that every raw source table the ETL reads is present.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		pool, err := warehousePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()
		fmt.Println("Connected to database")

		if err := upstreamReader(pool).CheckTables(ctx); err != nil {
			return eris.Wrap(err, "check source tables")
		}
		fmt.Printf("All %d source tables present\n", len(source.Tables()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
