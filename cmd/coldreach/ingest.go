package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Seed the portfolio collection from the CSV",
	Long:  "Runs the portfolio bootstrap only. A collection that already has entries is left untouched.",
	RunE:  runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoad(logger)
	ctx := context.Background()

	s, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("portfolio ingest failed", "csv", cfg.Portfolio.CSV, "error", err)
		os.Exit(1)
	}
	defer s.Close()

	n, err := s.Count(ctx)
	if err != nil {
		logger.Error("failed to count portfolio entries", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Collection %q at %s holds %d entries\n", cfg.Store.Collection, cfg.Store.Path, n)
	return nil
}
