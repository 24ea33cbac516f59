package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "List the stored portfolio entries",
	Long:  "Prints every entry of the portfolio collection in insertion order.",
	RunE:  runPortfolio,
}

func init() {
	rootCmd.AddCommand(portfolioCmd)
}

func runPortfolio(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoad(logger)
	ctx := context.Background()

	s, err := openStore(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open portfolio store: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	entries, err := s.Entries(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list entries: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%-40s %s\n", "Tech stack", "Link")
	fmt.Println(strings.Repeat("─", 80))
	for _, e := range entries {
		fmt.Printf("%-40s %s\n", truncate(e.TechStack, 40), e.Link)
	}
	fmt.Printf("\nTotal: %d entries\n", len(entries))
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
