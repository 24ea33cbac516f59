package main

import (
	"context"
	"fmt"
	"os"

	"github.com/amishk599/coldreach/internal/matcher"
	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match <skill>...",
	Short: "Show the portfolio links matched for some skills",
	Long:  "Runs only the matching stage, useful to inspect retrieval without calling the LLM.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)
}

func runMatch(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoad(logger)
	ctx := context.Background()

	s, err := openStore(ctx, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open portfolio store: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	links, err := matcher.NewLinkMatcher(s).Match(ctx, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "match failed: %v\n", err)
		os.Exit(1)
	}
	if len(links) == 0 {
		fmt.Println("No matching portfolio links.")
		return nil
	}
	for _, link := range links {
		fmt.Println(link)
	}
	return nil
}
