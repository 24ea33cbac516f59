package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/amishk599/coldreach/internal/model"
	"github.com/amishk599/coldreach/internal/pipeline"
	"github.com/spf13/cobra"
)

var showJob bool

var generateCmd = &cobra.Command{
	Use:   "generate <job-url>",
	Short: "Generate one email and print it",
	Long:  "One-shot run: scrape the job page, extract, match, compose, and print the email body to stdout.",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().BoolVar(&showJob, "show-job", false, "print the extracted job and matched links to stderr")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	cfg := mustLoad(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open portfolio store: %w", err)
	}
	defer s.Close()

	draft, err := draftOrError(buildOrchestrator(ctx, cfg, s, logger).Run(ctx, args[0]))
	if err != nil {
		return err
	}

	if showJob {
		fmt.Fprintf(os.Stderr, "%s\n", draft.Job)
		for _, link := range draft.Links {
			fmt.Fprintf(os.Stderr, "- %s\n", link)
		}
		fmt.Fprintln(os.Stderr)
	}
	fmt.Println(draft.Body)
	return nil
}

// draftOrError turns a finished run into its draft, or into an error naming
// the failed stage and its class.
func draftOrError(res pipeline.Result) (*model.EmailDraft, error) {
	if res.Err != nil {
		return nil, fmt.Errorf("%w (%s)", res.Err, res.Class())
	}
	if res.Draft == nil {
		return nil, fmt.Errorf("run ended in state %s without a draft", res.State)
	}
	return res.Draft, nil
}
