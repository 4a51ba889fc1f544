package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/openprocure/tenderflow/internal/cli"
	"github.com/openprocure/tenderflow/internal/detail"
	"github.com/openprocure/tenderflow/internal/service"
	"github.com/openprocure/tenderflow/internal/summary"
)

func summaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary <tender-hash>",
		Short: "Generate an AI summary for a tender",
		Long: `Request a server-side summary of a tender's procurement documents
and wait for the generation task to finish.

The platform works through the tender's attached documents; when a
tender has none, the summary is generated from the tender record alone.`,
		Args: cobra.ExactArgs(1),
		RunE: runSummary,
	}

	cmd.Flags().Bool("regenerate", false, "discard any existing summary and generate a fresh one")
	cmd.Flags().StringSlice("question", nil, "questions the summary should answer")

	return cmd
}

func runSummary(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	hash := args[0]

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireAuth(); err != nil {
		return err
	}

	regenerate, _ := cmd.Flags().GetBool("regenerate")
	questions, _ := cmd.Flags().GetStringSlice("question")

	if err := generateSummary(ctx, a, hash, questions, regenerate); err != nil {
		return err
	}

	// Re-fetch the detail so the fresh summary is shown.
	record, err := detail.NewLoader(a.client).FetchTenderDetail(ctx, hash)
	if err != nil {
		return err
	}
	if record.AISummary == "" {
		fmt.Println(cli.SubtleStyle.Render("Summary generated; it will appear on the tender shortly"))
		return nil
	}
	fmt.Println(cli.RenderBox("Summary", record.AISummary))
	return nil
}

// generateSummary requests an AI summary for the tender and blocks until
// the generation task reaches a terminal state. Saving a tender and the
// summary command both funnel through here.
func generateSummary(ctx context.Context, a *app, hash string, questions []string, regenerate bool) error {
	cfg := summary.DefaultConfig()
	cfg.Questions = questions

	poller, err := summary.NewWithConfig(summary.Deps{
		API:      a.client,
		Notifier: cli.NewNotifier(),
		Clock:    service.RealClock{},
	}, cfg)
	if err != nil {
		return err
	}

	if err := poller.Request(ctx, hash, nil, regenerate); err != nil {
		return err
	}

	progress := cli.NewTaskProgress(os.Stderr, "Generating summary...")
	for !poller.State().Terminal() {
		if task := poller.Task(); task != nil {
			progress.Update(task.Progress)
		}
		select {
		case <-time.After(500 * time.Millisecond):
		case <-ctx.Done():
			poller.Stop()
			return ctx.Err()
		}
	}
	progress.Finish()

	if poller.State() == summary.StateFailed {
		return fmt.Errorf("summary generation did not complete")
	}
	return nil
}
