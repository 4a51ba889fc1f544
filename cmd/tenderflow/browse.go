package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openprocure/tenderflow/internal/tui"
)

func browseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse tenders interactively",
		Long: `Open the full-screen tender browser: scroll the feed, open
details, toggle bookmarks, and filter without leaving the terminal.`,
		RunE: runBrowse,
	}

	cmd.Flags().String("situation", "", "situation label sent with saves")

	return cmd
}

func runBrowse(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireAuth(); err != nil {
		return err
	}

	situation, _ := cmd.Flags().GetString("situation")

	return tui.Run(ctx, tui.Config{
		API:       a.client,
		Store:     a.store,
		Situation: situation,
		Offline:   viper.GetBool("offline"),
	})
}
