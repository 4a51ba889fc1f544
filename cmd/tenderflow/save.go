package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openprocure/tenderflow/internal/cli"
	"github.com/openprocure/tenderflow/internal/detail"
	"github.com/openprocure/tenderflow/internal/model"
	"github.com/openprocure/tenderflow/internal/saved"
	"github.com/openprocure/tenderflow/internal/service"
)

func saveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "save <tender-hash>",
		Short: "Bookmark a tender",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToggle(cmd, args[0], true)
		},
	}
	cmd.Flags().String("situation", "", "situation label sent with the save")
	return cmd
}

func unsaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unsave <tender-hash>",
		Short: "Remove a bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToggle(cmd, args[0], false)
		},
	}
}

func savedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "saved",
		Short: "List bookmarked tenders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireAuth(); err != nil {
				return err
			}

			c, err := newSavedController(cmd, a)
			if err != nil {
				return err
			}
			if err := c.Refresh(ctx); err != nil {
				return err
			}

			previews := c.Previews()
			renderTenderTable(previews)
			fmt.Println(cli.SubtleStyle.Render(fmt.Sprintf("%d saved tenders", len(previews))))
			return nil
		},
	}
}

// newSavedController wires a save-state controller for one command run.
func newSavedController(cmd *cobra.Command, a *app) (*saved.Controller, error) {
	cfg := saved.DefaultConfig()
	cfg.Offline = viper.GetBool("offline")
	if situation, err := cmd.Flags().GetString("situation"); err == nil {
		cfg.Situation = situation
	}

	return saved.NewWithConfig(saved.Deps{
		API:      a.client,
		Store:    a.store,
		Notifier: cli.NewNotifier(),
		Clock:    service.RealClock{},
	}, cfg)
}

// runToggle brings the controller in sync with the server, then toggles
// the tender if it is not already in the wanted state.
func runToggle(cmd *cobra.Command, hash string, want bool) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireAuth(); err != nil {
		return err
	}

	c, err := newSavedController(cmd, a)
	if err != nil {
		return err
	}
	if err := c.Refresh(ctx); err != nil {
		return err
	}

	if c.IsSaved(hash) == want {
		if want {
			fmt.Println(cli.SubtleStyle.Render("Already saved"))
		} else {
			fmt.Println(cli.SubtleStyle.Render("Not currently saved"))
		}
		return nil
	}

	preview, err := previewFor(ctx, a, c, hash)
	if err != nil {
		return err
	}
	if err := c.Toggle(ctx, preview); err != nil {
		return err
	}

	// A fresh bookmark kicks off summary generation. A failure here is
	// informational only; the bookmark stays in place.
	if want {
		if err := generateSummary(ctx, a, hash, nil, false); err != nil {
			slog.Warn("Summary generation after save failed", "tender_hash", hash, "error", err)
		}
	}
	return nil
}

// previewFor resolves the preview needed for a toggle: from the saved
// set when present, otherwise through a detail fetch for the URI.
func previewFor(ctx context.Context, a *app, c *saved.Controller, hash string) (model.TenderPreview, error) {
	for _, p := range c.Previews() {
		if p.Hash == hash {
			return p, nil
		}
	}

	record, err := detail.NewLoader(a.client).FetchTenderDetail(ctx, hash)
	if err != nil {
		return model.TenderPreview{}, err
	}
	return record.TenderPreview, nil
}
