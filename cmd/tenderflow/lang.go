package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openprocure/tenderflow/internal/cli"
	"github.com/openprocure/tenderflow/internal/common"
	"github.com/openprocure/tenderflow/internal/storage"
)

func langCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lang [code]",
		Short: "Show or set the interface language",
		Long: `Show the stored interface language, or set it.

The preference is kept locally and expires after a year.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if len(args) == 0 {
				lang, getErr := store.GetPreference(ctx, storage.PrefLanguage)
				if errors.Is(getErr, common.ErrNotFound) {
					fmt.Println(cli.SubtleStyle.Render("No language set"))
					return nil
				}
				if getErr != nil {
					return getErr
				}
				fmt.Println(lang)
				return nil
			}

			if err := store.SetPreference(ctx, storage.PrefLanguage, args[0], storage.LanguageExpiry); err != nil {
				return fmt.Errorf("failed to store language: %w", err)
			}
			fmt.Println(cli.FormatSuccess("Language set to " + args[0]))
			return nil
		},
	}
}
