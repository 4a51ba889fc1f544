package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openprocure/tenderflow/internal/cli"
	"github.com/openprocure/tenderflow/internal/common"
	"github.com/openprocure/tenderflow/internal/model"
)

func criteriaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "criteria",
		Short: "Manage your saved search criteria",
	}

	cmd.AddCommand(criteriaShowCmd())
	cmd.AddCommand(criteriaSetCmd())
	cmd.AddCommand(criteriaCPVCmd())

	return cmd
}

func criteriaShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the criteria stored on your account",
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
			// The numeric user id only arrives with enrichment.
			if err := a.gate.Enrich(ctx); err != nil {
				return err
			}

			criteria, err := a.client.GetCriteria(ctx, a.gate.User().ID)
			if errors.Is(err, common.ErrNotFound) {
				fmt.Println(cli.SubtleStyle.Render("No search criteria configured yet"))
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatTitle("Search criteria"))
			fmt.Println("Categories: " + strings.Join(criteria.Categories, ", "))
			fmt.Println("Regions:    " + strings.Join(criteria.States, ", "))
			return nil
		},
	}
}

func criteriaSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Replace the criteria stored on your account",
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
			if err := a.gate.Enrich(ctx); err != nil {
				return err
			}

			categories, _ := cmd.Flags().GetStringSlice("category")
			states, _ := cmd.Flags().GetStringSlice("state")

			criteria := &model.SearchCriteria{Categories: categories, States: states}
			if err := a.client.UpdateCriteria(ctx, a.gate.User().ID, criteria); err != nil {
				return fmt.Errorf("failed to update criteria: %w", err)
			}
			fmt.Println(cli.FormatSuccess("Criteria updated"))
			return nil
		},
	}

	cmd.Flags().StringSlice("category", nil, "CPV category codes")
	cmd.Flags().StringSlice("state", nil, "regions / administrative states")

	return cmd
}

func criteriaCPVCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cpv <search-term>",
		Short: "Look up CPV category codes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireAuth(); err != nil {
				return err
			}

			codes, err := a.client.GetCPVCodes(ctx, args[0])
			if err != nil {
				return err
			}
			if len(codes) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No matching codes"))
				return nil
			}
			for _, code := range codes {
				fmt.Printf("%s  %s\n", code.Code, code.Label)
			}
			return nil
		},
	}
}

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage client accounts (staff only)",
	}

	cmd.AddCommand(usersListCmd())
	cmd.AddCommand(usersCreateCmd())
	cmd.AddCommand(usersDeleteCmd())

	return cmd
}

// requireStaff fails unless the enriched session carries the staff role.
func requireStaff(ctx context.Context, a *app) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	if err := a.gate.Enrich(ctx); err != nil {
		return err
	}
	if a.gate.Role() != model.RoleStaff {
		return fmt.Errorf("this command requires a staff account")
	}
	return nil
}

func usersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List client accounts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := requireStaff(ctx, a); err != nil {
				return err
			}

			clients, err := a.client.ListClients(ctx)
			if err != nil {
				return err
			}
			if len(clients) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No client accounts"))
				return nil
			}
			for _, c := range clients {
				fmt.Printf("%-6d %-32s %s\n", c.ID, c.Email, c.Name)
			}
			return nil
		},
	}
}

func usersCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <email>",
		Short: "Create a client account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := requireStaff(ctx, a); err != nil {
				return err
			}

			name, _ := cmd.Flags().GetString("name")
			password, _ := cmd.Flags().GetString("password")

			created, err := a.client.CreateClient(ctx, args[0], name, password)
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created client %s (id %d)", created.Email, created.ID)))
			return nil
		},
	}

	cmd.Flags().String("name", "", "display name")
	cmd.Flags().String("password", "", "initial password")

	return cmd
}

func usersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a client account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid client id: %w", err)
			}

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := requireStaff(ctx, a); err != nil {
				return err
			}

			if err := a.client.DeleteClient(ctx, id); err != nil {
				return fmt.Errorf("failed to delete client: %w", err)
			}
			fmt.Println(cli.FormatSuccess("Client deleted"))
			return nil
		},
	}
}

func passwordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Change your account password",
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

			current, _ := cmd.Flags().GetString("current")
			updated, _ := cmd.Flags().GetString("new")
			if current == "" || updated == "" {
				return fmt.Errorf("both --current and --new are required")
			}

			if err := a.client.UpdatePassword(ctx, current, updated); err != nil {
				return fmt.Errorf("failed to change password: %w", err)
			}
			fmt.Println(cli.FormatSuccess("Password changed"))
			return nil
		},
	}

	cmd.Flags().String("current", "", "current password")
	cmd.Flags().String("new", "", "new password")

	return cmd
}
