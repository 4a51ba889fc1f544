package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/openprocure/tenderflow/internal/cli"
)

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login [email]",
		Short: "Log in to the tender platform",
		Long: `Exchange your credentials for a session token.

The token is stored locally and reused by every other command until it
expires or you log out.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runLogin,
	}

	cmd.Flags().String("password", "", "password (prompted when omitted)")

	return cmd
}

func runLogin(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	reader := bufio.NewReader(os.Stdin)

	var email string
	if len(args) > 0 {
		email = args[0]
	} else {
		fmt.Print("Email: ")
		line, readErr := reader.ReadString('\n')
		if readErr != nil {
			return fmt.Errorf("failed to read email: %w", readErr)
		}
		email = strings.TrimSpace(line)
	}

	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		fmt.Print("Password: ")
		line, readErr := reader.ReadString('\n')
		if readErr != nil {
			return fmt.Errorf("failed to read password: %w", readErr)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	if err := a.gate.Login(ctx, email, password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	user := a.gate.User()
	fmt.Println(cli.FormatSuccess(fmt.Sprintf("Logged in as %s (%s)", user.Email, a.gate.Role())))
	return nil
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.gate.Logout(cmd.Context()); err != nil {
				return fmt.Errorf("logout failed: %w", err)
			}
			fmt.Println(cli.FormatSuccess("Logged out"))
			return nil
		},
	}
}
