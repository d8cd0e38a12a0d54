package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		Long: `Sign in against the backend. The password may also be supplied through
HIRELINE_PASSWORD so it does not appear in shell history.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				password = os.Getenv("HIRELINE_PASSWORD")
			}
			if email == "" || password == "" {
				return errors.New("--email and a password are required")
			}
			user, err := opts.con.session.Login(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("login failed: %s", opts.con.session.State().LastError)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", user.Name, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := opts.con.session.Restore(cmd.Context()); err != nil {
				return err
			}
			opts.con.session.Logout()
			return nil
		},
	}
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := opts.con.authenticated(cmd.Context()); err != nil {
				return err
			}
			st := opts.con.session.State()
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> %s\n", st.User.Name, st.User.Email, st.User.Role)
			return nil
		},
	}
}
