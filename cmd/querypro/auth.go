package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goatkit/querypro/internal/apierrors"
	"github.com/goatkit/querypro/internal/dashboard"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reader := bufio.NewReader(a.in)
			if email == "" {
				email = prompt(a, reader, "Email: ")
			}
			if password == "" {
				password = prompt(a, reader, "Password: ")
			}

			res, err := a.api.Login(cmd.Context(), email, password, a.role())
			if err != nil {
				return err
			}
			s, err := a.provider.Establish(cmd.Context(), res.Token, res.User)
			if err != nil {
				return err
			}
			a.printf("Logged in as %s (%s)\n", s.Name, s.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func prompt(a *app, r *bufio.Reader, label string) string {
	fmt.Fprint(a.out, label)
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.provider.Teardown(cmd.Context()); err != nil {
				return err
			}
			a.printf("Logged out\n")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if _, err := a.provider.Token(); err != nil {
				return err
			}
			s := a.provider.Current()
			if s == nil {
				return apierrors.New(apierrors.CodeUnauthorized)
			}
			if done, err := a.emit(s.User); done {
				return err
			}
			a.printf("%s <%s> (%s)\n", s.Name, s.Email, s.Role)
			if !s.ExpiresAt.IsZero() {
				a.printf("Session valid until %s\n", dashboard.FormatDate(s.ExpiresAt))
			}
			return nil
		},
	}
}
