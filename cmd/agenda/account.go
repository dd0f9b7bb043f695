package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/edwinbf09/daily-activities/cmd/agenda/ui"
)

func newLoginCmd(a *app) *cobra.Command {
	var creds ui.Credentials

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.credentials(&creds, ui.RunLoginForm); err != nil {
				return err
			}

			session, err := a.client.Login(cmd.Context(), creds.Email, creds.Password)
			if err != nil {
				return err
			}
			if err := a.settings.SaveToken(session.Token); err != nil {
				return err
			}

			fmt.Fprintln(a.stdout, ui.Success("Welcome back, "+session.User.Name+"!"))
			return nil
		},
	}

	cmd.Flags().StringVar(&creds.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "Password (prompted when omitted)")
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var creds ui.Credentials

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if creds.Name == "" && creds.Email == "" && a.isInteractive() {
				if err := ui.RunRegisterForm(&creds); err != nil {
					return fmt.Errorf("form cancelled: %w", err)
				}
			} else {
				if strings.TrimSpace(creds.Name) == "" {
					return fmt.Errorf("--name is required")
				}
				if err := a.credentials(&creds, nil); err != nil {
					return err
				}
			}

			session, err := a.client.Register(cmd.Context(), creds.Email, creds.Password, creds.Name)
			if err != nil {
				return err
			}
			if err := a.settings.SaveToken(session.Token); err != nil {
				return err
			}

			fmt.Fprintln(a.stdout, ui.Success("Account created. Welcome, "+session.User.Name+"!"))
			return nil
		},
	}

	cmd.Flags().StringVar(&creds.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&creds.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "Password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.client.Token() != "" && !a.offline {
				if err := a.client.Logout(cmd.Context()); err != nil {
					a.warn("could not revoke the session on the server: " + err.Error())
				}
			}
			if err := a.settings.SaveToken(""); err != nil {
				return err
			}

			fmt.Fprintln(a.stdout, ui.Success("Logged out."))
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			me, err := a.client.Me(cmd.Context())
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(a.stdout, "%s %s\n", me.Email, ui.Subtle("("+me.UserID.String()+")"))
			return nil
		},
	}
}

func newResetCmd(a *app) *cobra.Command {
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset a forgotten password",
	}

	var email string
	requestCmd := &cobra.Command{
		Use:   "request",
		Short: "Email a reset link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(email) == "" {
				return fmt.Errorf("--email is required")
			}
			msg, err := a.client.RequestPasswordReset(cmd.Context(), email)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, msg)
			return nil
		},
	}
	requestCmd.Flags().StringVar(&email, "email", "", "Account email")

	var token, password string
	confirmCmd := &cobra.Command{
		Use:   "confirm",
		Short: "Set a new password with the token from the email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(token) == "" {
				return fmt.Errorf("--token is required")
			}
			if password == "" {
				var err error
				if password, err = a.readSecret("New password: "); err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
			}
			msg, err := a.client.ConfirmPasswordReset(cmd.Context(), token, password)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, ui.Success(msg))
			return nil
		},
	}
	confirmCmd.Flags().StringVar(&token, "token", "", "Reset token from the email link")
	confirmCmd.Flags().StringVar(&password, "password", "", "New password (prompted when omitted)")

	resetCmd.AddCommand(requestCmd, confirmCmd)
	return resetCmd
}

// credentials fills email and password from flags, a form or prompts.
func (a *app) credentials(c *ui.Credentials, form func(*ui.Credentials) error) error {
	if c.Email == "" && form != nil && a.isInteractive() {
		if err := form(c); err != nil {
			return fmt.Errorf("form cancelled: %w", err)
		}
		return nil
	}

	if strings.TrimSpace(c.Email) == "" {
		return fmt.Errorf("--email is required")
	}
	if c.Password == "" {
		var err error
		if c.Password, err = a.readSecret("Password: "); err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
	}
	return nil
}
