package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/auth"
	"github.com/Makepad-fr/tada/internal/ui"
)

func newAuthCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Token authentication for the cloud backend",
	}
	cmd.AddCommand(newAuthLoginCmd(app))
	cmd.AddCommand(&cobra.Command{
		Use:   "logout",
		Short: "Delete the saved token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds := app.credentials()
			ti, _ := creds.Get()
			if ti != nil && ti.Source == "env" {
				ui.OK(cmd.OutOrStdout(), "token is provided by "+auth.EnvToken+" env var (nothing to delete)")
				return nil
			}
			if err := creds.Delete(); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			ui.OK(cmd.OutOrStdout(), "logged out")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show where the token comes from and when it expires",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ti, err := app.credentials().Get()
			if err != nil {
				return err
			}
			if ti == nil {
				printf(cmd, "%s\n", ui.Current().Muted.Render("not logged in"))
				printf(cmd, "Run: tada auth login\n")
				return nil
			}
			printf(cmd, "source: %s\n", ti.Source)
			switch {
			case ti.ExpiresAt == nil:
				printf(cmd, "expires: (never)\n")
			case ti.Expired(time.Now()):
				printf(cmd, "expires: %s %s\n", ti.ExpiresAt.UTC().Format(time.RFC3339), ui.Current().Error.Render("(expired)"))
			default:
				printf(cmd, "expires: %s\n", ti.ExpiresAt.UTC().Format(time.RFC3339))
			}
			printf(cmd, "server: %s\n", app.cfg.CloudURL)
			printf(cmd, "env override: %s\n", auth.EnvToken)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "whoami",
		Short: "Show the user the saved token signs in as",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ti, err := app.credentials().Get()
			if err != nil {
				return err
			}
			if ti == nil {
				return ErrNotLoggedIn
			}
			c, err := auth.Decode(ti.Token)
			if err != nil {
				return err
			}
			printf(cmd, "user: %s\n", c.Subject)
			if c.Name != "" {
				printf(cmd, "name: %s\n", c.Name)
			}
			if c.Email != "" {
				printf(cmd, "email: %s\n", c.Email)
			}
			return nil
		},
	})
	cmd.AddCommand(newAuthTokenCmd(app))
	return cmd
}

func newAuthLoginCmd(app *App) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save a bearer token (from --token or stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "Paste your token: ")
				line, err := bufio.NewReader(app.in).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read token: %w", err)
				}
				token = strings.TrimSpace(line)
			}
			ti, err := app.credentials().Set(token)
			if err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			c, _ := auth.Decode(ti.Token)
			ui.OK(cmd.OutOrStdout(), "logged in as "+c.Subject)
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Token to save")
	return cmd
}

// newAuthTokenCmd mints tokens for a document store started with the same
// secret. It is meant for self-hosting and tests.
func newAuthTokenCmd(app *App) *cobra.Command {
	var secret, sub, name, email string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed token for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = app.cfg.TokenSecret
			}
			if secret == "" {
				return errors.New("a token secret is required (--secret or TADA_TOKEN_SECRET)")
			}
			c := auth.NewClaims(sub, time.Now(), ttl)
			c.Name, c.Email = name, email
			tok, err := auth.Issue([]byte(secret), c)
			if err != nil {
				return err
			}
			printf(cmd, "%s\n", tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "HMAC secret (default TADA_TOKEN_SECRET)")
	cmd.Flags().StringVar(&sub, "sub", "", "User id")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email")
	cmd.Flags().DurationVar(&ttl, "ttl", 30*24*time.Hour, "Lifetime; 0 never expires")
	_ = cmd.MarkFlagRequired("sub")
	return cmd
}
