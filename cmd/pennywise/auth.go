package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Veraticus/pennywise/internal/auth"
	"github.com/Veraticus/pennywise/internal/cli"
	"github.com/Veraticus/pennywise/internal/common"
	"github.com/Veraticus/pennywise/internal/config"
	"github.com/Veraticus/pennywise/internal/report"
	"github.com/Veraticus/pennywise/internal/sheets"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func credentialFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("username", "u", "", "username (required)")
	cmd.Flags().StringP("password", "p", "", "password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("username")
}

// readPassword returns --password, or asks for it without echo on a terminal.
func readPassword(cmd *cobra.Command) (string, error) {
	if password, _ := cmd.Flags().GetString("password"); password != "" {
		return password, nil
	}

	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprint(cmd.ErrOrStderr(), cli.FormatPrompt("Password"))
		raw, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(raw), nil
	}

	return cli.NewCLIPrompter(cmd.InOrStdin(), cmd.ErrOrStderr()).Ask(cmd.Context(), "Password")
}

func registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new user",
		Args:  cobra.NoArgs,
		RunE:  runRegister,
	}
	credentialFlags(cmd)
	return cmd
}

func runRegister(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	username, _ := cmd.Flags().GetString("username")
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	user, err := newAuthService(store).Register(ctx, username, password)
	switch {
	case errors.Is(err, auth.ErrUsernameTaken):
		return common.NewUserError("Username already exists.", err)
	case errors.Is(err, auth.ErrEmptyPassword):
		return common.NewUserError("Password cannot be empty.", err)
	case err != nil:
		return err
	}

	writeln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("User %s registered successfully! (id %d)", user.Username, user.ID)))
	return nil
}

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session for later commands",
		Args:  cobra.NoArgs,
		RunE:  runLogin,
	}
	credentialFlags(cmd)
	return cmd
}

func runLogin(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	username, _ := cmd.Flags().GetString("username")
	password, err := readPassword(cmd)
	if err != nil {
		return err
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer closeStorage(store)

	session, err := newAuthService(store).Login(ctx, username, password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		return common.NewUserError("Invalid username or password.", err)
	}
	if err != nil {
		return err
	}

	if err := sessionFile().Save(session.Token); err != nil {
		return err
	}

	writeln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Logged in as %s (user id %d), session valid until %s",
		strings.TrimSpace(username), session.UserID, session.ExpiresAt.Format("2006-01-02"))))
	return nil
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			file := sessionFile()

			token, err := file.Load()
			if errors.Is(err, auth.ErrNotLoggedIn) {
				writeln(cmd.OutOrStdout(), cli.FormatInfo("Not logged in."))
				return nil
			}
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			if err := newAuthService(store).Logout(ctx, token); err != nil {
				return err
			}
			if err := file.Remove(); err != nil {
				return err
			}

			writeln(cmd.OutOrStdout(), cli.FormatSuccess("Logged out."))
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := initStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStorage(store)

			user, err := resolveUser(cmd, store)
			if err != nil {
				return err
			}

			writeln(cmd.OutOrStdout(), cli.FormatInfo(fmt.Sprintf("%s (user id %d, member since %s)",
				user.Username, user.ID, user.CreatedAt.Format("2006-01-02"))))
			return nil
		},
	}
	addUserIDFlag(cmd)
	return cmd
}

func authCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authenticate with external services",
	}
	cmd.AddCommand(authSheetsCmd())
	return cmd
}

func authSheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Authorize pennywise to write Google Sheets",
		Long: `Run the Google OAuth2 flow and save a refresh token.

Requires sheets.client_id and sheets.client_secret (or GOOGLE_SHEETS_CLIENT_ID
and GOOGLE_SHEETS_CLIENT_SECRET). The token is stored at sheets.token_file and
used automatically by "pennywise export sheets".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			oauthCfg := config.LoadSheetsOAuthConfig()
			if oauthCfg.ClientID == "" || oauthCfg.ClientSecret == "" {
				return common.NewUserError("Google OAuth client id and secret are not configured", common.ErrMissingConfig)
			}

			openBrowser, _ := cmd.Flags().GetBool("open")
			out := cmd.OutOrStdout()
			oauthCfg.OpenURL = func(url string) {
				writeln(out, cli.FormatInfo("Visit this URL to authorize pennywise:"))
				writeln(out, url)
				if openBrowser {
					if err := report.OpenFile(url); err != nil {
						writeln(out, cli.FormatWarning("Could not open a browser: "+err.Error()))
					}
				}
			}

			token, err := sheets.AuthenticateOAuth2Interactive(cmd.Context(), oauthCfg)
			if err != nil {
				return err
			}
			if token.RefreshToken == "" {
				writeln(out, cli.FormatWarning("Google did not return a refresh token; revoke access and try again."))
				return nil
			}

			writeln(out, cli.FormatSuccess("Google Sheets authorized. Token saved to "+oauthCfg.TokenFile))
			return nil
		},
	}
	cmd.Flags().Bool("open", true, "open the consent page in a browser")
	return cmd
}
