package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"taskflow/internal/backend/googleauth"
	"taskflow/internal/exitcode"
	"taskflow/internal/session"
)

func init() {
	Register(&LoginCmd{})
}

// LoginCmd signs in with Google and switches the session to the account.
type LoginCmd struct{}

func (c *LoginCmd) Name() string       { return "login" }
func (c *LoginCmd) Aliases() []string  { return nil }
func (c *LoginCmd) Synopsis() string   { return "Sign in with Google" }
func (c *LoginCmd) Usage() string      { return "taskflow login [common flags]" }
func (c *LoginCmd) NeedsSession() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LoginCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	cfg := env.Config
	if !cfg.HasOAuthClient() {
		fmt.Fprintf(errOut, "error: oauth_client.json not found in %s\n\n", cfg.Dir)
		fmt.Fprint(errOut, setupHelp(cfg.Dir, cfg.Settings.Calendar))
		return exitcode.AuthError
	}

	if cfg.HasToken() {
		validateCtx, cancel := context.WithTimeout(ctx, cfg.Settings.APITimeout)
		valid := googleauth.TokenValid(validateCtx, cfg)
		cancel()
		if valid {
			if err := startRemote(env); err != nil {
				fmt.Fprintf(errOut, "error: %v\n", err)
				return exitcode.AuthError
			}
			if !cfg.Quiet {
				fmt.Fprintln(out, "already logged in")
			}
			return exitcode.Success
		}
		env.Logger.Debug("stored token rejected, signing in again")
	}

	oauthConfig, err := googleauth.OAuthConfig(cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	flow := googleauth.DefaultLoopback(func(authURL string) {
		fmt.Fprintln(errOut, "Open this URL in your browser:")
		fmt.Fprintln(errOut, authURL)
	})
	token, err := flow.Authorize(ctx, oauthConfig)
	switch {
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(errOut, "error: cancelled")
		return exitcode.AuthError
	case err != nil:
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	if err := googleauth.SaveToken(cfg, token); err != nil {
		fmt.Fprintf(errOut, "error: failed to save token: %v\n", err)
		return exitcode.AuthError
	}
	if err := startRemote(env); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}
	return ok(env, out)
}

// startRemote switches the session to the Google account unless it is
// already active.
func startRemote(env *Env) error {
	if s, err := env.Sessions.Load(); err == nil && s.Mode == session.ModeRemote {
		return nil
	}
	_, err := env.Sessions.Start(session.ModeRemote, "")
	return err
}

func setupHelp(dir string, calendar bool) string {
	apis := "3. Enable the Google Tasks API:\n   https://console.cloud.google.com/apis/library/tasks.googleapis.com\n"
	if calendar {
		apis += "   and the Google Calendar API:\n   https://console.cloud.google.com/apis/library/calendar-json.googleapis.com\n"
	}
	return "To sign in with Google, you need OAuth credentials:\n\n" +
		"1. Go to https://console.cloud.google.com/apis/credentials\n" +
		"2. Create a project (or select an existing one)\n" +
		apis +
		"4. Create an OAuth client ID of type 'Desktop app' and download the JSON file\n" +
		"5. Save it as:\n   " + dir + "/oauth_client.json\n\n" +
		"Then run 'taskflow login' again.\n"
}
