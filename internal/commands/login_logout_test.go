package commands_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"taskflow/internal/commands"
	"taskflow/internal/exitcode"
	"taskflow/internal/session"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write %s: %v", filepath.Base(path), err)
	}
}

// TestLoginCommand_NoOAuthClient verifies login fails without oauth_client.json
func TestLoginCommand_NoOAuthClient(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.LoginCmd{}, newEnv(t, nil, false))

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
	if stderr == "" {
		t.Error("expected error message about missing oauth_client.json")
	}
}

// TestLoginCommand_TokenWithoutRefresh verifies login proceeds when the
// stored token cannot be refreshed.
func TestLoginCommand_TokenWithoutRefresh(t *testing.T) {
	env := newEnv(t, nil, false)
	writeFile(t, env.Config.OAuthClientPath(), `{"installed":{"client_id":"test","client_secret":"test","redirect_uris":["http://localhost"]}}`)
	writeFile(t, env.Config.TokenPath(), `{"access_token":"expired","token_type":"Bearer","expiry":"2020-01-01T00:00:00Z"}`)

	// Cancel immediately so the command does not wait for the OAuth callback.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out, errOut bytes.Buffer
	code := (&commands.LoginCmd{}).Run(ctx, env, nil, &out, &errOut)

	if out.String() == "already logged in\n" {
		t.Error("should not say 'already logged in' with token missing refresh_token")
	}
	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if _, err := env.Sessions.Load(); err == nil {
		t.Error("no session should be started before the token exchange")
	}
}

// TestLogoutCommand_RemovesTokenAndSession verifies logout keeps the OAuth client.
func TestLogoutCommand_RemovesTokenAndSession(t *testing.T) {
	env := newEnv(t, nil, false)
	writeFile(t, env.Config.OAuthClientPath(), `{"installed":{"client_id":"test","client_secret":"test"}}`)
	writeFile(t, env.Config.TokenPath(), `{"access_token":"test","refresh_token":"test"}`)
	if _, err := env.Sessions.Start(session.ModeRemote, ""); err != nil {
		t.Fatal(err)
	}

	stdout, stderr, code := runCommand(t, &commands.LogoutCmd{}, env)
	expectOK(t, stdout, stderr, code)

	if _, err := os.Stat(env.Config.TokenPath()); !os.IsNotExist(err) {
		t.Error("token.json should have been deleted")
	}
	if _, err := os.Stat(env.Config.SessionPath()); !os.IsNotExist(err) {
		t.Error("session.json should have been deleted")
	}
	if _, err := os.Stat(env.Config.OAuthClientPath()); err != nil {
		t.Error("oauth_client.json should NOT have been deleted")
	}
}

// TestLogoutCommand_DemoSession verifies logout ends a demo session.
func TestLogoutCommand_DemoSession(t *testing.T) {
	env := newEnv(t, nil, false)
	if _, err := env.Sessions.Start(session.ModeDemo, commands.DemoEmail); err != nil {
		t.Fatal(err)
	}

	stdout, stderr, code := runCommand(t, &commands.LogoutCmd{}, env)
	expectOK(t, stdout, stderr, code)
	if _, err := env.Sessions.Load(); err == nil {
		t.Error("session should be cleared")
	}
}

// TestLogoutCommand_NotLoggedIn verifies logout handles not being logged in
func TestLogoutCommand_NotLoggedIn(t *testing.T) {
	stdout, stderr, code := runCommand(t, &commands.LogoutCmd{}, newEnv(t, nil, false))

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "not logged in\n" {
		t.Errorf("expected 'not logged in\\n', got %q", stdout)
	}

	// Quiet mode prints nothing.
	stdout, _, _ = runCommand(t, &commands.LogoutCmd{}, newEnv(t, nil, true))
	if stdout != "" {
		t.Errorf("expected no stdout in quiet mode, got %q", stdout)
	}
}
