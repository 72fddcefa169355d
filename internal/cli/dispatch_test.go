package cli_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"taskflow/internal/cli"
	"taskflow/internal/commands"
	"taskflow/internal/config"
	"taskflow/internal/coordinator"
	"taskflow/internal/exitcode"
	"taskflow/internal/service"
	"taskflow/internal/session"
	"taskflow/internal/testutil"
)

// testOpener returns an opener that always yields svc and records the mode.
func testOpener(svc service.Service, modes *[]session.Mode) commands.Opener {
	return func(ctx context.Context, cfg *config.Config, mode session.Mode, logger *slog.Logger) (service.Service, error) {
		if modes != nil {
			*modes = append(*modes, mode)
		}
		return svc, nil
	}
}

func run(t *testing.T, d *cli.Dispatcher, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var outBuf, errBuf bytes.Buffer
	code = d.Run(context.Background(), args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func startSession(t *testing.T, dir string, mode session.Mode) {
	t.Helper()
	m := session.NewManager(filepath.Join(dir, config.SessionFile), 0)
	if _, err := m.Start(mode, ""); err != nil {
		t.Fatalf("start session: %v", err)
	}
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	d := cli.NewDispatcher(commands.DefaultRegistry, testOpener(testutil.NewFakeService(), nil))

	_, stderr, code := run(t, d, "unknowncmd")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: unknowncmd\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	d := cli.NewDispatcher(commands.DefaultRegistry, testOpener(testutil.NewFakeService(), nil))

	_, stderr, code := run(t, d, "--quiet")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: --quiet\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_HelpCommand(t *testing.T) {
	d := cli.NewDispatcher(commands.DefaultRegistry, testOpener(testutil.NewFakeService(), nil))

	stdout, stderr, code := run(t, d, "help", "--config", t.TempDir())

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !bytes.Contains([]byte(stdout), []byte("Usage:")) {
		t.Error("expected help output to contain 'Usage:'")
	}
}

func TestDispatcher_VersionCommand(t *testing.T) {
	d := cli.NewDispatcher(commands.DefaultRegistry, testOpener(testutil.NewFakeService(), nil))

	stdout, _, code := run(t, d, "version", "--config", t.TempDir())

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stdout != "taskflow 0.1.0\n" {
		t.Errorf("expected 'taskflow 0.1.0\\n', got %q", stdout)
	}
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	d := cli.NewDispatcher(commands.DefaultRegistry, testOpener(testutil.NewFakeService(), nil))

	_, stderr, code := run(t, d, "help", "--unknown")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown flag: -unknown\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_MissingFlagValue(t *testing.T) {
	d := cli.NewDispatcher(commands.DefaultRegistry, testOpener(testutil.NewFakeService(), nil))

	_, stderr, code := run(t, d, "add", "--list")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: flag needs an argument: -list\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_NoSession(t *testing.T) {
	var modes []session.Mode
	d := cli.NewDispatcher(commands.DefaultRegistry, testOpener(testutil.NewFakeService(), &modes))

	_, stderr, code := run(t, d, "list", "--config", t.TempDir())

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	expected := "error: not signed in (run: taskflow login or taskflow demo)\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
	if len(modes) != 0 {
		t.Errorf("provider should not be opened, got %v", modes)
	}
}

func TestDispatcher_DemoSessionRunsDefaultCommand(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	startSession(t, filepath.Join(home, config.AppName), session.ModeDemo)

	svc := testutil.NewFakeService()
	svc.AddTask(testutil.DefaultListID, "t1", "Buy milk")
	var modes []session.Mode
	d := cli.NewDispatcher(commands.DefaultRegistry, testOpener(svc, &modes))

	stdout, stderr, code := run(t, d)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	expected := "------------\na  My Tasks\n------------\n   1  [ ] Buy milk\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
	if len(modes) != 1 || modes[0] != session.ModeDemo {
		t.Errorf("expected demo provider, got %v", modes)
	}
}

func TestDispatcher_RemoteSessionWithoutToken(t *testing.T) {
	dir := t.TempDir()
	startSession(t, dir, session.ModeRemote)
	d := cli.NewDispatcher(commands.DefaultRegistry, testOpener(testutil.NewFakeService(), nil))

	_, stderr, code := run(t, d, "lists", "--config", dir)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if stderr != "error: not logged in (run: taskflow login)\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_OpenErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"unauthenticated", service.NewUnauthenticated(nil), exitcode.AuthError},
		{"not configured", service.NewNotConfigured("invalid oauth_client.json", nil), exitcode.AuthError},
		{"transport", service.NewTransportUnavailable(os.ErrDeadlineExceeded), exitcode.BackendError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			startSession(t, dir, session.ModeDemo)
			open := func(ctx context.Context, cfg *config.Config, mode session.Mode, logger *slog.Logger) (service.Service, error) {
				return nil, tt.err
			}
			d := cli.NewDispatcher(commands.DefaultRegistry, open)

			_, _, code := run(t, d, "lists", "--config", dir)
			if code != tt.wantCode {
				t.Errorf("expected exit code %d, got %d", tt.wantCode, code)
			}
		})
	}
}

func TestDispatcher_CalendarMirror(t *testing.T) {
	dir := t.TempDir()
	startSession(t, dir, session.ModeRemote)
	if err := os.WriteFile(filepath.Join(dir, config.TokenFile), []byte(`{"refresh_token":"r"}`), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, config.SettingsFile), []byte("calendar: true\n"), 0600); err != nil {
		t.Fatal(err)
	}

	calls := 0
	mirrors := func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (coordinator.EventMirror, error) {
		calls++
		return nil, service.NewNotConfigured("calendar disabled in test", nil)
	}
	d := cli.NewDispatcher(commands.DefaultRegistry, testOpener(testutil.NewFakeService(), nil), cli.WithMirrorFactory(mirrors))

	stdout, stderr, code := run(t, d, "lists", "--config", dir)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "a  My Tasks\n" {
		t.Errorf("unexpected stdout %q", stdout)
	}
	if calls != 1 {
		t.Errorf("expected mirror factory to be called once, got %d", calls)
	}
	if !bytes.Contains([]byte(stderr), []byte("calendar mirror unavailable")) {
		t.Errorf("expected a warning about the mirror, got %q", stderr)
	}
}
