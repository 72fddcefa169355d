package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"taskflow/internal/commands"
	"taskflow/internal/config"
	"taskflow/internal/coordinator"
	"taskflow/internal/exitcode"
	"taskflow/internal/logging"
	"taskflow/internal/session"
)

// MirrorFactory creates the calendar mirror for a remote session.
type MirrorFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (coordinator.EventMirror, error)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMirrorFactory enables calendar mirroring when settings ask for it.
func WithMirrorFactory(f MirrorFactory) Option {
	return func(d *Dispatcher) { d.mirrors = f }
}

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	open     commands.Opener
	mirrors  MirrorFactory
}

// NewDispatcher creates a new dispatcher with the given registry and provider opener.
func NewDispatcher(registry *commands.Registry, open commands.Opener, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		open:     open,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	if len(args) == 0 {
		return d.dispatch(ctx, "list", nil, out, errOut)
	}

	cmdName := args[0]

	// If first token starts with -, it's an error (flags require a command)
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatchCommand(ctx, cmd, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	// Common flags
	var configDir string
	var quiet bool
	var debug bool

	fs.StringVar(&configDir, "config", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")

	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		return flagError(errOut, err)
	}

	// Check if first positional arg starts with - (should have been parsed as flag)
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := config.New(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug

	logger := logging.New(errOut, debug)
	validity := time.Duration(cfg.Settings.SessionDays) * 24 * time.Hour
	env := &commands.Env{
		Config:   cfg,
		Logger:   logger,
		Sessions: session.NewManager(cfg.SessionPath(), validity),
		Open:     d.open,
	}

	if cmd.NeedsSession() {
		if code := d.attach(ctx, env, errOut); code != exitcode.Success {
			return code
		}
	}

	return cmd.Run(ctx, env, positionalArgs, out, errOut)
}

// attach loads the session and opens its provider into env.
func (d *Dispatcher) attach(ctx context.Context, env *commands.Env, errOut io.Writer) int {
	cfg := env.Config
	sess, err := env.Sessions.Load()
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		if errors.Is(err, session.ErrNoSession) {
			return exitcode.AuthError
		}
		return exitcode.UserError
	}
	env.Session = sess
	env.Logger.Debug("session loaded", "mode", sess.Mode, "days_left", env.Sessions.DaysLeft(sess))

	if sess.Mode == session.ModeRemote && !cfg.HasToken() {
		fmt.Fprintln(errOut, "error: not logged in (run: taskflow login)")
		return exitcode.AuthError
	}

	svc, err := d.open(ctx, cfg, sess.Mode, env.Logger)
	if err != nil {
		return openError(errOut, err)
	}
	env.Service = svc

	if sess.Mode == session.ModeRemote && cfg.Settings.Calendar && d.mirrors != nil {
		mirror, err := d.mirrors(ctx, cfg, env.Logger)
		if err != nil {
			// Tasks still work without the calendar.
			env.Logger.Warn("calendar mirror unavailable", "err", err)
		} else {
			env.Mirror = mirror
		}
	}
	return exitcode.Success
}

func openError(errOut io.Writer, err error) int {
	if exitcode.IsAuth(err) {
		fmt.Fprintf(errOut, "error: auth error: %s\n", err)
	} else {
		fmt.Fprintf(errOut, "error: backend error: %s\n", err)
	}
	return exitcode.For(err)
}

func flagError(errOut io.Writer, err error) int {
	errStr := err.Error()

	if name, ok := strings.CutPrefix(errStr, "flag needs an argument: "); ok {
		fmt.Fprintf(errOut, "error: flag needs an argument: %s\n", name)
		return exitcode.UserError
	}

	if strings.HasPrefix(errStr, "flag provided but not defined:") {
		flagName := strings.TrimPrefix(errStr, "flag provided but not defined: ")
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", flagName)
		return exitcode.UserError
	}

	fmt.Fprintf(errOut, "error: %s\n", errStr)
	return exitcode.UserError
}
