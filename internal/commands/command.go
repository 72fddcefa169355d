// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"flag"
	"io"
	"log/slog"

	"taskflow/internal/config"
	"taskflow/internal/coordinator"
	"taskflow/internal/service"
	"taskflow/internal/session"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsSession returns true if the command works on the signed-in
	// provider. Commands like help, version, login, logout return false.
	NeedsSession() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int
}

// Opener builds the provider for a session mode.
type Opener func(ctx context.Context, cfg *config.Config, mode session.Mode, logger *slog.Logger) (service.Service, error)

// Env is what a command runs against.
type Env struct {
	// Config is always provided (config dir, paths, settings).
	Config *config.Config
	Logger *slog.Logger

	// Sessions reads and writes session.json.
	Sessions *session.Manager

	// Session and Service are set only when NeedsSession returns true.
	Session session.Session
	Service service.Service

	// Mirror is set when calendar mirroring is enabled for a remote session.
	Mirror coordinator.EventMirror

	// Open builds providers other than the session's own, e.g. for migrate.
	Open Opener
}

// coordinatorOptions returns the options shared by every coordinator a
// command builds.
func (e *Env) coordinatorOptions() []coordinator.Option {
	opts := []coordinator.Option{coordinator.WithLogger(e.Logger)}
	if e.Mirror != nil {
		opts = append(opts, coordinator.WithMirror(e.Mirror))
	}
	return opts
}

// newApp builds a single-list coordinator over the session's provider.
func (e *Env) newApp() *coordinator.App {
	return coordinator.NewApp(e.Service, e.coordinatorOptions()...)
}

// newBoard builds an all-lists coordinator over the session's provider.
func (e *Env) newBoard() *coordinator.Board {
	return coordinator.NewBoard(e.Service, e.coordinatorOptions()...)
}
