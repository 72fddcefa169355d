package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskflow/internal/exitcode"
	"taskflow/internal/session"
)

// DemoEmail identifies demo sessions.
const DemoEmail = "demo@taskflow.app"

func init() {
	Register(&DemoCmd{})
}

// resetter is implemented by providers that can restore their sample data.
type resetter interface {
	Reset(ctx context.Context) error
}

// DemoCmd starts a session on the local demo workspace.
type DemoCmd struct {
	reset bool
}

func (c *DemoCmd) Name() string       { return "demo" }
func (c *DemoCmd) Aliases() []string  { return nil }
func (c *DemoCmd) Synopsis() string   { return "Use a local workspace without a Google account" }
func (c *DemoCmd) Usage() string      { return "taskflow demo [--reset]" }
func (c *DemoCmd) NeedsSession() bool { return false }

func (c *DemoCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.reset, "reset", false, "")
}

func (c *DemoCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if c.reset {
		svc, err := env.Open(ctx, env.Config, session.ModeDemo, env.Logger)
		if err != nil {
			return report(errOut, err)
		}
		r, canReset := svc.(resetter)
		if !canReset {
			fmt.Fprintln(errOut, "error: demo workspace cannot be reset")
			return exitcode.BackendError
		}
		if err := r.Reset(ctx); err != nil {
			return report(errOut, err)
		}
	}

	s, err := env.Sessions.Start(session.ModeDemo, DemoEmail)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}
	if !env.Config.Quiet {
		fmt.Fprintf(out, "demo mode for %d days; data stays on this machine\n", env.Sessions.DaysLeft(s))
	}
	return exitcode.Success
}
