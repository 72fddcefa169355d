package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskflow/internal/backend/googletasks"
	"taskflow/internal/exitcode"
	"taskflow/internal/service"
	"taskflow/internal/session"
)

func init() {
	Register(&MigrateCmd{})
}

// exporter is implemented by providers whose full state can be copied out.
type exporter interface {
	Export() service.Snapshot
}

// migrator is implemented by providers that can recreate a snapshot.
type migrator interface {
	Migrate(ctx context.Context, snap service.Snapshot) (googletasks.MigrationReport, error)
}

// MigrateCmd copies the demo workspace into the signed-in Google account
// and switches the session to it.
type MigrateCmd struct{}

func (c *MigrateCmd) Name() string       { return "migrate" }
func (c *MigrateCmd) Aliases() []string  { return nil }
func (c *MigrateCmd) Synopsis() string   { return "Copy demo tasks to your Google account" }
func (c *MigrateCmd) Usage() string      { return "taskflow migrate [common flags]" }
func (c *MigrateCmd) NeedsSession() bool { return false }

func (c *MigrateCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *MigrateCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if !env.Config.HasToken() {
		fmt.Fprintln(errOut, "error: not logged in (run: taskflow login)")
		return exitcode.AuthError
	}

	local, err := env.Open(ctx, env.Config, session.ModeDemo, env.Logger)
	if err != nil {
		return report(errOut, err)
	}
	src, canExport := local.(exporter)
	if !canExport {
		fmt.Fprintln(errOut, "error: demo workspace cannot be exported")
		return exitcode.BackendError
	}

	remote, err := env.Open(ctx, env.Config, session.ModeRemote, env.Logger)
	if err != nil {
		return report(errOut, err)
	}
	dst, canMigrate := remote.(migrator)
	if !canMigrate {
		fmt.Fprintln(errOut, "error: account does not accept migrated tasks")
		return exitcode.BackendError
	}

	rep, err := dst.Migrate(ctx, src.Export())
	if err != nil {
		return report(errOut, err)
	}

	if _, err := env.Sessions.Start(session.ModeRemote, ""); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}

	if !env.Config.Quiet {
		fmt.Fprintf(out, "migrated %d lists, %d tasks", rep.Lists, rep.Tasks)
		if rep.Failed > 0 {
			fmt.Fprintf(out, " (%d failed)", rep.Failed)
		}
		fmt.Fprintln(out)
	}
	if rep.Failed > 0 {
		return exitcode.BackendError
	}
	return exitcode.Success
}
