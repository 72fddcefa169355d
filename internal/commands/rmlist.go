package commands

import (
	"context"
	"flag"
	"io"
	"slices"
	"strings"

	"taskflow/internal/service"
)

func init() {
	Register(&RmListCmd{})
}

// RmListCmd implements the rmlist command.
type RmListCmd struct {
	force bool
}

func (c *RmListCmd) Name() string       { return "rmlist" }
func (c *RmListCmd) Aliases() []string  { return nil }
func (c *RmListCmd) Synopsis() string   { return "Delete a list" }
func (c *RmListCmd) Usage() string      { return "taskflow rmlist [--force] <list-name>" }
func (c *RmListCmd) NeedsSession() bool { return true }

func (c *RmListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.force, "force", false, "")
}

func (c *RmListCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		return report(errOut, userErrorf("list name required"))
	}

	app := env.newApp()
	lists, err := app.LoadLists(ctx)
	if err != nil {
		return report(errOut, err)
	}
	list, err := resolveList(lists, name)
	if err != nil {
		return report(errOut, err)
	}

	if !c.force {
		if err := app.SelectList(ctx, list.ID); err != nil {
			return report(errOut, err)
		}
		if slices.ContainsFunc(app.State().Tasks, func(t service.Task) bool { return !t.Completed() }) {
			return report(errOut, userErrorf("list not empty (use --force)"))
		}
	}

	if err := app.DeleteList(ctx, list.ID); err != nil {
		return report(errOut, err)
	}
	return ok(env, out)
}
