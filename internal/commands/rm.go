package commands

import (
	"context"
	"flag"
	"io"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct {
	listName string
}

func (c *RmCmd) Name() string       { return "rm" }
func (c *RmCmd) Aliases() []string  { return nil }
func (c *RmCmd) Synopsis() string   { return "Delete a task" }
func (c *RmCmd) Usage() string      { return "taskflow rm [--list <list-name>] <ref>" }
func (c *RmCmd) NeedsSession() bool { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
}

func (c *RmCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	sel, task, err := selectTask(ctx, env, c.listName, args)
	if err != nil {
		return report(errOut, err)
	}
	if err := sel.app.DeleteTask(ctx, task.ID); err != nil {
		return report(errOut, err)
	}
	return ok(env, out)
}
