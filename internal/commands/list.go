package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"taskflow/internal/exitcode"
	"taskflow/internal/output"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Handles both `taskflow` (no args) and `taskflow list <list-name>`.
type ListCmd struct {
	hideCompleted bool
}

func (c *ListCmd) Name() string       { return "list" }
func (c *ListCmd) Aliases() []string  { return []string{"ls"} }
func (c *ListCmd) Synopsis() string   { return "List tasks" }
func (c *ListCmd) Usage() string      { return "taskflow list [--active] [<list-name>]" }
func (c *ListCmd) NeedsSession() bool { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.hideCompleted, "active", false, "")
}

func (c *ListCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	sel, err := selectList(ctx, env, strings.Join(args, " "), 0)
	if err != nil {
		return report(errOut, err)
	}

	idx := 0
	for i, l := range sel.lists {
		if l.ID == sel.list.ID {
			idx = i
		}
	}

	tasks := sel.app.State().Tasks
	if c.hideCompleted {
		active := tasks[:0:0]
		for _, t := range tasks {
			if !t.Completed() {
				active = append(active, t)
			}
		}
		tasks = active
	}

	output.FormatListHeader(out, Letter(idx), sel.list.Title)
	if output.FormatTasks(out, tasks) == 0 && !env.Config.Quiet {
		fmt.Fprintln(out, "no tasks found")
	}
	return exitcode.Success
}
