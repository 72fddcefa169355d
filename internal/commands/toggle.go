package commands

import (
	"context"
	"flag"
	"io"
)

func init() {
	Register(&ToggleCmd{})
	Register(&StarCmd{star: true})
	Register(&StarCmd{})
}

// ToggleCmd flips a task between completed and not completed.
type ToggleCmd struct {
	listName string
}

func (c *ToggleCmd) Name() string       { return "toggle" }
func (c *ToggleCmd) Aliases() []string  { return []string{"done"} }
func (c *ToggleCmd) Synopsis() string   { return "Mark a task completed, or reopen it" }
func (c *ToggleCmd) Usage() string      { return "taskflow toggle [--list <list-name>] <ref>" }
func (c *ToggleCmd) NeedsSession() bool { return true }

func (c *ToggleCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
}

func (c *ToggleCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	sel, task, err := selectTask(ctx, env, c.listName, args)
	if err != nil {
		return report(errOut, err)
	}
	if _, err := sel.app.ToggleTask(ctx, task.ID); err != nil {
		return report(errOut, err)
	}
	return ok(env, out)
}

// StarCmd implements star and unstar.
type StarCmd struct {
	star     bool
	listName string
}

func (c *StarCmd) Name() string {
	if c.star {
		return "star"
	}
	return "unstar"
}

func (c *StarCmd) Aliases() []string { return nil }

func (c *StarCmd) Synopsis() string {
	if c.star {
		return "Star a task"
	}
	return "Remove a task's star"
}

func (c *StarCmd) Usage() string {
	return "taskflow " + c.Name() + " [--list <list-name>] <ref>"
}

func (c *StarCmd) NeedsSession() bool { return true }

func (c *StarCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
}

func (c *StarCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	sel, task, err := selectTask(ctx, env, c.listName, args)
	if err != nil {
		return report(errOut, err)
	}
	if _, err := sel.app.StarTask(ctx, task.ID, c.star); err != nil {
		return report(errOut, err)
	}
	return ok(env, out)
}
