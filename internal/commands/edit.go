package commands

import (
	"context"
	"flag"
	"io"
	"time"

	"taskflow/internal/metadata"
	"taskflow/internal/service"
)

func init() {
	Register(&EditCmd{})
}

// EditCmd applies a partial update to a task. Flags that are not given
// leave their field unchanged.
type EditCmd struct {
	listName string
	title    optString
	notes    optString
	due      optString
	clearDue bool
	at       optString
	clearAt  bool
}

// optString is a string flag that records whether it was given.
type optString struct {
	set   bool
	value string
}

func (o *optString) String() string { return o.value }

func (o *optString) Set(v string) error {
	o.set, o.value = true, v
	return nil
}

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Change a task's title, notes, due date or start time" }
func (c *EditCmd) Usage() string {
	return "taskflow edit [--list <list-name>] [--title <t>] [--notes <t>] [--due <date> | --clear-due] [--at <time> | --clear-at] <ref>"
}
func (c *EditCmd) NeedsSession() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	*c = EditCmd{}
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
	fs.Var(&c.title, "title", "")
	fs.Var(&c.notes, "notes", "")
	fs.Var(&c.due, "due", "")
	fs.BoolVar(&c.clearDue, "clear-due", false, "")
	fs.Var(&c.at, "at", "")
	fs.BoolVar(&c.clearAt, "clear-at", false, "")
}

func (c *EditCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if c.due.set && c.clearDue {
		return report(errOut, userErrorf("cannot use both --due and --clear-due"))
	}
	if c.at.set && c.clearAt {
		return report(errOut, userErrorf("cannot use both --at and --clear-at"))
	}

	var update service.TaskUpdate
	if c.title.set {
		if c.title.value == "" {
			return report(errOut, userErrorf("title cannot be empty"))
		}
		update.Title = &c.title.value
	}
	if c.notes.set {
		update.Notes = &c.notes.value
	}
	switch {
	case c.clearDue:
		update.Due = service.ClearDue()
	case c.due.set:
		due, err := parseDue(c.due.value)
		if err != nil {
			return report(errOut, err)
		}
		update.Due = service.SetDue(due)
	}

	editsStart := c.at.set || c.clearAt
	if update.Title == nil && update.Notes == nil && !update.Due.IsSet() && !editsStart {
		return report(errOut, userErrorf("nothing to change"))
	}

	var start time.Time
	if c.at.set {
		t, err := parseStart(c.at.value)
		if err != nil {
			return report(errOut, err)
		}
		start = t
	}

	sel, task, err := selectTask(ctx, env, c.listName, args)
	if err != nil {
		return report(errOut, err)
	}

	if editsStart {
		var meta string
		if c.clearAt {
			meta, err = metadata.WithoutStartTime(task.Metadata)
		} else {
			meta, err = metadata.WithStartTime(task.Metadata, start)
		}
		if err != nil {
			return report(errOut, err)
		}
		update.Metadata = &meta
	}

	if _, err := sel.app.EditTask(ctx, task.ID, update); err != nil {
		return report(errOut, err)
	}
	return ok(env, out)
}
