package commands

import (
	"context"
	"flag"
	"io"
	"strings"

	"taskflow/internal/metadata"
	"taskflow/internal/service"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	listName string
	notes    string
	due      string
	at       string
	parent   string
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "taskflow add [--list <list-name>] [--notes <text>] [--due <date>] [--at <time>] [--parent <n>] <title...>"
}
func (c *AddCmd) NeedsSession() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
	fs.StringVar(&c.notes, "notes", "", "")
	fs.StringVar(&c.due, "due", "", "")
	fs.StringVar(&c.at, "at", "", "")
	fs.StringVar(&c.parent, "parent", "", "")
}

func (c *AddCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return report(errOut, userErrorf("title required"))
	}

	nt := service.NewTask{Title: title, Notes: c.notes}
	if c.due != "" {
		due, err := parseDue(c.due)
		if err != nil {
			return report(errOut, err)
		}
		nt.Due = due
	}
	if c.at != "" {
		start, err := parseStart(c.at)
		if err != nil {
			return report(errOut, err)
		}
		if nt.Metadata, err = metadata.WithStartTime("", start); err != nil {
			return report(errOut, err)
		}
	}

	var parentRef TaskRef
	if c.parent != "" {
		ref, err := ParseTaskRef([]string{c.parent})
		if err != nil || ref.HasLetter {
			return report(errOut, userErrorf("invalid parent reference: %s", c.parent))
		}
		parentRef = ref
	}

	sel, err := selectList(ctx, env, c.listName, 0)
	if err != nil {
		return report(errOut, err)
	}
	if c.parent != "" {
		parent, err := sel.task(parentRef.TaskNum)
		if err != nil {
			return report(errOut, err)
		}
		nt.Parent = parent.ID
	}

	if _, err := sel.app.AddTask(ctx, nt); err != nil {
		return report(errOut, err)
	}
	return ok(env, out)
}
