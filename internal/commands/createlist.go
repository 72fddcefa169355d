package commands

import (
	"context"
	"flag"
	"io"
	"strings"
)

func init() {
	Register(&CreateListCmd{})
	Register(&RenameListCmd{})
}

// CreateListCmd implements the createlist command.
type CreateListCmd struct{}

func (c *CreateListCmd) Name() string       { return "createlist" }
func (c *CreateListCmd) Aliases() []string  { return []string{"addlist"} }
func (c *CreateListCmd) Synopsis() string   { return "Create a new list" }
func (c *CreateListCmd) Usage() string      { return "taskflow createlist [common flags] <list-name>" }
func (c *CreateListCmd) NeedsSession() bool { return true }

func (c *CreateListCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *CreateListCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		return report(errOut, userErrorf("list name required"))
	}

	app := env.newApp()
	lists, err := app.LoadLists(ctx)
	if err != nil {
		return report(errOut, err)
	}
	if _, err := resolveList(lists, name); err == nil {
		return report(errOut, userErrorf("list already exists: %s", name))
	}

	if _, err := app.CreateList(ctx, name); err != nil {
		return report(errOut, err)
	}
	return ok(env, out)
}

// RenameListCmd implements the renamelist command.
type RenameListCmd struct{}

func (c *RenameListCmd) Name() string       { return "renamelist" }
func (c *RenameListCmd) Aliases() []string  { return nil }
func (c *RenameListCmd) Synopsis() string   { return "Rename a list" }
func (c *RenameListCmd) Usage() string      { return "taskflow renamelist [common flags] <list-name> <new-name>" }
func (c *RenameListCmd) NeedsSession() bool { return true }

func (c *RenameListCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RenameListCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) != 2 {
		return report(errOut, userErrorf("usage: %s", c.Usage()))
	}
	newName := strings.TrimSpace(args[1])
	if newName == "" {
		return report(errOut, userErrorf("new list name required"))
	}

	app := env.newApp()
	lists, err := app.LoadLists(ctx)
	if err != nil {
		return report(errOut, err)
	}
	list, err := resolveList(lists, args[0])
	if err != nil {
		return report(errOut, err)
	}
	if other, err := resolveList(lists, newName); err == nil && other.ID != list.ID {
		return report(errOut, userErrorf("list already exists: %s", newName))
	}

	if _, err := app.RenameList(ctx, list.ID, newName); err != nil {
		return report(errOut, err)
	}
	return ok(env, out)
}
