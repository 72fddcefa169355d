package commands

import (
	"context"
	"flag"
	"io"

	"taskflow/internal/exitcode"
	"taskflow/internal/output"
)

func init() {
	Register(&ListsCmd{})
}

// ListsCmd implements the lists command.
type ListsCmd struct{}

func (c *ListsCmd) Name() string       { return "lists" }
func (c *ListsCmd) Aliases() []string  { return nil }
func (c *ListsCmd) Synopsis() string   { return "Print all lists" }
func (c *ListsCmd) Usage() string      { return "taskflow lists [common flags]" }
func (c *ListsCmd) NeedsSession() bool { return true }

func (c *ListsCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ListsCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	lists, err := env.newApp().LoadLists(ctx)
	if err != nil {
		return report(errOut, err)
	}

	for i, list := range lists {
		output.FormatListName(out, Letter(i), list)
	}

	return exitcode.Success
}
