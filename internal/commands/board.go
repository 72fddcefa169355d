package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskflow/internal/exitcode"
	"taskflow/internal/output"
)

func init() {
	Register(&BoardCmd{})
}

// BoardCmd prints every list with its tasks.
type BoardCmd struct{}

func (c *BoardCmd) Name() string       { return "board" }
func (c *BoardCmd) Aliases() []string  { return nil }
func (c *BoardCmd) Synopsis() string   { return "Show all lists side by side" }
func (c *BoardCmd) Usage() string      { return "taskflow board" }
func (c *BoardCmd) NeedsSession() bool { return true }

func (c *BoardCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *BoardCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	board := env.newBoard()
	if err := board.Load(ctx); err != nil {
		return report(errOut, err)
	}

	st := board.State()
	if len(st.Columns) == 0 && !env.Config.Quiet {
		fmt.Fprintln(out, "no lists")
	}
	for i, col := range st.Columns {
		output.FormatListHeader(out, Letter(i), col.List.Title)
		n := output.FormatTree(out, board.Tree(col.List.ID, false), 1)
		output.FormatTree(out, board.Tree(col.List.ID, true), n+1)
	}
	return exitcode.Success
}
