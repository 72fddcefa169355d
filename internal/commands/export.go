package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"taskflow/internal/exitcode"
	"taskflow/internal/export"
	"taskflow/internal/service"
)

func init() {
	Register(&ExportCmd{})
}

// listNames collects repeated --list flags.
type listNames []string

func (l *listNames) String() string { return strings.Join(*l, ",") }

func (l *listNames) Set(v string) error {
	*l = append(*l, v)
	return nil
}

// ExportCmd writes selected lists as CSV or JSON.
type ExportCmd struct {
	format string
	lists  listNames
	path   string
}

func (c *ExportCmd) Name() string      { return "export" }
func (c *ExportCmd) Aliases() []string { return nil }
func (c *ExportCmd) Synopsis() string  { return "Export lists to CSV or JSON" }
func (c *ExportCmd) Usage() string {
	return "taskflow export [--format csv|json] [--list <list-name>]... [--out <file>]"
}
func (c *ExportCmd) NeedsSession() bool { return true }

func (c *ExportCmd) RegisterFlags(fs *flag.FlagSet) {
	c.lists = nil
	fs.StringVar(&c.format, "format", "csv", "")
	fs.Var(&c.lists, "list", "")
	fs.StringVar(&c.path, "out", "", "")
}

func (c *ExportCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	format, err := export.ParseFormat(c.format)
	if err != nil {
		return report(errOut, &userError{msg: err.Error()})
	}

	board := env.newBoard()
	if err := board.Load(ctx); err != nil {
		return report(errOut, err)
	}
	st := board.State()

	lists := make([]service.TaskList, len(st.Columns))
	tasks := make(map[string][]service.Task, len(st.Columns))
	for i, col := range st.Columns {
		lists[i] = col.List
		tasks[col.List.ID] = col.Tasks
	}

	var ids []string
	for _, name := range c.lists {
		l, err := resolveList(lists, name)
		if err != nil {
			return report(errOut, err)
		}
		ids = append(ids, l.ID)
	}
	sections := export.Select(lists, tasks, ids)

	w := out
	if c.path != "" {
		f, err := os.OpenFile(c.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		defer f.Close()
		w = f
	}

	if err := export.Write(w, format, sections); err != nil {
		fmt.Fprintf(errOut, "error: export failed: %v\n", err)
		return exitcode.BackendError
	}
	if c.path != "" {
		return ok(env, out)
	}
	return exitcode.Success
}
