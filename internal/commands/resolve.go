package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"taskflow/internal/coordinator"
	"taskflow/internal/exitcode"
	"taskflow/internal/output"
	"taskflow/internal/service"
)

// userError is a mistake in the command line, reported with exit code 1.
type userError struct {
	msg string
}

func (e *userError) Error() string { return e.msg }

func userErrorf(format string, args ...any) error {
	return &userError{msg: fmt.Sprintf(format, args...)}
}

// report prints err and returns the matching exit code.
func report(errOut io.Writer, err error) int {
	var ue *userError
	switch {
	case errors.As(err, &ue):
		fmt.Fprintf(errOut, "error: %s\n", ue.msg)
		return exitcode.UserError
	case errors.Is(err, coordinator.ErrPending):
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	case errors.Is(err, context.Canceled):
		fmt.Fprintln(errOut, "error: cancelled")
	case exitcode.IsAuth(err):
		fmt.Fprintf(errOut, "error: auth error: %v\n", err)
	case exitcode.For(err) == exitcode.BackendError:
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	default:
		fmt.Fprintf(errOut, "error: %v\n", err)
	}
	return exitcode.For(err)
}

// ok prints the success marker unless quiet.
func ok(env *Env, out io.Writer) int {
	if !env.Config.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// resolveList finds a list by id or case-insensitive title.
func resolveList(lists []service.TaskList, name string) (service.TaskList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return service.TaskList{}, userErrorf("list name required")
	}
	for _, l := range lists {
		if l.ID == name {
			return l, nil
		}
	}
	var matches []service.TaskList
	for _, l := range lists {
		if strings.EqualFold(strings.TrimSpace(l.Title), name) {
			matches = append(matches, l)
		}
	}
	switch len(matches) {
	case 0:
		return service.TaskList{}, userErrorf("list not found: %s", name)
	case 1:
		return matches[0], nil
	default:
		return service.TaskList{}, userErrorf("ambiguous list name: %s", name)
	}
}

// resolveLetter finds the list a reference letter points at.
func resolveLetter(lists []service.TaskList, letter rune) (service.TaskList, error) {
	for i, l := range lists {
		if Letter(i) == letter {
			return l, nil
		}
	}
	return service.TaskList{}, userErrorf("list letter not found: %c", letter)
}

// selection is a list chosen on the command line, loaded into an App.
type selection struct {
	app   *coordinator.App
	list  service.TaskList
	lists []service.TaskList
}

// selectList loads the lists and selects one by --list name, by reference
// letter, or the first list.
func selectList(ctx context.Context, env *Env, listName string, letter rune) (selection, error) {
	if listName != "" && letter != 0 {
		return selection{}, userErrorf("cannot use both --list and list letter")
	}

	app := env.newApp()
	lists, err := app.LoadLists(ctx)
	if err != nil {
		return selection{}, err
	}

	var list service.TaskList
	switch {
	case listName != "":
		list, err = resolveList(lists, listName)
	case letter != 0:
		list, err = resolveLetter(lists, letter)
	case len(lists) == 0:
		err = userErrorf("no lists (run: taskflow createlist <name>)")
	default:
		list = lists[0]
	}
	if err != nil {
		return selection{}, err
	}

	if err := app.SelectList(ctx, list.ID); err != nil {
		if !service.Is(err, service.ErrTransportUnavailable) {
			return selection{}, err
		}
		// One retry for a dropped connection.
		env.Logger.Debug("retrying task fetch", "list", list.ID, "err", err)
		if err := app.Refresh(ctx); err != nil {
			return selection{}, err
		}
	}
	return selection{app: app, list: list, lists: lists}, nil
}

// task returns the task shown as number num in the selected list.
func (s selection) task(num int) (service.Task, error) {
	ordered, _ := output.Order(s.app.State().Tasks)
	if num < 1 || num > len(ordered) {
		return service.Task{}, userErrorf("task number out of range: %d", num)
	}
	return ordered[num-1], nil
}

// selectTask resolves a task reference in args, honouring --list.
func selectTask(ctx context.Context, env *Env, listName string, args []string) (selection, service.Task, error) {
	ref, err := ParseTaskRef(args)
	if err != nil {
		return selection{}, service.Task{}, &userError{msg: err.Error()}
	}
	if ref.TaskNum < 1 {
		return selection{}, service.Task{}, userErrorf("task number out of range: %d", ref.TaskNum)
	}
	if extra := args[ref.Consumed(args):]; len(extra) > 0 {
		return selection{}, service.Task{}, userErrorf("unexpected argument: %s", extra[0])
	}

	var letter rune
	if ref.HasLetter {
		letter = ref.Letter
	}
	sel, err := selectList(ctx, env, listName, letter)
	if err != nil {
		return selection{}, service.Task{}, err
	}
	task, err := sel.task(ref.TaskNum)
	if err != nil {
		return selection{}, service.Task{}, err
	}
	return sel, task, nil
}
