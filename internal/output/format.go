// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"taskflow/internal/hierarchy"
	"taskflow/internal/service"
)

const (
	// ListSeparator is the separator line for list sections.
	ListSeparator = "------------"
)

// Order returns the tasks of a list in display order: the active tree
// followed by the completed tree, each flattened depth first. Task numbers
// shown by the CLI are 1-based indexes into this order.
func Order(tasks []service.Task) (ordered []service.Task, depths []int) {
	var active, done []service.Task
	for _, t := range tasks {
		if t.Completed() {
			done = append(done, t)
		} else {
			active = append(active, t)
		}
	}
	ordered, depths = hierarchy.Flatten(hierarchy.Build(active))
	doneTasks, doneDepths := hierarchy.Flatten(hierarchy.Build(done))
	return append(ordered, doneTasks...), append(depths, doneDepths...)
}

// FormatTask formats a task line.
// Format: "{N:>4}  {INDENT}[ ] {*}{TITLE}{  due DATE}\n"
func FormatTask(w io.Writer, num, depth int, task service.Task) {
	check := "[ ]"
	if task.Completed() {
		check = "[x]"
	}
	star := ""
	if task.Starred {
		star = "* "
	}
	due := ""
	if d := FormatDue(task.Due); d != "" {
		due = "  due " + d
	}
	fmt.Fprintf(w, "%4d  %s%s %s%s%s\n", num, strings.Repeat("  ", depth), check, star, normalizeTitle(task.Title), due)
}

// FormatTree prints a forest depth first, numbering lines from first, and
// returns how many lines it printed.
func FormatTree(w io.Writer, roots []*hierarchy.Node, first int) int {
	tasks, depths := hierarchy.Flatten(roots)
	for i, t := range tasks {
		FormatTask(w, first+i, depths[i], t)
	}
	return len(tasks)
}

// FormatTasks prints tasks in display order and returns how many it printed.
func FormatTasks(w io.Writer, tasks []service.Task) int {
	ordered, depths := Order(tasks)
	for i, t := range ordered {
		FormatTask(w, i+1, depths[i], t)
	}
	return len(ordered)
}

// FormatListHeader formats a list section header with its reference letter.
func FormatListHeader(w io.Writer, letter rune, title string) {
	fmt.Fprintln(w, ListSeparator)
	fmt.Fprintf(w, "%c  %s\n", letter, normalizeListTitle(title))
	fmt.Fprintln(w, ListSeparator)
}

// FormatListName formats a list name for the lists command.
func FormatListName(w io.Writer, letter rune, list service.TaskList) {
	fmt.Fprintf(w, "%c  %s\n", letter, normalizeListTitle(list.Title))
}

// FormatDue returns the calendar date of an RFC 3339 due value.
func FormatDue(due string) string {
	if len(due) >= len("2006-01-02") {
		return due[:len("2006-01-02")]
	}
	return due
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

// normalizeListTitle normalizes a list title for display.
// Empty or whitespace-only titles become "(untitled)".
func normalizeListTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
