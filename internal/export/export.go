// Package export writes selected task lists as CSV or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"taskflow/internal/service"
)

// Format is an export file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// Header is the CSV header row.
var Header = []string{"list", "title", "status", "starred", "due", "notes", "parent"}

// ParseFormat parses a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want csv or json)", s)
	}
}

// Section is one exported list with its tasks.
type Section struct {
	List  service.TaskList `json:"list"`
	Tasks []service.Task   `json:"tasks"`
}

// Select returns the sections for the given list ids in list order. An
// empty ids selects every list.
func Select(lists []service.TaskList, tasks map[string][]service.Task, ids []string) []Section {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	out := make([]Section, 0, len(lists))
	for _, l := range lists {
		if len(ids) > 0 && !want[l.ID] {
			continue
		}
		ts := tasks[l.ID]
		if ts == nil {
			ts = []service.Task{}
		}
		out = append(out, Section{List: l, Tasks: ts})
	}
	return out
}

// Write encodes sections to w in format f.
func Write(w io.Writer, f Format, sections []Section) error {
	switch f {
	case FormatCSV:
		return writeCSV(w, sections)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sections)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}

func writeCSV(w io.Writer, sections []Section) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, s := range sections {
		for _, t := range s.Tasks {
			row := []string{
				s.List.Title,
				t.Title,
				string(t.Status),
				strconv.FormatBool(t.Starred),
				t.Due,
				t.Notes,
				t.Parent,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
