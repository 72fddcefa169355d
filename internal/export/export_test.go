package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"taskflow/internal/service"
)

var (
	lists = []service.TaskList{{ID: "a", Title: "Home"}, {ID: "b", Title: "Work"}}
	tasks = map[string][]service.Task{
		"a": {{ID: "1", Title: "Buy milk, eggs", Status: service.StatusNeedsAction, Starred: true, Notes: "two \"large\""}},
		"b": {{ID: "2", Title: "Report", Status: service.StatusCompleted, Due: "2026-03-01T00:00:00.000Z", Parent: "9"}},
	}
)

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" CSV ")
	require.NoError(t, err)
	require.Equal(t, FormatCSV, f)

	_, err = ParseFormat("xml")
	require.Error(t, err)
}

func TestSelect(t *testing.T) {
	all := Select(lists, tasks, nil)
	require.Len(t, all, 2)

	only := Select(lists, map[string][]service.Task{}, []string{"b"})
	require.Len(t, only, 1)
	require.Equal(t, "Work", only[0].List.Title)
	require.NotNil(t, only[0].Tasks)
}

func TestWrite_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, Select(lists, tasks, nil)))

	want := "list,title,status,starred,due,notes,parent\n" +
		"Home,\"Buy milk, eggs\",needsAction,true,,\"two \"\"large\"\"\",\n" +
		"Work,Report,completed,false,2026-03-01T00:00:00.000Z,,9\n"
	require.Equal(t, want, buf.String())
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, Select(lists, tasks, []string{"a"})))

	var got []Section
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	require.Equal(t, "Home", got[0].List.Title)
	require.True(t, got[0].Tasks[0].Starred)
}
