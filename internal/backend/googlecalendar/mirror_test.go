package googlecalendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	calendar "google.golang.org/api/calendar/v3"

	"taskflow/internal/metadata"
	"taskflow/internal/service"
)

type fakeCalendar struct {
	mu sync.Mutex

	// status, when set, rejects every request with that code.
	status int

	calendars []*calendar.CalendarListEntry
	events    map[string]*calendar.Event
	nextID    int
	inserts   int
}

func (f *fakeCalendar) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.status != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.status)
		fmt.Fprintf(w, `{"error":{"code":%d,"message":"rejected"}}`, f.status)
		return
	}

	seg := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.URL.Path == "/users/me/calendarList":
		writeJSON(w, &calendar.CalendarList{Items: f.calendars})
	case r.URL.Path == "/calendars" && r.Method == http.MethodPost:
		var c calendar.Calendar
		_ = json.NewDecoder(r.Body).Decode(&c)
		f.nextID++
		c.Id = fmt.Sprintf("cal%d", f.nextID)
		f.calendars = append(f.calendars, &calendar.CalendarListEntry{Id: c.Id, Summary: c.Summary})
		f.inserts++
		writeJSON(w, &c)
	case len(seg) == 3 && seg[2] == "events" && r.Method == http.MethodPost:
		var ev calendar.Event
		_ = json.NewDecoder(r.Body).Decode(&ev)
		f.nextID++
		ev.Id = fmt.Sprintf("ev%d", f.nextID)
		f.events[ev.Id] = &ev
		writeJSON(w, &ev)
	case len(seg) == 4 && seg[2] == "events":
		ev, ok := f.events[seg[3]]
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Not Found"}}`))
			return
		}
		switch r.Method {
		case http.MethodPatch:
			var patch calendar.Event
			_ = json.NewDecoder(r.Body).Decode(&patch)
			ev.Summary = patch.Summary
			ev.Description = patch.Description
			ev.Start = patch.Start
			ev.End = patch.End
			writeJSON(w, ev)
		case http.MethodDelete:
			delete(f.events, seg[3])
			w.WriteHeader(http.StatusNoContent)
		}
	default:
		http.NotFound(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newTestMirror(t *testing.T, f *fakeCalendar, opts ...Option) *Mirror {
	t.Helper()
	if f.events == nil {
		f.events = map[string]*calendar.Event{}
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithEndpoint(srv.URL + "/")}, opts...)
	m, err := NewWithHTTPClient(context.Background(), srv.Client(), opts...)
	require.NoError(t, err)
	return m
}

func TestEnsureCalendar_CreatesOnce(t *testing.T) {
	f := &fakeCalendar{}
	m := newTestMirror(t, f)
	ctx := context.Background()

	id, err := m.EnsureCalendar(ctx)
	require.NoError(t, err)
	again, err := m.EnsureCalendar(ctx)
	require.NoError(t, err)
	require.Equal(t, id, again)
	require.Equal(t, 1, f.inserts)
}

func TestEnsureCalendar_FindsExisting(t *testing.T) {
	f := &fakeCalendar{calendars: []*calendar.CalendarListEntry{
		{Id: "primary", Summary: "me@example.com"},
		{Id: "existing", Summary: CalendarName},
	}}
	m := newTestMirror(t, f)

	id, err := m.EnsureCalendar(context.Background())
	require.NoError(t, err)
	require.Equal(t, "existing", id)
	require.Zero(t, f.inserts)
}

func TestSync_Lifecycle(t *testing.T) {
	f := &fakeCalendar{}
	m := newTestMirror(t, f)
	ctx := context.Background()

	start := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	frag, err := metadata.WithStartTime("", start)
	require.NoError(t, err)
	task := service.Task{ID: "t1", Title: "Dentist", Metadata: frag}

	frag, err = m.Sync(ctx, task)
	require.NoError(t, err)
	eventID := metadata.EventID(frag)
	require.NotEmpty(t, eventID)

	ev := f.events[eventID]
	require.Equal(t, "Dentist", ev.Summary)
	require.Equal(t, "2026-03-01T09:30:00Z", ev.Start.DateTime)
	require.Equal(t, "2026-03-01T10:30:00Z", ev.End.DateTime)
	require.Equal(t, "t1", ev.ExtendedProperties.Private["taskId"])
	require.Equal(t, "true", ev.ExtendedProperties.Private["isTaskFlowEvent"])

	task.Title = "Dentist (moved)"
	task.Metadata = frag
	same, err := m.Sync(ctx, task)
	require.NoError(t, err)
	require.Equal(t, frag, same)
	require.Equal(t, "Dentist (moved)", f.events[eventID].Summary)

	task.Metadata, err = metadata.WithoutStartTime(frag)
	require.NoError(t, err)
	cleared, err := m.Sync(ctx, task)
	require.NoError(t, err)
	require.Empty(t, cleared)
	require.Empty(t, f.events)
}

func TestSync_RecreatesDeletedEvent(t *testing.T) {
	f := &fakeCalendar{}
	m := newTestMirror(t, f)

	frag := `[TFCAL]{"_st":"2026-03-01T09:30:00Z","_ev":"gone"}[/TFCAL]`
	got, err := m.Sync(context.Background(), service.Task{ID: "t1", Title: "x", Metadata: frag})
	require.NoError(t, err)
	require.NotEqual(t, "gone", metadata.EventID(got))
	require.Len(t, f.events, 1)
}

func TestDeleteEvent_MissingTolerated(t *testing.T) {
	m := newTestMirror(t, &fakeCalendar{})
	require.NoError(t, m.DeleteEvent(context.Background(), "nope"))
	require.NoError(t, m.Remove(context.Background(), service.Task{ID: "t"}))
}

func TestUnauthenticated_RunsHook(t *testing.T) {
	hooks := 0
	m := newTestMirror(t, &fakeCalendar{status: http.StatusUnauthorized}, WithUnauthenticatedHook(func() { hooks++ }))

	_, err := m.EnsureCalendar(context.Background())
	require.True(t, service.Is(err, service.ErrUnauthenticated), "got %v", err)
	require.Equal(t, 1, hooks)
}
