package googletasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	tasks "google.golang.org/api/tasks/v1"
)

// fakeAPI is an in-memory Google Tasks REST server.
type fakeAPI struct {
	mu       sync.Mutex
	lists    []*tasks.TaskList
	tasks    map[string][]*tasks.Task
	pageSize int
	nextID   int

	// fail returns a status code to reject the request with, or 0.
	fail func(r *http.Request) int

	requests []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{tasks: map[string][]*tasks.Task{}, pageSize: 100}
}

func (f *fakeAPI) addList(id, title string) {
	f.lists = append(f.lists, &tasks.TaskList{Id: id, Title: title})
	f.tasks[id] = nil
}

func (f *fakeAPI) addTask(listID string, t *tasks.Task) {
	if t.Status == "" {
		t.Status = "needsAction"
	}
	f.tasks[listID] = append(f.tasks[listID], t)
}

func (f *fakeAPI) task(listID, taskID string) *tasks.Task {
	for _, t := range f.tasks[listID] {
		if t.Id == taskID {
			return t
		}
	}
	return nil
}

func (f *fakeAPI) count(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/tasks/v1/")
	f.requests = append(f.requests, r.Method+" "+path)

	if f.fail != nil {
		if code := f.fail(r); code != 0 {
			writeError(w, code, http.StatusText(code))
			return
		}
	}

	seg := strings.Split(path, "/")
	switch {
	case len(seg) == 3 && seg[0] == "users":
		f.serveLists(w, r)
	case len(seg) == 4 && seg[0] == "users":
		f.serveList(w, r, seg[3])
	case len(seg) == 3 && seg[0] == "lists" && seg[2] == "tasks":
		f.serveTasks(w, r, seg[1])
	case len(seg) == 4 && seg[0] == "lists" && seg[2] == "tasks":
		f.serveTask(w, r, seg[1], seg[3])
	default:
		writeError(w, http.StatusNotFound, "no route")
	}
}

func (f *fakeAPI) serveLists(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, &tasks.TaskLists{Items: f.lists})
	case http.MethodPost:
		var body tasks.TaskList
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.nextID++
		list := &tasks.TaskList{Id: fmt.Sprintf("rl%d", f.nextID), Title: body.Title}
		f.addList(list.Id, list.Title)
		writeJSON(w, list)
	}
}

func (f *fakeAPI) serveList(w http.ResponseWriter, r *http.Request, listID string) {
	idx := -1
	for i, l := range f.lists {
		if l.Id == listID {
			idx = i
		}
	}
	if idx < 0 {
		writeError(w, http.StatusNotFound, "list not found")
		return
	}
	switch r.Method {
	case http.MethodPatch:
		var body tasks.TaskList
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.lists[idx].Title = body.Title
		writeJSON(w, f.lists[idx])
	case http.MethodDelete:
		f.lists = append(f.lists[:idx], f.lists[idx+1:]...)
		delete(f.tasks, listID)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (f *fakeAPI) serveTasks(w http.ResponseWriter, r *http.Request, listID string) {
	if _, ok := f.tasks[listID]; !ok {
		writeError(w, http.StatusNotFound, "list not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		items := f.tasks[listID]
		start, _ := strconv.Atoi(r.URL.Query().Get("pageToken"))
		end := min(start+f.pageSize, len(items))
		resp := &tasks.Tasks{Items: items[start:end]}
		if end < len(items) {
			resp.NextPageToken = strconv.Itoa(end)
		}
		writeJSON(w, resp)
	case http.MethodPost:
		var body tasks.Task
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.nextID++
		body.Id = fmt.Sprintf("rt%d", f.nextID)
		body.Status = "needsAction"
		body.Parent = r.URL.Query().Get("parent")
		f.tasks[listID] = append([]*tasks.Task{&body}, f.tasks[listID]...)
		writeJSON(w, &body)
	}
}

func (f *fakeAPI) serveTask(w http.ResponseWriter, r *http.Request, listID, taskID string) {
	t := f.task(listID, taskID)
	if t == nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, t)
	case http.MethodPatch:
		var body map[string]json.RawMessage
		_ = json.NewDecoder(r.Body).Decode(&body)
		for key, dst := range map[string]*string{"title": &t.Title, "notes": &t.Notes, "status": &t.Status, "due": &t.Due} {
			raw, ok := body[key]
			if !ok {
				continue
			}
			if string(raw) == "null" {
				*dst = ""
				continue
			}
			_ = json.Unmarshal(raw, dst)
		}
		writeJSON(w, t)
	case http.MethodDelete:
		items := f.tasks[listID]
		for i, it := range items {
			if it.Id == taskID {
				f.tasks[listID] = append(items[:i], items[i+1:]...)
				break
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": msg},
	})
}

func newTestClient(t *testing.T, api *fakeAPI, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	opts = append([]Option{WithEndpoint(srv.URL + "/")}, opts...)
	c, err := NewWithHTTPClient(context.Background(), srv.Client(), opts...)
	require.NoError(t, err)
	return c
}

// peekBody reads the request body and restores it for the handler.
func peekBody(r *http.Request) string {
	data, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(data))
	return string(data)
}
