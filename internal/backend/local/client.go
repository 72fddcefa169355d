// Package local implements service.Service entirely on the storage port.
// It backs demo mode and is the source for migration to a remote account.
package local

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"taskflow/internal/cache"
	"taskflow/internal/service"
	"taskflow/internal/storage"
)

const (
	// ListsKey holds a JSON array of task lists.
	ListsKey = "tf_lists"

	// TasksKey holds a JSON object mapping list id to its tasks.
	TasksKey = "tf_tasks"
)

// Client implements service.Service against local storage.
type Client struct {
	mu      sync.Mutex
	ns      storage.Namespace
	lists   []service.TaskList
	tasks   map[string][]service.Task
	entropy io.Reader
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New loads persisted state from store, seeding sample data on first run.
func New(ctx context.Context, store storage.Store, opts ...Option) (*Client, error) {
	c := &Client{
		ns:      storage.NewNamespace(store, ""),
		entropy: ulid.Monotonic(rand.Reader, 0),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}

	var lists []service.TaskList
	hasLists, err := c.ns.GetJSON(ctx, ListsKey, &lists)
	if err != nil {
		return nil, fmt.Errorf("load lists: %w", err)
	}
	if hasLists {
		deduped := service.DedupeLists(lists)
		if len(deduped) != len(lists) {
			c.logger.Warn("dropped duplicate lists", "count", len(lists)-len(deduped))
		}
		c.lists = deduped
	} else {
		c.lists = seedLists()
	}

	var tasks map[string][]service.Task
	hasTasks, err := c.ns.GetJSON(ctx, TasksKey, &tasks)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	if hasTasks && tasks != nil {
		c.tasks = tasks
	} else {
		c.tasks = seedTasks()
	}

	return c, nil
}

func seedLists() []service.TaskList {
	return []service.TaskList{
		{ID: "list_1", Title: "My Tasks"},
		{ID: "list_2", Title: "Work"},
	}
}

func seedTasks() map[string][]service.Task {
	return map[string][]service.Task{
		"list_1": {
			{ID: "t1", Title: "Welcome to TaskFlow", Status: service.StatusNeedsAction},
			{ID: "t2", Title: "Try adding a task", Status: service.StatusNeedsAction},
		},
		"list_2": {},
	}
}

// save persists the whole state. Callers hold c.mu.
func (c *Client) save(ctx context.Context) error {
	if err := c.ns.PutJSON(ctx, ListsKey, c.lists); err != nil {
		return err
	}
	return c.ns.PutJSON(ctx, TasksKey, c.tasks)
}

func (c *Client) newID(prefix string) string {
	return prefix + ulid.MustNew(ulid.Timestamp(time.Now()), c.entropy).String()
}

func (c *Client) findTask(listID, taskID string) int {
	return slices.IndexFunc(c.tasks[listID], func(t service.Task) bool { return t.ID == taskID })
}

// GetTaskLists implements service.Service.
func (c *Client) GetTaskLists(ctx context.Context) ([]service.TaskList, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.lists), nil
}

// GetTasks implements service.Service.
func (c *Client) GetTasks(ctx context.Context, listID string) ([]service.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tasks := slices.Clone(c.tasks[listID])
	if tasks == nil {
		tasks = []service.Task{}
	}
	return tasks, nil
}

// FetchAllTasks implements service.Service by indexing the in-memory state.
func (c *Client) FetchAllTasks(ctx context.Context, lists []service.TaskList) (map[string][]service.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string][]service.Task, len(lists))
	for _, l := range lists {
		tasks := slices.Clone(c.tasks[l.ID])
		if tasks == nil {
			tasks = []service.Task{}
		}
		out[l.ID] = tasks
	}
	return out, nil
}

// InsertTask implements service.Service. New tasks go to the top of the list.
func (c *Client) InsertTask(ctx context.Context, listID string, nt service.NewTask) (service.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	task := service.Task{
		ID:       c.newID("t_"),
		Title:    nt.Title,
		Notes:    nt.Notes,
		Due:      nt.Due,
		Parent:   nt.Parent,
		Metadata: nt.Metadata,
		Status:   service.StatusNeedsAction,
	}
	c.tasks[listID] = append([]service.Task{task}, c.tasks[listID]...)
	if err := c.save(ctx); err != nil {
		return service.Task{}, err
	}
	return task, nil
}

// UpdateTask implements service.Service.
func (c *Client) UpdateTask(ctx context.Context, listID, taskID string, update service.TaskUpdate) (service.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.findTask(listID, taskID)
	if i < 0 {
		return service.Task{}, service.NewNotFound("task " + taskID)
	}
	c.tasks[listID][i] = update.Apply(c.tasks[listID][i])
	if err := c.save(ctx); err != nil {
		return service.Task{}, err
	}
	return c.tasks[listID][i], nil
}

// UpdateTaskStarred implements service.Service.
func (c *Client) UpdateTaskStarred(ctx context.Context, listID, taskID string, starred bool) (service.Task, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.findTask(listID, taskID)
	if i < 0 {
		return service.Task{}, service.NewNotFound("task " + taskID)
	}
	if c.tasks[listID][i].Starred == starred {
		return c.tasks[listID][i], nil
	}
	c.tasks[listID][i].Starred = starred
	if err := c.save(ctx); err != nil {
		return service.Task{}, err
	}
	return c.tasks[listID][i], nil
}

// DeleteTask implements service.Service.
func (c *Client) DeleteTask(ctx context.Context, listID, taskID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.findTask(listID, taskID)
	if i < 0 {
		return nil
	}
	c.tasks[listID] = slices.Delete(c.tasks[listID], i, i+1)
	return c.save(ctx)
}

// InsertTaskList implements service.Service. New lists go to the end.
func (c *Client) InsertTaskList(ctx context.Context, title string) (service.TaskList, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	list := service.TaskList{ID: c.newID("list_"), Title: title}
	c.lists = append(c.lists, list)
	c.tasks[list.ID] = []service.Task{}
	if err := c.save(ctx); err != nil {
		return service.TaskList{}, err
	}
	return list, nil
}

// UpdateTaskList implements service.Service.
func (c *Client) UpdateTaskList(ctx context.Context, listID, title string) (service.TaskList, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := slices.IndexFunc(c.lists, func(l service.TaskList) bool { return l.ID == listID })
	if i < 0 {
		return service.TaskList{}, service.NewNotFound("list " + listID)
	}
	c.lists[i].Title = title
	if err := c.save(ctx); err != nil {
		return service.TaskList{}, err
	}
	return c.lists[i], nil
}

// DeleteTaskList implements service.Service.
func (c *Client) DeleteTaskList(ctx context.Context, listID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := slices.IndexFunc(c.lists, func(l service.TaskList) bool { return l.ID == listID })
	if i < 0 {
		return nil
	}
	c.lists = slices.Delete(c.lists, i, i+1)
	delete(c.tasks, listID)
	return c.save(ctx)
}

// Cache implements service.Service. Local state needs no cache.
func (c *Client) Cache() service.Cache {
	return cache.Nop{}
}

// Export returns a copy of the full state.
func (c *Client) Export() service.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := service.Snapshot{
		Lists: slices.Clone(c.lists),
		Tasks: make(map[string][]service.Task, len(c.tasks)),
	}
	for id, tasks := range c.tasks {
		snap.Tasks[id] = slices.Clone(tasks)
	}
	return snap
}

// Reset discards all local state and persists the seed data.
func (c *Client) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists = seedLists()
	c.tasks = seedTasks()
	return c.save(ctx)
}

var _ service.Service = (*Client)(nil)
