// Package cache implements the read-through cache providers expose through
// service.Cache. Entries only shorten time to first paint; they never expire
// and never stand in for a network fetch.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"taskflow/internal/service"
	"taskflow/internal/storage"
)

// Prefix namespaces cache keys in the shared store.
const Prefix = "taskflow_cache_"

const listsKey = "task_lists"

// Entry is the persisted form of a cache value.
type Entry struct {
	Timestamp int64           `json:"timestamp"` // unix milliseconds
	Data      json.RawMessage `json:"data"`
}

// Store is a cache persisted through a storage.Store.
type Store struct {
	ns  storage.Namespace
	now func() time.Time
}

// New creates a cache over store.
func New(store storage.Store) *Store {
	return &Store{ns: storage.NewNamespace(store, Prefix), now: time.Now}
}

// TasksKey returns the cache name for a list's tasks.
func TasksKey(listID string) string {
	return "tasks_" + listID
}

// Enabled implements service.Cache.
func (c *Store) Enabled() bool { return true }

// TaskLists implements service.Cache.
func (c *Store) TaskLists(ctx context.Context) ([]service.TaskList, time.Time, bool) {
	var lists []service.TaskList
	ts, ok := c.read(ctx, listsKey, &lists)
	return lists, ts, ok
}

// SaveTaskLists implements service.Cache.
func (c *Store) SaveTaskLists(ctx context.Context, lists []service.TaskList) error {
	return c.write(ctx, listsKey, lists)
}

// Tasks implements service.Cache.
func (c *Store) Tasks(ctx context.Context, listID string) ([]service.Task, time.Time, bool) {
	var tasks []service.Task
	ts, ok := c.read(ctx, TasksKey(listID), &tasks)
	return tasks, ts, ok
}

// SaveTasks implements service.Cache.
func (c *Store) SaveTasks(ctx context.Context, listID string, tasks []service.Task) error {
	return c.write(ctx, TasksKey(listID), tasks)
}

// read treats undecodable entries as misses.
func (c *Store) read(ctx context.Context, name string, v any) (time.Time, bool) {
	var e Entry
	ok, err := c.ns.GetJSON(ctx, name, &e)
	if err != nil || !ok {
		return time.Time{}, false
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(e.Timestamp), true
}

func (c *Store) write(ctx context.Context, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.ns.PutJSON(ctx, name, Entry{Timestamp: c.now().UnixMilli(), Data: data})
}

// Nop is the null cache for providers without caching.
type Nop struct{}

// Enabled implements service.Cache.
func (Nop) Enabled() bool { return false }

// TaskLists implements service.Cache.
func (Nop) TaskLists(context.Context) ([]service.TaskList, time.Time, bool) {
	return nil, time.Time{}, false
}

// SaveTaskLists implements service.Cache.
func (Nop) SaveTaskLists(context.Context, []service.TaskList) error { return nil }

// Tasks implements service.Cache.
func (Nop) Tasks(context.Context, string) ([]service.Task, time.Time, bool) {
	return nil, time.Time{}, false
}

// SaveTasks implements service.Cache.
func (Nop) SaveTasks(context.Context, string, []service.Task) error { return nil }

var (
	_ service.Cache = (*Store)(nil)
	_ service.Cache = Nop{}
)
