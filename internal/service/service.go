package service

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Service defines the interface every task backend implements.
// Coordinators and commands never import a backend SDK directly.
type Service interface {
	// GetTaskLists returns all task lists in backend order.
	GetTaskLists(ctx context.Context) ([]TaskList, error)

	// GetTasks returns every task of a list, completed ones included.
	// Paginated backends drain all pages before returning.
	GetTasks(ctx context.Context, listID string) ([]Task, error)

	// FetchAllTasks returns the tasks of each list keyed by list id.
	// A failure on one list yields an empty slice for it and is logged, not returned.
	FetchAllTasks(ctx context.Context, lists []TaskList) (map[string][]Task, error)

	// InsertTask creates a task. The backend assigns the id.
	// New tasks are not completed and not starred.
	InsertTask(ctx context.Context, listID string, task NewTask) (Task, error)

	// UpdateTask applies a partial update and returns the stored task.
	UpdateTask(ctx context.Context, listID, taskID string, update TaskUpdate) (Task, error)

	// UpdateTaskStarred sets the starred flag. Idempotent.
	UpdateTaskStarred(ctx context.Context, listID, taskID string, starred bool) (Task, error)

	// DeleteTask deletes a task. Deleting a missing task is not an error.
	DeleteTask(ctx context.Context, listID, taskID string) error

	// InsertTaskList creates a task list.
	InsertTaskList(ctx context.Context, title string) (TaskList, error)

	// UpdateTaskList renames a task list.
	UpdateTaskList(ctx context.Context, listID, title string) (TaskList, error)

	// DeleteTaskList deletes a task list and its tasks.
	DeleteTaskList(ctx context.Context, listID string) error

	// Cache returns the provider's read-through cache.
	// Providers without one return a null cache, never nil.
	Cache() Cache
}

// Cache is the read-through cache capability of a provider.
// Entries are written only after a successful fetch and never replace the fetch itself.
type Cache interface {
	// Enabled reports whether reads can ever hit.
	Enabled() bool

	// TaskLists returns cached lists and when they were stored.
	TaskLists(ctx context.Context) ([]TaskList, time.Time, bool)

	// SaveTaskLists stores lists.
	SaveTaskLists(ctx context.Context, lists []TaskList) error

	// Tasks returns cached tasks of a list and when they were stored.
	Tasks(ctx context.Context, listID string) ([]Task, time.Time, bool)

	// SaveTasks stores the tasks of a list.
	SaveTasks(ctx context.Context, listID string, tasks []Task) error
}

// FanOut fetches the tasks of every list concurrently using get and waits for all of them.
// A failing list resolves to an empty slice and the error is logged.
func FanOut(ctx context.Context, lists []TaskList, get func(ctx context.Context, listID string) ([]Task, error), logger *slog.Logger) map[string][]Task {
	type result struct {
		listID string
		tasks  []Task
	}

	results := make([]result, len(lists))
	var wg sync.WaitGroup
	for i, list := range lists {
		wg.Add(1)
		go func(i int, listID string) {
			defer wg.Done()
			tasks, err := get(ctx, listID)
			if err != nil {
				if logger != nil {
					logger.Warn("fetch tasks failed", "list", listID, "err", err)
				}
				tasks = nil
			}
			if tasks == nil {
				tasks = []Task{}
			}
			results[i] = result{listID: listID, tasks: tasks}
		}(i, list.ID)
	}
	wg.Wait()

	out := make(map[string][]Task, len(lists))
	for _, r := range results {
		out[r.listID] = r.tasks
	}
	return out
}
