// Package coordinator holds the in-memory projection behind each screen and
// drives optimistic mutations against whichever provider is active.
//
// Mutations write the expected result to the projection before the provider
// call and notify listeners, then block on the provider. On failure the
// touched task is restored from the copy taken before the write. Callers
// that must not block run mutations in their own goroutine.
package coordinator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"taskflow/internal/service"
)

// TempPrefix marks ids assigned before the provider confirms an insert.
const TempPrefix = "temp_"

// ErrPending is returned for operations on a task whose insert is still in flight.
var ErrPending = errors.New("task is still being saved")

// EventMirror keeps an external calendar in step with task metadata.
type EventMirror interface {
	// Sync returns the metadata fragment to store on task after syncing.
	Sync(ctx context.Context, task service.Task) (string, error)

	// Remove deletes the event linked to task, if any.
	Remove(ctx context.Context, task service.Task) error
}

// Option configures a coordinator.
type Option func(*core)

// WithLogger sets the logger. Nil keeps the default discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *core) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMirror enables calendar mirroring.
func WithMirror(m EventMirror) Option {
	return func(c *core) { c.mirror = m }
}

// WithOnChange registers a listener called after every projection change.
// Listeners run on the goroutine that made the change, outside any lock.
func WithOnChange(fn func()) Option {
	return func(c *core) { c.listeners = append(c.listeners, fn) }
}

// IsTemp reports whether id was assigned locally to an unconfirmed task.
func IsTemp(id string) bool {
	return strings.HasPrefix(id, TempPrefix)
}

// core is the projection and mutation logic shared by App and Board.
type core struct {
	svc       service.Service
	logger    *slog.Logger
	mirror    EventMirror
	listeners []func()
	newTempID func() string

	mu    sync.Mutex
	tasks map[string][]service.Task
}

func newCore(svc service.Service, opts []Option) *core {
	c := &core{
		svc:       svc,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		newTempID: func() string { return TempPrefix + ulid.Make().String() },
		tasks:     make(map[string][]service.Task),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *core) changed() {
	for _, fn := range c.listeners {
		fn()
	}
}

// indexLocked returns the position of taskID in listID, or -1.
func (c *core) indexLocked(listID, taskID string) int {
	return slices.IndexFunc(c.tasks[listID], func(t service.Task) bool { return t.ID == taskID })
}

// trackedLocked reports whether listID is part of the projection. Callers hold c.mu.
func (c *core) trackedLocked(listID string) bool {
	_, ok := c.tasks[listID]
	return ok
}

// addTask prepends a temporary task, inserts it, then reloads the list so
// the provider's id replaces the temporary one.
func (c *core) addTask(ctx context.Context, listID string, nt service.NewTask) (service.Task, error) {
	if IsTemp(nt.Parent) {
		return service.Task{}, ErrPending
	}
	temp := service.Task{
		ID:       c.newTempID(),
		Title:    nt.Title,
		Notes:    nt.Notes,
		Due:      nt.Due,
		Parent:   nt.Parent,
		Metadata: nt.Metadata,
		Status:   service.StatusNeedsAction,
	}

	c.mu.Lock()
	if c.trackedLocked(listID) {
		c.tasks[listID] = append([]service.Task{temp}, c.tasks[listID]...)
	}
	c.mu.Unlock()
	c.changed()

	created, err := c.svc.InsertTask(ctx, listID, nt)
	if err != nil {
		c.mu.Lock()
		if i := c.indexLocked(listID, temp.ID); i >= 0 {
			c.tasks[listID] = slices.Delete(c.tasks[listID], i, i+1)
		}
		c.mu.Unlock()
		c.changed()
		return service.Task{}, err
	}
	created = c.syncEvent(ctx, listID, created)

	fresh, err := c.svc.GetTasks(ctx, listID)
	c.mu.Lock()
	if c.trackedLocked(listID) {
		if err != nil {
			c.logger.Warn("reload after insert failed", "list", listID, "err", err)
			if i := c.indexLocked(listID, temp.ID); i >= 0 {
				c.tasks[listID][i] = created
			}
		} else {
			c.tasks[listID] = service.DedupeTasks(fresh)
		}
	}
	c.mu.Unlock()
	c.changed()
	return created, nil
}

// mutateTask applies optimistic to the projected task, runs call and then
// either adopts the provider's result or restores the pre-mutation copy.
// Other tasks are never touched.
func (c *core) mutateTask(
	ctx context.Context,
	listID, taskID string,
	optimistic func(service.Task) service.Task,
	call func(ctx context.Context, before service.Task) (service.Task, error),
) (service.Task, error) {
	if IsTemp(taskID) {
		return service.Task{}, ErrPending
	}

	c.mu.Lock()
	i := c.indexLocked(listID, taskID)
	if i < 0 {
		c.mu.Unlock()
		return service.Task{}, service.NewNotFound("task " + taskID)
	}
	before := c.tasks[listID][i]
	c.tasks[listID][i] = optimistic(before)
	c.mu.Unlock()
	c.changed()

	got, err := call(ctx, before)

	c.mu.Lock()
	if j := c.indexLocked(listID, taskID); j >= 0 {
		if err != nil {
			c.tasks[listID][j] = before
		} else {
			c.tasks[listID][j] = got
		}
	}
	c.mu.Unlock()
	c.changed()

	if err != nil {
		c.logger.Debug("reverted optimistic update", "list", listID, "task", taskID, "err", err)
		return service.Task{}, err
	}
	return got, nil
}

func (c *core) toggleTask(ctx context.Context, listID, taskID string) (service.Task, error) {
	return c.mutateTask(ctx, listID, taskID,
		func(t service.Task) service.Task {
			t.Status = t.Status.Toggle()
			return t
		},
		func(ctx context.Context, before service.Task) (service.Task, error) {
			next := before.Status.Toggle()
			return c.svc.UpdateTask(ctx, listID, taskID, service.TaskUpdate{Status: &next})
		})
}

func (c *core) starTask(ctx context.Context, listID, taskID string, starred bool) (service.Task, error) {
	return c.mutateTask(ctx, listID, taskID,
		func(t service.Task) service.Task {
			t.Starred = starred
			return t
		},
		func(ctx context.Context, _ service.Task) (service.Task, error) {
			return c.svc.UpdateTaskStarred(ctx, listID, taskID, starred)
		})
}

func (c *core) editTask(ctx context.Context, listID, taskID string, update service.TaskUpdate) (service.Task, error) {
	return c.mutateTask(ctx, listID, taskID, update.Apply,
		func(ctx context.Context, _ service.Task) (service.Task, error) {
			updated, err := c.svc.UpdateTask(ctx, listID, taskID, update)
			if err != nil {
				return service.Task{}, err
			}
			return c.syncEvent(ctx, listID, updated), nil
		})
}

// deleteTask removes the task, restoring it at its old position on failure.
func (c *core) deleteTask(ctx context.Context, listID, taskID string) error {
	if IsTemp(taskID) {
		return ErrPending
	}

	c.mu.Lock()
	i := c.indexLocked(listID, taskID)
	if i < 0 {
		c.mu.Unlock()
		return service.NewNotFound("task " + taskID)
	}
	before := c.tasks[listID][i]
	c.tasks[listID] = slices.Delete(c.tasks[listID], i, i+1)
	c.mu.Unlock()
	c.changed()

	if err := c.svc.DeleteTask(ctx, listID, taskID); err != nil {
		c.mu.Lock()
		if c.trackedLocked(listID) && c.indexLocked(listID, taskID) < 0 {
			at := min(i, len(c.tasks[listID]))
			c.tasks[listID] = slices.Insert(c.tasks[listID], at, before)
		}
		c.mu.Unlock()
		c.changed()
		return err
	}

	if c.mirror != nil {
		if err := c.mirror.Remove(ctx, before); err != nil {
			c.logger.Warn("calendar event delete failed", "task", taskID, "err", err)
		}
	}
	return nil
}

// syncEvent mirrors task to the calendar and stores the resulting metadata.
// Mirror failures are logged; the task itself is already saved.
func (c *core) syncEvent(ctx context.Context, listID string, task service.Task) service.Task {
	if c.mirror == nil {
		return task
	}
	fragment, err := c.mirror.Sync(ctx, task)
	if err != nil {
		c.logger.Warn("calendar sync failed", "task", task.ID, "err", err)
		return task
	}
	if fragment == task.Metadata {
		return task
	}
	updated, err := c.svc.UpdateTask(ctx, listID, task.ID, service.TaskUpdate{Metadata: &fragment})
	if err != nil {
		c.logger.Warn("store calendar link failed", "task", task.ID, "err", err)
		return task
	}
	return updated
}
