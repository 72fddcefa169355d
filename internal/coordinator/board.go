package coordinator

import (
	"context"
	"slices"

	"taskflow/internal/hierarchy"
	"taskflow/internal/service"
)

// Column is one list on the board.
type Column struct {
	List  service.TaskList
	Tasks []service.Task
}

// BoardState is a copy of the board's projection.
type BoardState struct {
	Columns []Column
	Loading bool
	Err     error
}

// Board coordinates the all-lists board, one column per list.
type Board struct {
	*core

	// guarded by core.mu
	lists   []service.TaskList
	gen     uint64
	loading bool
	err     error
}

// NewBoard creates a Board over svc.
func NewBoard(svc service.Service, opts ...Option) *Board {
	return &Board{core: newCore(svc, opts)}
}

// State returns a copy of the projection.
func (b *Board) State() BoardState {
	b.mu.Lock()
	defer b.mu.Unlock()
	cols := make([]Column, 0, len(b.lists))
	for _, l := range b.lists {
		cols = append(cols, Column{List: l, Tasks: slices.Clone(b.tasks[l.ID])})
	}
	return BoardState{Columns: cols, Loading: b.loading, Err: b.err}
}

// Load fetches every list and its tasks. Cached data, when available, is
// painted first. Only the latest Load may write the projection.
func (b *Board) Load(ctx context.Context) error {
	b.mu.Lock()
	b.gen++
	gen := b.gen
	b.loading = true
	b.err = nil
	b.mu.Unlock()

	if cache := b.svc.Cache(); cache.Enabled() {
		if lists, _, ok := cache.TaskLists(ctx); ok {
			lists = service.DedupeLists(lists)
			tasks := make(map[string][]service.Task, len(lists))
			for _, l := range lists {
				cached, _, _ := cache.Tasks(ctx, l.ID)
				tasks[l.ID] = service.DedupeTasks(cached)
			}
			b.mu.Lock()
			if b.gen == gen && b.loading {
				b.lists, b.tasks = lists, tasks
			}
			b.mu.Unlock()
		}
	}
	b.changed()

	lists, err := b.svc.GetTaskLists(ctx)
	var all map[string][]service.Task
	if err == nil {
		lists = service.DedupeLists(lists)
		all, err = b.svc.FetchAllTasks(ctx, lists)
	}

	b.mu.Lock()
	if b.gen != gen {
		b.mu.Unlock()
		b.logger.Debug("discarded stale board response")
		return nil
	}
	b.loading = false
	if err != nil {
		b.err = err
	} else {
		b.lists = lists
		b.tasks = make(map[string][]service.Task, len(lists))
		for _, l := range lists {
			b.tasks[l.ID] = service.DedupeTasks(all[l.ID])
		}
	}
	b.mu.Unlock()
	b.changed()
	return err
}

// Tree returns the hierarchy of a list's active or completed tasks.
func (b *Board) Tree(listID string, completed bool) []*hierarchy.Node {
	b.mu.Lock()
	var subset []service.Task
	for _, t := range b.tasks[listID] {
		if t.Completed() == completed {
			subset = append(subset, t)
		}
	}
	b.mu.Unlock()
	return hierarchy.Build(subset)
}

// AddTask creates a task in listID.
func (b *Board) AddTask(ctx context.Context, listID string, nt service.NewTask) (service.Task, error) {
	return b.addTask(ctx, listID, nt)
}

// ToggleTask flips a task between completed and needsAction.
func (b *Board) ToggleTask(ctx context.Context, listID, taskID string) (service.Task, error) {
	return b.toggleTask(ctx, listID, taskID)
}

// StarTask sets a task's starred flag.
func (b *Board) StarTask(ctx context.Context, listID, taskID string, starred bool) (service.Task, error) {
	return b.starTask(ctx, listID, taskID, starred)
}

// EditTask applies a partial update to a task.
func (b *Board) EditTask(ctx context.Context, listID, taskID string, update service.TaskUpdate) (service.Task, error) {
	return b.editTask(ctx, listID, taskID, update)
}

// DeleteTask deletes a task.
func (b *Board) DeleteTask(ctx context.Context, listID, taskID string) error {
	return b.deleteTask(ctx, listID, taskID)
}
