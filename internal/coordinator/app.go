package coordinator

import (
	"context"
	"slices"

	"taskflow/internal/service"
)

// AppState is a copy of the single-list screen's projection.
type AppState struct {
	Lists  []service.TaskList
	ListID string
	Tasks  []service.Task

	// Loading is true while the selected list's fetch is in flight.
	Loading bool

	// Cached is true while Tasks come from the cache: the network
	// response has not arrived yet or the fetch failed.
	Cached bool

	// Err is the last read failure for the selected list.
	Err error
}

// App coordinates the single-list screen: the list picker and the tasks of
// the selected list.
type App struct {
	*core

	// guarded by core.mu
	lists   []service.TaskList
	listID  string
	gen     uint64
	loading bool
	cached  bool
	err     error
}

// NewApp creates an App over svc.
func NewApp(svc service.Service, opts ...Option) *App {
	return &App{core: newCore(svc, opts)}
}

// State returns a copy of the projection.
func (a *App) State() AppState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return AppState{
		Lists:   slices.Clone(a.lists),
		ListID:  a.listID,
		Tasks:   slices.Clone(a.tasks[a.listID]),
		Loading: a.loading,
		Cached:  a.cached,
		Err:     a.err,
	}
}

// Init loads the task lists and selects listID, or the first list when
// listID is empty or unknown.
func (a *App) Init(ctx context.Context, listID string) error {
	lists, err := a.LoadLists(ctx)
	if err != nil {
		return err
	}
	if len(lists) == 0 {
		return nil
	}
	if !slices.ContainsFunc(lists, func(l service.TaskList) bool { return l.ID == listID }) {
		listID = lists[0].ID
	}
	return a.SelectList(ctx, listID)
}

// LoadLists fetches the task lists into the picker without selecting one.
// Cached lists are painted first when available.
func (a *App) LoadLists(ctx context.Context) ([]service.TaskList, error) {
	cache := a.svc.Cache()
	if cache.Enabled() {
		if lists, _, ok := cache.TaskLists(ctx); ok {
			a.mu.Lock()
			a.lists = service.DedupeLists(lists)
			a.mu.Unlock()
			a.changed()
		}
	}

	lists, err := a.svc.GetTaskLists(ctx)
	if err != nil {
		a.mu.Lock()
		a.err = err
		a.mu.Unlock()
		a.changed()
		return nil, err
	}

	lists = service.DedupeLists(lists)
	a.mu.Lock()
	a.lists = lists
	a.mu.Unlock()
	a.changed()
	return slices.Clone(lists), nil
}

// SelectList makes listID current and fetches its tasks. Cached tasks are
// painted first when available. A response that arrives after another
// selection is discarded.
func (a *App) SelectList(ctx context.Context, listID string) error {
	a.mu.Lock()
	a.gen++
	gen := a.gen
	a.listID = listID
	a.tasks = map[string][]service.Task{listID: {}}
	a.loading = true
	a.cached = false
	a.err = nil
	a.mu.Unlock()

	if cache := a.svc.Cache(); cache.Enabled() {
		if tasks, ts, ok := cache.Tasks(ctx, listID); ok {
			a.mu.Lock()
			if a.gen == gen && a.loading {
				a.tasks[listID] = service.DedupeTasks(tasks)
				a.cached = true
				a.logger.Debug("painted from cache", "list", listID, "stored", ts)
			}
			a.mu.Unlock()
		}
	}
	a.changed()

	tasks, err := a.svc.GetTasks(ctx, listID)

	a.mu.Lock()
	if a.gen != gen {
		a.mu.Unlock()
		a.logger.Debug("discarded stale tasks response", "list", listID)
		return nil
	}
	a.loading = false
	if err != nil {
		a.err = err
	} else {
		a.tasks[listID] = service.DedupeTasks(tasks)
		a.cached = false
	}
	a.mu.Unlock()
	a.changed()
	return err
}

// Refresh re-fetches the selected list.
func (a *App) Refresh(ctx context.Context) error {
	a.mu.Lock()
	listID := a.listID
	a.mu.Unlock()
	return a.SelectList(ctx, listID)
}

func (a *App) current() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listID
}

// AddTask creates a task in the selected list.
func (a *App) AddTask(ctx context.Context, nt service.NewTask) (service.Task, error) {
	return a.addTask(ctx, a.current(), nt)
}

// ToggleTask flips a task between completed and needsAction.
func (a *App) ToggleTask(ctx context.Context, taskID string) (service.Task, error) {
	return a.toggleTask(ctx, a.current(), taskID)
}

// StarTask sets a task's starred flag.
func (a *App) StarTask(ctx context.Context, taskID string, starred bool) (service.Task, error) {
	return a.starTask(ctx, a.current(), taskID, starred)
}

// EditTask applies a partial update to a task.
func (a *App) EditTask(ctx context.Context, taskID string, update service.TaskUpdate) (service.Task, error) {
	return a.editTask(ctx, a.current(), taskID, update)
}

// DeleteTask deletes a task.
func (a *App) DeleteTask(ctx context.Context, taskID string) error {
	return a.deleteTask(ctx, a.current(), taskID)
}

// CreateList creates a list and appends it to the picker.
func (a *App) CreateList(ctx context.Context, title string) (service.TaskList, error) {
	list, err := a.svc.InsertTaskList(ctx, title)
	if err != nil {
		return service.TaskList{}, err
	}
	a.mu.Lock()
	a.lists = service.DedupeLists(append(a.lists, list))
	a.mu.Unlock()
	a.changed()
	return list, nil
}

// RenameList renames a list optimistically.
func (a *App) RenameList(ctx context.Context, listID, title string) (service.TaskList, error) {
	a.mu.Lock()
	i := slices.IndexFunc(a.lists, func(l service.TaskList) bool { return l.ID == listID })
	if i < 0 {
		a.mu.Unlock()
		return service.TaskList{}, service.NewNotFound("list " + listID)
	}
	before := a.lists[i]
	a.lists[i].Title = title
	a.mu.Unlock()
	a.changed()

	got, err := a.svc.UpdateTaskList(ctx, listID, title)

	a.mu.Lock()
	if j := slices.IndexFunc(a.lists, func(l service.TaskList) bool { return l.ID == listID }); j >= 0 {
		if err != nil {
			a.lists[j] = before
		} else {
			a.lists[j] = got
		}
	}
	a.mu.Unlock()
	a.changed()
	return got, err
}

// DeleteList deletes a list optimistically. Deleting the selected list
// selects the first remaining one.
func (a *App) DeleteList(ctx context.Context, listID string) error {
	a.mu.Lock()
	i := slices.IndexFunc(a.lists, func(l service.TaskList) bool { return l.ID == listID })
	if i < 0 {
		a.mu.Unlock()
		return service.NewNotFound("list " + listID)
	}
	before := a.lists[i]
	a.lists = slices.Delete(a.lists, i, i+1)
	a.mu.Unlock()
	a.changed()

	if err := a.svc.DeleteTaskList(ctx, listID); err != nil {
		a.mu.Lock()
		if !slices.ContainsFunc(a.lists, func(l service.TaskList) bool { return l.ID == listID }) {
			a.lists = slices.Insert(a.lists, min(i, len(a.lists)), before)
		}
		a.mu.Unlock()
		a.changed()
		return err
	}

	a.mu.Lock()
	wasCurrent := a.listID == listID
	var next string
	if len(a.lists) > 0 {
		next = a.lists[0].ID
	}
	if wasCurrent && next == "" {
		a.listID = ""
		a.tasks = map[string][]service.Task{}
	}
	a.mu.Unlock()

	if wasCurrent && next != "" {
		return a.SelectList(ctx, next)
	}
	a.changed()
	return nil
}
