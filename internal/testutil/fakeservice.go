// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"taskflow/internal/cache"
	"taskflow/internal/service"
)

// DefaultListID is the ID used for the list every FakeService starts with.
const DefaultListID = "inbox"

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu    sync.RWMutex
	lists []service.TaskList
	tasks map[string][]service.Task // listID -> tasks
	calls []string

	// Error injection for testing
	GetTaskListsErr      error
	GetTasksErr          map[string]error // listID -> error
	GetTasksErrOnce      map[string]error // listID -> error returned by the next call only
	InsertTaskErr        error
	UpdateTaskErr        error
	UpdateTaskStarredErr error
	DeleteTaskErr        error
	InsertTaskListErr    error
	UpdateTaskListErr    error
	DeleteTaskListErr    error

	// Gate, when set, holds every mutating call until released.
	Gate *Gate

	// CacheStore is returned by Cache. Nil means a null cache.
	CacheStore service.Cache
}

// Gate blocks calls until Release is called.
type Gate struct {
	// Entered receives the operation name of each call that reached the gate.
	Entered chan string
	release chan struct{}
	once    sync.Once
}

// NewGate creates a closed gate.
func NewGate() *Gate {
	return &Gate{Entered: make(chan string, 16), release: make(chan struct{})}
}

// Release lets every held and future call through.
func (g *Gate) Release() {
	g.once.Do(func() { close(g.release) })
}

func (g *Gate) wait(ctx context.Context, op string) error {
	if g == nil {
		return nil
	}
	g.Entered <- op
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewFakeService creates a new FakeService with one empty list.
func NewFakeService() *FakeService {
	fs := &FakeService{
		tasks:       make(map[string][]service.Task),
		GetTasksErr:     make(map[string]error),
		GetTasksErrOnce: make(map[string]error),
	}
	fs.lists = []service.TaskList{{ID: DefaultListID, Title: "My Tasks"}}
	fs.tasks[DefaultListID] = []service.Task{}
	return fs
}

// AddList adds a list to the fake service.
func (f *FakeService) AddList(id, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = append(f.lists, service.TaskList{ID: id, Title: title})
	if f.tasks[id] == nil {
		f.tasks[id] = []service.Task{}
	}
}

// AddTask appends a task to a list.
func (f *FakeService) AddTask(listID, taskID, title string) {
	f.Put(listID, service.Task{ID: taskID, Title: title, Status: service.StatusNeedsAction})
}

// Put appends a fully specified task to a list.
func (f *FakeService) Put(listID string, t service.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.Status == "" {
		t.Status = service.StatusNeedsAction
	}
	f.tasks[listID] = append(f.tasks[listID], t)
}

// Tasks returns a copy of a list's stored tasks.
func (f *FakeService) Tasks(listID string) []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.tasks[listID])
}

// Lists returns a copy of the stored lists.
func (f *FakeService) Lists() []service.TaskList {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.lists)
}

// Calls returns the operations invoked so far, e.g. "UpdateTask inbox/t1".
func (f *FakeService) Calls() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.calls)
}

func (f *FakeService) record(format string, args ...any) {
	f.mu.Lock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
	f.mu.Unlock()
}

func (f *FakeService) index(listID, taskID string) int {
	return slices.IndexFunc(f.tasks[listID], func(t service.Task) bool { return t.ID == taskID })
}

func (f *FakeService) newTaskID(listID, title string) string {
	id := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(title), " ", "-"))
	base := id
	for n := 2; f.index(listID, id) >= 0; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	return id
}

// GetTaskLists implements service.Service.
func (f *FakeService) GetTaskLists(ctx context.Context) ([]service.TaskList, error) {
	f.record("GetTaskLists")
	if f.GetTaskListsErr != nil {
		return nil, f.GetTaskListsErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.lists), nil
}

// GetTasks implements service.Service.
func (f *FakeService) GetTasks(ctx context.Context, listID string) ([]service.Task, error) {
	f.record("GetTasks %s", listID)
	f.mu.Lock()
	once, failOnce := f.GetTasksErrOnce[listID]
	delete(f.GetTasksErrOnce, listID)
	f.mu.Unlock()
	if failOnce && once != nil {
		return nil, once
	}
	if err, ok := f.GetTasksErr[listID]; ok && err != nil {
		return nil, err
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	tasks := slices.Clone(f.tasks[listID])
	if tasks == nil {
		tasks = []service.Task{}
	}
	return tasks, nil
}

// FetchAllTasks implements service.Service.
func (f *FakeService) FetchAllTasks(ctx context.Context, lists []service.TaskList) (map[string][]service.Task, error) {
	return service.FanOut(ctx, lists, f.GetTasks, nil), nil
}

// InsertTask implements service.Service.
func (f *FakeService) InsertTask(ctx context.Context, listID string, nt service.NewTask) (service.Task, error) {
	f.record("InsertTask %s", listID)
	if err := f.Gate.wait(ctx, "InsertTask"); err != nil {
		return service.Task{}, err
	}
	if f.InsertTaskErr != nil {
		return service.Task{}, f.InsertTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.tasks[listID]; !ok {
		return service.Task{}, service.NewNotFound("list " + listID)
	}
	t := service.Task{
		ID:       f.newTaskID(listID, nt.Title),
		Title:    nt.Title,
		Notes:    nt.Notes,
		Due:      nt.Due,
		Parent:   nt.Parent,
		Metadata: nt.Metadata,
		Status:   service.StatusNeedsAction,
	}
	f.tasks[listID] = append([]service.Task{t}, f.tasks[listID]...)
	return t, nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, listID, taskID string, update service.TaskUpdate) (service.Task, error) {
	f.record("UpdateTask %s/%s", listID, taskID)
	if err := f.Gate.wait(ctx, "UpdateTask"); err != nil {
		return service.Task{}, err
	}
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.index(listID, taskID)
	if i < 0 {
		return service.Task{}, service.NewNotFound("task " + taskID)
	}
	f.tasks[listID][i] = update.Apply(f.tasks[listID][i])
	return f.tasks[listID][i], nil
}

// UpdateTaskStarred implements service.Service.
func (f *FakeService) UpdateTaskStarred(ctx context.Context, listID, taskID string, starred bool) (service.Task, error) {
	f.record("UpdateTaskStarred %s/%s", listID, taskID)
	if err := f.Gate.wait(ctx, "UpdateTaskStarred"); err != nil {
		return service.Task{}, err
	}
	if f.UpdateTaskStarredErr != nil {
		return service.Task{}, f.UpdateTaskStarredErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	i := f.index(listID, taskID)
	if i < 0 {
		return service.Task{}, service.NewNotFound("task " + taskID)
	}
	f.tasks[listID][i].Starred = starred
	return f.tasks[listID][i], nil
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, listID, taskID string) error {
	f.record("DeleteTask %s/%s", listID, taskID)
	if err := f.Gate.wait(ctx, "DeleteTask"); err != nil {
		return err
	}
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if i := f.index(listID, taskID); i >= 0 {
		f.tasks[listID] = slices.Delete(f.tasks[listID], i, i+1)
	}
	return nil
}

// InsertTaskList implements service.Service.
func (f *FakeService) InsertTaskList(ctx context.Context, title string) (service.TaskList, error) {
	f.record("InsertTaskList")
	if f.InsertTaskListErr != nil {
		return service.TaskList{}, f.InsertTaskListErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	// Generate a simple ID
	id := strings.ToLower(strings.ReplaceAll(title, " ", "-"))
	list := service.TaskList{ID: id, Title: title}
	f.lists = append(f.lists, list)
	f.tasks[id] = []service.Task{}
	return list, nil
}

// UpdateTaskList implements service.Service.
func (f *FakeService) UpdateTaskList(ctx context.Context, listID, title string) (service.TaskList, error) {
	f.record("UpdateTaskList %s", listID)
	if err := f.Gate.wait(ctx, "UpdateTaskList"); err != nil {
		return service.TaskList{}, err
	}
	if f.UpdateTaskListErr != nil {
		return service.TaskList{}, f.UpdateTaskListErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, l := range f.lists {
		if l.ID == listID {
			f.lists[i].Title = title
			return f.lists[i], nil
		}
	}
	return service.TaskList{}, service.NewNotFound("list " + listID)
}

// DeleteTaskList implements service.Service.
func (f *FakeService) DeleteTaskList(ctx context.Context, listID string) error {
	f.record("DeleteTaskList %s", listID)
	if err := f.Gate.wait(ctx, "DeleteTaskList"); err != nil {
		return err
	}
	if f.DeleteTaskListErr != nil {
		return f.DeleteTaskListErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, l := range f.lists {
		if l.ID == listID {
			f.lists = slices.Delete(f.lists, i, i+1)
			delete(f.tasks, listID)
			return nil
		}
	}
	return nil
}

// Cache implements service.Service.
func (f *FakeService) Cache() service.Cache {
	if f.CacheStore == nil {
		return cache.Nop{}
	}
	return f.CacheStore
}

var _ service.Service = (*FakeService)(nil)
