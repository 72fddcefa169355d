package coordinator

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"taskflow/internal/service"
	"taskflow/internal/testutil"
)

func TestBoard_LoadIsolatesFailingList(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddList("broken", "Broken")
	fake.AddList("work", "Work")
	fake.AddTask(testutil.DefaultListID, "t1", "one")
	fake.AddTask("work", "w1", "work")
	fake.GetTasksErr["broken"] = errBoom

	b := NewBoard(fake)
	require.NoError(t, b.Load(context.Background()))

	st := b.State()
	require.Len(t, st.Columns, 3)
	require.Equal(t, "My Tasks", st.Columns[0].List.Title)
	require.Len(t, st.Columns[0].Tasks, 1)
	require.NotNil(t, st.Columns[1].Tasks)
	require.Empty(t, st.Columns[1].Tasks)
	require.Len(t, st.Columns[2].Tasks, 1)
}

func TestBoard_LoadListsFailure(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.GetTaskListsErr = errBoom

	b := NewBoard(fake)
	require.ErrorIs(t, b.Load(context.Background()), errBoom)
	st := b.State()
	require.ErrorIs(t, st.Err, errBoom)
	require.False(t, st.Loading)
}

func TestBoard_Tree(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.Put(testutil.DefaultListID, service.Task{ID: "p", Title: "parent", Position: "1"})
	fake.Put(testutil.DefaultListID, service.Task{ID: "c", Title: "child", Parent: "p"})
	fake.Put(testutil.DefaultListID, service.Task{ID: "d", Title: "done", Status: service.StatusCompleted})

	b := NewBoard(fake)
	require.NoError(t, b.Load(context.Background()))

	active := b.Tree(testutil.DefaultListID, false)
	require.Len(t, active, 1)
	require.Equal(t, "p", active[0].Task.ID)
	require.Equal(t, "c", active[0].Children[0].Task.ID)

	completed := b.Tree(testutil.DefaultListID, true)
	require.Len(t, completed, 1)
	require.Equal(t, "d", completed[0].Task.ID)
}

func TestBoard_MutationsAcrossLists(t *testing.T) {
	fake := testutil.NewFakeService()
	fake.AddList("work", "Work")
	fake.AddTask(testutil.DefaultListID, "t1", "one")
	fake.AddTask("work", "w1", "work")
	b := NewBoard(fake)
	ctx := context.Background()
	require.NoError(t, b.Load(ctx))

	_, err := b.ToggleTask(ctx, "work", "w1")
	require.NoError(t, err)

	fake.UpdateTaskStarredErr = errBoom
	_, err = b.StarTask(ctx, testutil.DefaultListID, "t1", true)
	require.ErrorIs(t, err, errBoom)

	_, err = b.AddTask(ctx, "work", service.NewTask{Title: "new one"})
	require.NoError(t, err)

	st := b.State()
	require.False(t, st.Columns[0].Tasks[0].Starred)
	require.Len(t, st.Columns[1].Tasks, 2)
	require.Equal(t, "new-one", st.Columns[1].Tasks[0].ID)
	require.Equal(t, service.StatusCompleted, st.Columns[1].Tasks[1].Status)
}

// recordingMirror links every synced task to event "ev-<id>".
type recordingMirror struct {
	mu      sync.Mutex
	synced  []string
	removed []string
}

func (m *recordingMirror) Sync(ctx context.Context, task service.Task) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.synced = append(m.synced, task.ID)
	return `[TFCAL]{"_ev":"ev-` + task.ID + `"}[/TFCAL]`, nil
}

func (m *recordingMirror) Remove(ctx context.Context, task service.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, task.ID)
	return nil
}

func TestMirror_LinksAddedTaskAndRemovesOnDelete(t *testing.T) {
	fake := testutil.NewFakeService()
	mirror := &recordingMirror{}
	a := newApp(t, fake, WithMirror(mirror))
	ctx := context.Background()

	created, err := a.AddTask(ctx, service.NewTask{Title: "Dentist"})
	require.NoError(t, err)
	require.Equal(t, `[TFCAL]{"_ev":"ev-dentist"}[/TFCAL]`, created.Metadata)
	require.Equal(t, created.Metadata, fake.Tasks(testutil.DefaultListID)[0].Metadata)

	require.NoError(t, a.DeleteTask(ctx, created.ID))
	require.Equal(t, []string{"dentist"}, mirror.removed)
}
