package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"taskflow/internal/service"
	"taskflow/internal/storage"
)

func TestStore_ListsAndTasks(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	c := New(mem)
	fixed := time.UnixMilli(1700000000000)
	c.now = func() time.Time { return fixed }

	_, _, ok := c.TaskLists(ctx)
	require.False(t, ok)

	lists := []service.TaskList{{ID: "l1", Title: "Inbox"}}
	require.NoError(t, c.SaveTaskLists(ctx, lists))

	got, ts, ok := c.TaskLists(ctx)
	require.True(t, ok)
	require.Equal(t, lists, got)
	require.True(t, ts.Equal(fixed))

	tasks := []service.Task{{ID: "t1", Title: "Buy milk", Status: service.StatusNeedsAction, Starred: true}}
	require.NoError(t, c.SaveTasks(ctx, "l1", tasks))
	gotTasks, _, ok := c.Tasks(ctx, "l1")
	require.True(t, ok)
	require.Equal(t, tasks, gotTasks)

	_, _, ok = c.Tasks(ctx, "l2")
	require.False(t, ok)

	require.ElementsMatch(t, []string{"taskflow_cache_task_lists", "taskflow_cache_tasks_l1"}, mem.Keys())
}

func TestStore_CorruptEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	require.NoError(t, mem.Set(ctx, Prefix+"task_lists", []byte(`{"timestamp":1,"data":"nope"}`)))

	_, _, ok := New(mem).TaskLists(ctx)
	require.False(t, ok)
}

func TestNop(t *testing.T) {
	ctx := context.Background()
	var c service.Cache = Nop{}
	require.False(t, c.Enabled())
	require.NoError(t, c.SaveTaskLists(ctx, []service.TaskList{{ID: "x"}}))
	_, _, ok := c.TaskLists(ctx)
	require.False(t, ok)
}
