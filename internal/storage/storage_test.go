package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "nested", "taskflow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": db,
	}
}

func TestStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get(ctx, "missing")
			require.NoError(t, err)
			require.False(t, ok)

			require.NoError(t, s.Set(ctx, "k", []byte(`{"a":1}`)))
			got, ok, err := s.Get(ctx, "k")
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, `{"a":1}`, string(got))

			require.NoError(t, s.Set(ctx, "k", []byte("second")))
			got, _, err = s.Get(ctx, "k")
			require.NoError(t, err)
			require.Equal(t, "second", string(got))

			require.NoError(t, s.Delete(ctx, "k"))
			require.NoError(t, s.Delete(ctx, "k"))
			_, ok, err = s.Get(ctx, "k")
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestSQLite_Reopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "taskflow.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "tf_lists", []byte(`[]`)))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	got, ok, err := s.Get(ctx, "tf_lists")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "[]", string(got))

	version, err := userVersion(s.db)
	require.NoError(t, err)
	require.Equal(t, CurrentSchemaVersion, version)
}

func TestNamespace_JSON(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	ns := NewNamespace(mem, "taskflow_cache_")

	type entry struct {
		Timestamp int64    `json:"timestamp"`
		Data      []string `json:"data"`
	}

	require.Equal(t, "taskflow_cache_task_lists", ns.Key("task_lists"))

	var e entry
	ok, err := ns.GetJSON(ctx, "task_lists", &e)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, ns.PutJSON(ctx, "task_lists", entry{Timestamp: 7, Data: []string{"a"}}))
	ok, err = ns.GetJSON(ctx, "task_lists", &e)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(7), e.Timestamp)
	require.Equal(t, []string{"a"}, e.Data)
	require.Equal(t, []string{"taskflow_cache_task_lists"}, mem.Keys())

	require.NoError(t, mem.Set(ctx, "taskflow_cache_bad", []byte("{")))
	_, err = ns.GetJSON(ctx, "bad", &e)
	require.Error(t, err)
}
