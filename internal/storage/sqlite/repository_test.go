package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdo/internal/storage/sqlite"
	"chatdo/internal/task"
)

func openRepo(t *testing.T, path string) *sqlite.Repository {
	t.Helper()
	repo, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t, filepath.Join(t.TempDir(), "tasks.db"))
	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	in := []task.Task{
		{ID: "n", Text: "Newest", CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 600, time.UTC), DueDate: &due, Priority: task.PriorityLow, Notes: "x"},
		{ID: "o", Text: "Oldest", Completed: true, CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	require.NoError(t, repo.Save(ctx, in))
	got, err := repo.Load(ctx)

	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestRepository_SaveReplacesRows(t *testing.T) {
	ctx := context.Background()
	repo := openRepo(t, filepath.Join(t.TempDir(), "tasks.db"))
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, []task.Task{{ID: "a", Text: "A", CreatedAt: now}, {ID: "b", Text: "B", CreatedAt: now}}))
	require.NoError(t, repo.Save(ctx, []task.Task{{ID: "b", Text: "B2", CreatedAt: now}}))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "B2", got[0].Text)
}

func TestRepository_EmptyDatabase(t *testing.T) {
	repo := openRepo(t, filepath.Join(t.TempDir(), "nested", "tasks.db"))

	got, err := repo.Load(context.Background())

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRepository_StoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tasks.db")

	repo, err := sqlite.Open(path)
	require.NoError(t, err)
	store, err := task.Open(ctx, repo)
	require.NoError(t, err)
	created := store.Add(task.NewTask{Text: "Call John", Priority: task.PriorityMedium})
	require.NoError(t, repo.Close())

	reopened := openRepo(t, path)
	store, err = task.Open(ctx, reopened)
	require.NoError(t, err)

	got, ok := store.Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, "Call John", got.Text)
	assert.Equal(t, task.PriorityMedium, got.Priority)
	assert.True(t, got.CreatedAt.Equal(created.CreatedAt))
}
