package jsonfile_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdo/internal/storage/jsonfile"
	"chatdo/internal/task"
)

func sampleTasks() []task.Task {
	due := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return []task.Task{
		{ID: "b", Text: "Newest", CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), DueDate: &due, Priority: task.PriorityHigh, Notes: "bring bags"},
		{ID: "a", Text: "Oldest", Completed: true, CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
}

func TestRepository_RoundTripKeepsCollectionOrder(t *testing.T) {
	ctx := context.Background()
	repo, err := jsonfile.New(filepath.Join(t.TempDir(), "data", "tasks.json"))
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, sampleTasks()))
	got, err := repo.Load(ctx)

	require.NoError(t, err)
	assert.Equal(t, sampleTasks(), got)
}

func TestRepository_FileIsKeyedByID(t *testing.T) {
	ctx := context.Background()
	repo, err := jsonfile.New(filepath.Join(t.TempDir(), "tasks.json"))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, sampleTasks()))

	data, err := os.ReadFile(repo.Path())
	require.NoError(t, err)
	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	require.Contains(t, raw, "a")
	require.Contains(t, raw, "b")
	assert.Equal(t, float64(0), raw["b"]["position"])
	assert.Equal(t, "high", raw["b"]["priority"])
	assert.Nil(t, raw["a"]["priority"])
	assert.Nil(t, raw["a"]["dueDate"])
	assert.Nil(t, raw["a"]["notes"])
}

func TestRepository_MissingFileIsEmpty(t *testing.T) {
	repo, err := jsonfile.New(filepath.Join(t.TempDir(), "tasks.json"))
	require.NoError(t, err)

	got, err := repo.Load(context.Background())

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRepository_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))
	repo, err := jsonfile.New(path)
	require.NoError(t, err)

	_, err = repo.Load(context.Background())

	assert.ErrorContains(t, err, "failed to unmarshal tasks")
}

func TestRepository_LoadNormalizesRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.json")
	content := `{"x1":{"text":" ","completed":false,"createdAt":"2026-01-01T00:00:00Z","priority":"urgent","position":0}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	repo, err := jsonfile.New(path)
	require.NoError(t, err)

	got, err := repo.Load(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "x1", got[0].ID)
	assert.Equal(t, "(untitled)", got[0].Text)
	assert.Equal(t, task.PriorityNone, got[0].Priority)
}

func TestRepository_StoreWriteThroughSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tasks.json")
	repo, err := jsonfile.New(path)
	require.NoError(t, err)

	store, err := task.Open(ctx, repo)
	require.NoError(t, err)
	milk := store.Add(task.NewTask{Text: "Buy milk", DueDate: "2099-01-01", Priority: task.PriorityHigh})
	gym := store.Add(task.NewTask{Text: "Gym"})
	store.Toggle(gym.ID, true)

	reopened, err := task.Open(ctx, repo)
	require.NoError(t, err)
	list := reopened.List()
	require.Len(t, list, 2)
	assert.Equal(t, milk.ID, list[0].ID)
	assert.Equal(t, "2099-01-01", list[0].DueDateString())
	assert.Equal(t, gym.ID, list[1].ID)
	assert.True(t, list[1].Completed)
}

func TestRepository_ConcurrentSavesNeverInterleave(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tasks.json")
	short := []task.Task{{ID: "s", Text: "Short", CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		repo, err := jsonfile.New(path)
		require.NoError(t, err)
		tasks := sampleTasks()
		if i%2 == 0 {
			tasks = short
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.Save(ctx, tasks))
		}()
	}
	wg.Wait()

	repo, err := jsonfile.New(path)
	require.NoError(t, err)
	got, err := repo.Load(ctx)
	require.NoError(t, err)
	if len(got) == 1 {
		assert.Equal(t, short, got)
	} else {
		assert.Equal(t, sampleTasks(), got)
	}
}
