package testutil

import (
	"context"
	"sync"

	"chatdo/internal/task"
)

// MemoryRepository is an in-memory task.Repository for testing.
type MemoryRepository struct {
	mu    sync.Mutex
	tasks []task.Task
	saves int

	// Error injection for testing
	LoadErr error
	SaveErr error
}

// NewMemoryRepository creates a repository holding the given tasks in collection order.
func NewMemoryRepository(tasks ...task.Task) *MemoryRepository {
	return &MemoryRepository{tasks: copyTasks(tasks)}
}

// Load implements task.Repository.
func (r *MemoryRepository) Load(ctx context.Context) ([]task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.LoadErr != nil {
		return nil, r.LoadErr
	}
	return copyTasks(r.tasks), nil
}

// Save implements task.Repository.
func (r *MemoryRepository) Save(ctx context.Context, tasks []task.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SaveErr != nil {
		return r.SaveErr
	}
	r.tasks = copyTasks(tasks)
	r.saves++
	return nil
}

// Tasks returns the last saved collection.
func (r *MemoryRepository) Tasks() []task.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyTasks(r.tasks)
}

// SaveCount returns the number of successful saves.
func (r *MemoryRepository) SaveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

func copyTasks(in []task.Task) []task.Task {
	out := make([]task.Task, len(in))
	for i, t := range in {
		if t.DueDate != nil {
			d := *t.DueDate
			t.DueDate = &d
		}
		out[i] = t
	}
	return out
}
