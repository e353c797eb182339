// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"chatdo/internal/mirror"
)

// FakeRemote is an in-memory implementation of mirror.Remote for testing.
type FakeRemote struct {
	mu    sync.RWMutex
	lists []mirror.List
	tasks map[string][]mirror.RemoteTask // listID -> tasks
	seq   int

	// Error injection for testing
	ResolveListErr error
	CreateListErr  error
	ListTasksErr   error
	CreateTaskErr  error
	UpdateTaskErr  error
	DeleteTaskErr  error
}

// NewFakeRemote creates an empty FakeRemote.
func NewFakeRemote() *FakeRemote {
	return &FakeRemote{tasks: make(map[string][]mirror.RemoteTask)}
}

// AddList adds a list to the fake remote.
func (f *FakeRemote) AddList(id, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = append(f.lists, mirror.List{ID: id, Title: title})
	if f.tasks[id] == nil {
		f.tasks[id] = nil
	}
}

// AddTask adds a task to a list. An empty ID is generated.
func (f *FakeRemote) AddTask(listID string, t mirror.RemoteTask) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID == "" {
		t.ID = f.nextID()
	}
	f.tasks[listID] = append(f.tasks[listID], t)
}

// Lists returns the lists in creation order.
func (f *FakeRemote) Lists() []mirror.List {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]mirror.List(nil), f.lists...)
}

// Tasks returns the tasks of a list.
func (f *FakeRemote) Tasks(listID string) []mirror.RemoteTask {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]mirror.RemoteTask(nil), f.tasks[listID]...)
}

// ResolveList implements mirror.Remote.
func (f *FakeRemote) ResolveList(ctx context.Context, name string) (mirror.List, error) {
	if f.ResolveListErr != nil {
		return mirror.List{}, f.ResolveListErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	name = strings.ToLower(strings.TrimSpace(name))
	for _, l := range f.lists {
		if strings.ToLower(strings.TrimSpace(l.Title)) == name {
			return l, nil
		}
	}
	return mirror.List{}, mirror.ErrNotFound
}

// CreateList implements mirror.Remote.
func (f *FakeRemote) CreateList(ctx context.Context, name string) (mirror.List, error) {
	if f.CreateListErr != nil {
		return mirror.List{}, f.CreateListErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	// Generate a simple ID
	l := mirror.List{ID: strings.ToLower(strings.ReplaceAll(name, " ", "-")), Title: name}
	f.lists = append(f.lists, l)
	f.tasks[l.ID] = nil
	return l, nil
}

// ListTasks implements mirror.Remote.
func (f *FakeRemote) ListTasks(ctx context.Context, listID string) ([]mirror.RemoteTask, error) {
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()

	tasks, ok := f.tasks[listID]
	if !ok {
		return nil, mirror.ErrNotFound
	}
	return append([]mirror.RemoteTask(nil), tasks...), nil
}

// CreateTask implements mirror.Remote.
func (f *FakeRemote) CreateTask(ctx context.Context, listID string, t mirror.RemoteTask) error {
	if f.CreateTaskErr != nil {
		return f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.tasks[listID]; !ok {
		return mirror.ErrNotFound
	}
	t.ID = f.nextID()
	f.tasks[listID] = append(f.tasks[listID], t)
	return nil
}

// UpdateTask implements mirror.Remote.
func (f *FakeRemote) UpdateTask(ctx context.Context, listID string, t mirror.RemoteTask) error {
	if f.UpdateTaskErr != nil {
		return f.UpdateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, existing := range f.tasks[listID] {
		if existing.ID == t.ID {
			f.tasks[listID][i] = t
			return nil
		}
	}
	return mirror.ErrNotFound
}

// DeleteTask implements mirror.Remote.
func (f *FakeRemote) DeleteTask(ctx context.Context, listID, taskID string) error {
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	tasks := f.tasks[listID]
	for i, t := range tasks {
		if t.ID == taskID {
			f.tasks[listID] = append(tasks[:i], tasks[i+1:]...)
			return nil
		}
	}
	return mirror.ErrNotFound
}

func (f *FakeRemote) nextID() string {
	f.seq++
	return fmt.Sprintf("r%d", f.seq)
}
