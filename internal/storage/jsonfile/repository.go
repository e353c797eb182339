// Package jsonfile persists the task list as a JSON object keyed by task id.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"chatdo/internal/task"
)

// record is the stored form of a task. Position preserves collection order,
// which a JSON object does not.
type record struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Completed bool       `json:"completed"`
	CreatedAt time.Time  `json:"createdAt"`
	DueDate   *time.Time `json:"dueDate"`
	Priority  *string    `json:"priority"`
	Notes     *string    `json:"notes"`
	Position  int        `json:"position"`
}

// Repository implements task.Repository on a single file.
// File locking prevents concurrent chatdo processes from interleaving writes.
type Repository struct {
	path string
}

// New creates a repository at path, creating the parent directory.
func New(path string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Repository{path: path}, nil
}

// Path returns the file path.
func (r *Repository) Path() string {
	return r.path
}

// Load reads all tasks in collection order. A missing or empty file holds no tasks.
func (r *Repository) Load(ctx context.Context) ([]task.Task, error) {
	var tasks []task.Task
	err := r.withFileLock(func(file *os.File) error {
		var err error
		tasks, err = readTasks(file)
		return err
	})
	return tasks, err
}

// Save replaces the stored list.
func (r *Repository) Save(ctx context.Context, tasks []task.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.withFileLock(func(file *os.File) error {
		return writeTasks(file, tasks)
	})
}

// withFileLock executes fn with the file exclusively locked.
func (r *Repository) withFileLock(fn func(*os.File) error) error {
	file, err := os.OpenFile(r.path, os.O_RDWR|os.O_CREATE, 0600)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	if err := lockFile(file); err != nil {
		return fmt.Errorf("failed to lock file: %w", err)
	}
	defer unlockFile(file)

	return fn(file)
}

func readTasks(file *os.File) ([]task.Task, error) {
	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if info.Size() == 0 {
		return []task.Task{}, nil
	}

	data := make([]byte, info.Size())
	if _, err := file.ReadAt(data, 0); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var byID map[string]record
	if err := json.Unmarshal(data, &byID); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tasks: %w", err)
	}

	records := make([]record, 0, len(byID))
	for id, rec := range byID {
		if rec.ID == "" {
			rec.ID = id
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Position != records[j].Position {
			return records[i].Position < records[j].Position
		}
		return records[i].ID < records[j].ID
	})

	tasks := make([]task.Task, len(records))
	for i, rec := range records {
		tasks[i] = rec.toTask()
	}
	return tasks, nil
}

func writeTasks(file *os.File, tasks []task.Task) error {
	byID := make(map[string]record, len(tasks))
	for i, t := range tasks {
		byID[t.ID] = fromTask(t, i)
	}
	data, err := json.MarshalIndent(byID, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tasks: %w", err)
	}

	if err := file.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate file: %w", err)
	}
	if _, err := file.Seek(0, 0); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func fromTask(t task.Task, position int) record {
	rec := record{
		ID:        t.ID,
		Text:      t.Text,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt,
		DueDate:   t.DueDate,
		Position:  position,
	}
	if t.Priority != task.PriorityNone {
		p := string(t.Priority)
		rec.Priority = &p
	}
	if t.Notes != "" {
		n := t.Notes
		rec.Notes = &n
	}
	return rec
}

func (rec record) toTask() task.Task {
	t := task.Task{
		ID:        rec.ID,
		Text:      rec.Text,
		Completed: rec.Completed,
		CreatedAt: rec.CreatedAt,
		DueDate:   rec.DueDate,
	}
	if rec.Priority != nil {
		t.Priority = task.Priority(*rec.Priority)
	}
	if rec.Notes != nil {
		t.Notes = *rec.Notes
	}
	return task.Normalize(t)
}
