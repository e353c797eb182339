package task

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// saveTimeout bounds a single write-through to the repository.
const saveTimeout = 5 * time.Second

// Tasks is the set of operations available on a task collection.
// Both *Store and the view passed to Store.Batch implement it.
type Tasks interface {
	Add(nt NewTask) Task
	Remove(id string) bool
	Toggle(id string, completed bool) bool
	Edit(id string, f Fields) (Task, bool)
	Get(id string) (Task, bool)
	List() []Task
}

// Repository persists the task collection.
// Save receives the whole collection in collection order.
type Repository interface {
	Load(ctx context.Context) ([]Task, error)
	Save(ctx context.Context, tasks []Task) error
}

// Store is the in-memory owner of all tasks.
// Operations never fail; unknown ids are reported through their return values.
type Store struct {
	mu     sync.Mutex
	tasks  []Task // collection order, newest first
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report persistence failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides the clock used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides task id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// New creates an empty store without persistence.
func New(opts ...Option) *Store {
	s := &Store{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open creates a store backed by repo, loading the persisted tasks.
// Every later mutation is written through to repo.
func Open(ctx context.Context, repo Repository, opts ...Option) (*Store, error) {
	s := New(opts...)
	tasks, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	s.tasks = tasks
	s.repo = repo
	return s, nil
}

// Add creates a task and returns it.
func (s *Store) Add(nt NewTask) Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(nt)
}

// Remove deletes the task with the given id and reports whether it existed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(id)
}

// Toggle sets the completion state of a task and reports whether it existed.
func (s *Store) Toggle(id string, completed bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toggle(id, completed)
}

// Edit replaces the selected fields of a task.
func (s *Store) Edit(id string, f Fields) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edit(id, f)
}

// Get returns a task by id.
func (s *Store) Get(id string) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

// List returns a sorted snapshot of all tasks.
func (s *Store) List() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list()
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Batch runs fn with exclusive access to the store. Mutations made by other
// goroutines wait until fn returns. fn must use the Tasks it is given and
// not call methods on s, which would deadlock.
func (s *Store) Batch(fn func(Tasks)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(batch{s})
}

type batch struct{ s *Store }

func (b batch) Add(nt NewTask) Task                   { return b.s.add(nt) }
func (b batch) Remove(id string) bool                 { return b.s.remove(id) }
func (b batch) Toggle(id string, completed bool) bool { return b.s.toggle(id, completed) }
func (b batch) Edit(id string, f Fields) (Task, bool) { return b.s.edit(id, f) }
func (b batch) Get(id string) (Task, bool)            { return b.s.get(id) }
func (b batch) List() []Task                          { return b.s.list() }

// The methods below require s.mu to be held.

func (s *Store) add(nt NewTask) Task {
	t := Task{
		ID:        s.newID(),
		Text:      normalizeText(nt.Text),
		CreatedAt: s.now(),
		DueDate:   dueDatePtr(nt.DueDate),
		Priority:  normalizePriority(nt.Priority),
		Notes:     nt.Notes,
	}
	s.tasks = append([]Task{t}, s.tasks...)
	s.persist()
	return clone(t)
}

func (s *Store) remove(id string) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	s.persist()
	return true
}

func (s *Store) toggle(id string, completed bool) bool {
	i := s.index(id)
	if i < 0 {
		return false
	}
	s.tasks[i].Completed = completed
	s.persist()
	return true
}

func (s *Store) edit(id string, f Fields) (Task, bool) {
	i := s.index(id)
	if i < 0 {
		return Task{}, false
	}
	t := &s.tasks[i]
	if f.Text != nil && strings.TrimSpace(*f.Text) != "" {
		t.Text = strings.TrimSpace(*f.Text)
	}
	if f.Priority != nil {
		t.Priority = normalizePriority(*f.Priority)
	}
	if f.DueDate != nil {
		t.DueDate = dueDatePtr(*f.DueDate)
	}
	if f.Notes != nil {
		t.Notes = *f.Notes
	}
	s.persist()
	return clone(*t), true
}

func (s *Store) get(id string) (Task, bool) {
	i := s.index(id)
	if i < 0 {
		return Task{}, false
	}
	return clone(s.tasks[i]), true
}

func (s *Store) list() []Task {
	out := make([]Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = clone(t)
	}
	Sort(out)
	return out
}

func (s *Store) index(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// persist writes the collection through to the repository. Failures are
// logged; the in-memory state stays authoritative.
func (s *Store) persist() {
	if s.repo == nil {
		return
	}
	snapshot := make([]Task, len(s.tasks))
	for i, t := range s.tasks {
		snapshot[i] = clone(t)
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := s.repo.Save(ctx, snapshot); err != nil {
		s.logger.Warn("task store write-through failed", "tasks", len(snapshot), "err", err)
	}
}

// clone copies a task so callers cannot reach the store's DueDate pointer.
func clone(t Task) Task {
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	return t
}
