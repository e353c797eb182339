// Package mirror pushes the local task list one way into a remote task list.
//
// Remote tasks created by the mirror carry a marker line in their notes
// ("[chatdo:<id>]"). Remote tasks without a marker belong to the user and are
// never touched.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"chatdo/internal/task"
)

// Remote task statuses.
const (
	StatusNeedsAction = "needsAction"
	StatusCompleted   = "completed"
)

// ErrNotFound is returned by Remote.ResolveList when no list has the name.
var ErrNotFound = errors.New("not found")

// List is a remote task list.
type List struct {
	ID    string
	Title string
}

// RemoteTask is a task as stored by the remote.
type RemoteTask struct {
	ID     string
	Title  string
	Notes  string
	Status string
	Due    string // calendar date, "" if unset
}

// Remote is the backend the mirror writes to.
type Remote interface {
	// ResolveList finds a list by name (case-insensitive, trimmed).
	// Returns ErrNotFound if there is none.
	ResolveList(ctx context.Context, name string) (List, error)

	// CreateList creates a list and returns it.
	CreateList(ctx context.Context, name string) (List, error)

	// ListTasks returns every task in a list, including completed ones.
	ListTasks(ctx context.Context, listID string) ([]RemoteTask, error)

	CreateTask(ctx context.Context, listID string, t RemoteTask) error
	UpdateTask(ctx context.Context, listID string, t RemoteTask) error
	DeleteTask(ctx context.Context, listID, taskID string) error
}

// Report counts what a push did.
type Report struct {
	List      List
	Created   int
	Updated   int
	Deleted   int
	Unchanged int
}

func (r Report) String() string {
	return fmt.Sprintf("%d created, %d updated, %d deleted, %d unchanged",
		r.Created, r.Updated, r.Deleted, r.Unchanged)
}

var markerRE = regexp.MustCompile(`\[chatdo:([^\]\s]+)\]`)

// Push makes the named remote list reflect tasks. The list is created if it
// does not exist. Tasks are written in display order.
func Push(ctx context.Context, remote Remote, listName string, tasks []task.Task) (Report, error) {
	list, err := remote.ResolveList(ctx, listName)
	if errors.Is(err, ErrNotFound) {
		list, err = remote.CreateList(ctx, listName)
	}
	if err != nil {
		return Report{}, fmt.Errorf("resolve list %q: %w", listName, err)
	}
	report := Report{List: list}

	existing, err := remote.ListTasks(ctx, list.ID)
	if err != nil {
		return report, fmt.Errorf("list remote tasks: %w", err)
	}
	mirrored := make(map[string]RemoteTask)
	var stale []RemoteTask
	for _, rt := range existing {
		id := LocalID(rt.Notes)
		if id == "" {
			continue
		}
		if _, dup := mirrored[id]; dup {
			stale = append(stale, rt)
			continue
		}
		mirrored[id] = rt
	}

	sorted := append([]task.Task(nil), tasks...)
	task.Sort(sorted)

	for _, t := range sorted {
		want := ToRemote(t)
		have, ok := mirrored[t.ID]
		delete(mirrored, t.ID)
		switch {
		case !ok:
			if err := remote.CreateTask(ctx, list.ID, want); err != nil {
				return report, fmt.Errorf("create %s: %w", t.ID, err)
			}
			report.Created++
		case same(have, want):
			report.Unchanged++
		default:
			want.ID = have.ID
			if err := remote.UpdateTask(ctx, list.ID, want); err != nil {
				return report, fmt.Errorf("update %s: %w", t.ID, err)
			}
			report.Updated++
		}
	}

	for _, rt := range mirrored {
		stale = append(stale, rt)
	}
	for _, rt := range stale {
		if err := remote.DeleteTask(ctx, list.ID, rt.ID); err != nil {
			return report, fmt.Errorf("delete %s: %w", rt.ID, err)
		}
		report.Deleted++
	}
	return report, nil
}

// ToRemote maps a local task to its remote form. The remote has no priority
// field, so the priority goes into the notes above the marker.
func ToRemote(t task.Task) RemoteTask {
	var notes []string
	if t.Notes != "" {
		notes = append(notes, t.Notes)
	}
	if t.Priority != task.PriorityNone {
		notes = append(notes, "Priority: "+string(t.Priority))
	}
	notes = append(notes, Marker(t.ID))

	status := StatusNeedsAction
	if t.Completed {
		status = StatusCompleted
	}
	return RemoteTask{
		Title:  t.Text,
		Notes:  strings.Join(notes, "\n"),
		Status: status,
		Due:    t.DueDateString(),
	}
}

// Marker returns the notes line that ties a remote task to local id.
func Marker(id string) string {
	return "[chatdo:" + id + "]"
}

// LocalID extracts the local task id from remote notes, or "" if unmarked.
func LocalID(notes string) string {
	m := markerRE.FindStringSubmatch(notes)
	if m == nil {
		return ""
	}
	return m[1]
}

func same(a, b RemoteTask) bool {
	return a.Title == b.Title && a.Notes == b.Notes && a.Status == b.Status && a.Due == b.Due
}
