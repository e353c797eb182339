// Package task owns task records, their CRUD operations and display ordering.
package task

import (
	"strings"
	"time"
)

// DateLayout is the calendar-date form used for due dates on the wire.
const DateLayout = "2006-01-02"

// Priority is the rank of a task. The zero value means no priority.
type Priority string

const (
	PriorityNone   Priority = ""
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists the valid non-empty priority values, lowest first.
func Priorities() []string {
	return []string{string(PriorityLow), string(PriorityMedium), string(PriorityHigh)}
}

// ParsePriority parses a priority name (case-insensitive, trimmed).
// The empty string parses to PriorityNone.
func ParsePriority(s string) (Priority, bool) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case PriorityNone, PriorityLow, PriorityMedium, PriorityHigh:
		return p, true
	}
	return PriorityNone, false
}

// Rank returns the sort rank: high=3, medium=2, low=1, none=0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Task is a single to-do item.
type Task struct {
	ID        string
	Text      string
	Completed bool
	CreatedAt time.Time
	DueDate   *time.Time
	Priority  Priority
	Notes     string
}

// DueDateString renders the due date as a UTC calendar date, or "" if unset.
func (t Task) DueDateString() string {
	if t.DueDate == nil {
		return ""
	}
	return t.DueDate.UTC().Format(DateLayout)
}

// NewTask holds the inputs of Store.Add.
type NewTask struct {
	Text     string
	DueDate  string // ISO-8601 date; unparsable values are dropped
	Priority Priority
	Notes    string
}

// Fields selects the task fields replaced by Store.Edit. Nil members are left untouched.
type Fields struct {
	Text     *string
	Priority *Priority
	DueDate  *string // "" clears the due date
	Notes    *string // "" clears the notes
}

// ParseDueDate parses a due date. It accepts a calendar date (taken as UTC midnight)
// and RFC 3339 timestamps.
func ParseDueDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{DateLayout, time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Normalize enforces the Task invariants on a record read from storage:
// blank text becomes "(untitled)" and unknown priorities become none.
func Normalize(t Task) Task {
	t.Text = normalizeText(t.Text)
	t.Priority = normalizePriority(t.Priority)
	return t
}

// normalizeText replaces blank task text so the non-empty invariant holds.
func normalizeText(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return "(untitled)"
	}
	return text
}

func normalizePriority(p Priority) Priority {
	if parsed, ok := ParsePriority(string(p)); ok {
		return parsed
	}
	return PriorityNone
}

func dueDatePtr(s string) *time.Time {
	t, ok := ParseDueDate(s)
	if !ok {
		return nil
	}
	return &t
}
