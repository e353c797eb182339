// Package tools provides the task operations the assistant can invoke and the
// registry that validates and executes its tool calls.
package tools

import (
	"context"

	"chatdo/internal/conversation"
	"chatdo/internal/task"
)

// Tool defines the interface for an assistant-invokable operation.
type Tool interface {
	// Name returns the tool name the assistant calls.
	Name() string

	// Description tells the assistant what the tool does.
	Description() string

	// Parameters returns the declared argument set.
	Parameters() []conversation.Parameter

	// Run executes the tool against tasks. args has already been validated
	// against Parameters. A returned error is rendered as result text.
	Run(ctx context.Context, tasks task.Tasks, args Args) (string, error)
}

// Args holds validated tool arguments. Absent optional arguments are missing
// from the map; strings are trimmed and enum values lower-cased.
type Args map[string]any

// String returns a string argument, or "" if absent.
func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

// Bool returns a boolean argument, or false if absent.
func (a Args) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}

// Has reports whether the argument was supplied.
func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}
