package tools

import (
	"context"
	"fmt"

	"chatdo/internal/conversation"
	"chatdo/internal/task"
)

func init() {
	Register(&ToggleTask{})
}

// ToggleTask implements the toggleTask tool.
type ToggleTask struct{}

func (t *ToggleTask) Name() string        { return "toggleTask" }
func (t *ToggleTask) Description() string { return "Mark a task as completed or active (incomplete)." }

func (t *ToggleTask) Parameters() []conversation.Parameter {
	return []conversation.Parameter{
		{Name: "id", Type: conversation.TypeString, Description: "The unique ID of the task.", Required: true},
		{Name: "completed", Type: conversation.TypeBoolean, Description: "True to mark completed, false to mark active.", Required: true},
	}
}

func (t *ToggleTask) Run(ctx context.Context, tasks task.Tasks, args Args) (string, error) {
	id := args.String("id")
	completed := args.Bool("completed")
	if !tasks.Toggle(id, completed) {
		return "", &NotFoundError{ID: id}
	}
	state := "active"
	if completed {
		state = "completed"
	}
	return fmt.Sprintf("Task %s marked as %s.", id, state), nil
}
