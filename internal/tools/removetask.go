package tools

import (
	"context"
	"fmt"

	"chatdo/internal/conversation"
	"chatdo/internal/task"
)

func init() {
	Register(&RemoveTask{})
}

// RemoveTask implements the removeTask tool.
type RemoveTask struct{}

func (t *RemoveTask) Name() string { return "removeTask" }

func (t *RemoveTask) Description() string {
	return "Remove a task from the list by its ID. If you do not know the ID, call getTasks first to look it up."
}

func (t *RemoveTask) Parameters() []conversation.Parameter {
	return []conversation.Parameter{
		{Name: "id", Type: conversation.TypeString, Description: "The unique ID of the task to remove.", Required: true},
	}
}

func (t *RemoveTask) Run(ctx context.Context, tasks task.Tasks, args Args) (string, error) {
	id := args.String("id")
	if !tasks.Remove(id) {
		return "", &NotFoundError{ID: id}
	}
	return fmt.Sprintf("Task %s removed.", id), nil
}
