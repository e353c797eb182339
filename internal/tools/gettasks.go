package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"chatdo/internal/conversation"
	"chatdo/internal/task"
)

func init() {
	Register(&GetTasks{})
}

// GetTasks implements the getTasks tool.
type GetTasks struct{}

func (t *GetTasks) Name() string { return "getTasks" }

func (t *GetTasks) Description() string {
	return "Get the current list of all tasks to see what is on the agenda."
}

func (t *GetTasks) Parameters() []conversation.Parameter { return nil }

// taskView is the compact listing sent to the assistant. Absent optional
// fields are omitted rather than nulled.
type taskView struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	Priority  string `json:"priority,omitempty"`
	DueDate   string `json:"dueDate,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

func (t *GetTasks) Run(ctx context.Context, tasks task.Tasks, args Args) (string, error) {
	list := tasks.List()
	views := make([]taskView, 0, len(list))
	for _, tk := range list {
		views = append(views, taskView{
			ID:        tk.ID,
			Text:      tk.Text,
			Completed: tk.Completed,
			Priority:  string(tk.Priority),
			DueDate:   tk.DueDateString(),
			Notes:     tk.Notes,
		})
	}
	data, err := json.Marshal(views)
	if err != nil {
		return "", fmt.Errorf("encode tasks: %w", err)
	}
	return string(data), nil
}
