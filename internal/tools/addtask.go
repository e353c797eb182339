package tools

import (
	"context"
	"strings"

	"chatdo/internal/conversation"
	"chatdo/internal/task"
)

func init() {
	Register(&AddTask{})
}

// AddTask implements the addTask tool.
type AddTask struct{}

func (t *AddTask) Name() string { return "addTask" }

func (t *AddTask) Description() string {
	return "Add a new task to the todo list. Extract due date, priority, and notes if present in the user request."
}

func (t *AddTask) Parameters() []conversation.Parameter {
	return []conversation.Parameter{
		{
			Name:        "text",
			Type:        conversation.TypeString,
			Description: `The content of the task (e.g., "Buy milk", "Call John")`,
			Required:    true,
		},
		{
			Name:        "dueDate",
			Type:        conversation.TypeString,
			Description: `ISO 8601 date string (YYYY-MM-DD). If user says "tomorrow" or "next friday", calculate the date based on the Current Date.`,
		},
		{
			Name:        "priority",
			Type:        conversation.TypeString,
			Description: "The priority level of the task.",
			Enum:        task.Priorities(),
		},
		{
			Name:        "notes",
			Type:        conversation.TypeString,
			Description: "Additional details, description, or context for the task.",
		},
	}
}

func (t *AddTask) Run(ctx context.Context, tasks task.Tasks, args Args) (string, error) {
	created := tasks.Add(task.NewTask{
		Text:     args.String("text"),
		DueDate:  args.String("dueDate"),
		Priority: task.Priority(args.String("priority")),
		Notes:    args.String("notes"),
	})

	var b strings.Builder
	b.WriteString("Task added with ID: ")
	b.WriteString(created.ID)
	if created.Priority != task.PriorityNone {
		b.WriteString(", Priority: ")
		b.WriteString(string(created.Priority))
	}
	if created.DueDate != nil {
		b.WriteString(", Due: ")
		b.WriteString(created.DueDateString())
	}
	return b.String(), nil
}
