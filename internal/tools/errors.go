package tools

import (
	"errors"
	"fmt"
)

// ErrUnknownTool is returned for a call to a tool that is not registered.
var ErrUnknownTool = errors.New("unknown tool")

// ValidationError reports missing or malformed tool arguments.
type ValidationError struct {
	Tool   string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, e.Detail)
}

// NotFoundError reports a tool call that referenced an unknown task id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task not found: %s", e.ID)
}

// resultText renders a tool-level error as the text sent back to the assistant.
func resultText(name string, err error) string {
	var (
		ve *ValidationError
		nf *NotFoundError
	)
	switch {
	case errors.Is(err, ErrUnknownTool):
		return fmt.Sprintf("Error: Unknown tool %q.", name)
	case errors.As(err, &ve):
		return "Error: " + ve.Error()
	case errors.As(err, &nf):
		return fmt.Sprintf("Task with ID %s not found.", nf.ID)
	default:
		return fmt.Sprintf("Error: %s failed: %v", name, err)
	}
}
