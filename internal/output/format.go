// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"chatdo/internal/task"
	"chatdo/internal/transcript"
)

const (
	// ListSeparator is the separator line around the list header.
	ListSeparator = "------------"

	// Prompt is printed before each line of interactive input.
	Prompt = "> "
)

// FormatListHeader formats the task list header with the open-task count.
func FormatListHeader(w io.Writer, open int) {
	fmt.Fprintln(w, ListSeparator)
	fmt.Fprintf(w, "Your Tasks (%d)\n", open)
	fmt.Fprintln(w, ListSeparator)
}

// FormatTask formats a task line.
// Format: "{N:>4}  [ ] {TITLE}" followed by "  ({priority}, due {date})" when set.
func FormatTask(w io.Writer, num int, t task.Task) {
	box := "[ ]"
	if t.Completed {
		box = "[x]"
	}
	fmt.Fprintf(w, "%4d  %s %s%s\n", num, box, normalizeTitle(t.Text), details(t))
}

// FormatNotes formats the notes of a task, indented under its line.
func FormatNotes(w io.Writer, t task.Task) {
	if t.Notes == "" {
		return
	}
	for _, line := range strings.Split(t.Notes, "\n") {
		fmt.Fprintf(w, "          %s\n", line)
	}
}

// FormatMessage formats a transcript message.
func FormatMessage(w io.Writer, m transcript.Message) {
	who := "ChatDo"
	if m.Sender == transcript.SenderUser {
		who = "You"
	}
	fmt.Fprintf(w, "%s: %s\n", who, m.Text)
}

func details(t task.Task) string {
	var parts []string
	if t.Priority != task.PriorityNone {
		parts = append(parts, string(t.Priority))
	}
	if due := t.DueDateString(); due != "" {
		parts = append(parts, "due "+due)
	}
	if len(parts) == 0 {
		return ""
	}
	return "  (" + strings.Join(parts, ", ") + ")"
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
