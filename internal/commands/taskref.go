package commands

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"chatdo/internal/exitcode"
	"chatdo/internal/service"
	"chatdo/internal/task"
)

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ResolveTaskRef finds the task a reference points at.
//
// Resolution rules:
//  1. All digits → 1-based number in display order (as printed by list)
//  2. Otherwise → a task id, or a prefix matching exactly one id
func ResolveTaskRef(tasks []task.Task, args []string) (task.Task, error) {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return task.Task{}, ErrTaskRefRequired
	}
	if len(args) > 1 {
		return task.Task{}, fmt.Errorf("unexpected argument: %s", args[1])
	}
	ref := strings.TrimSpace(args[0])

	if isAllDigits(ref) {
		num, err := strconv.Atoi(ref)
		if err != nil {
			return task.Task{}, fmt.Errorf("invalid task reference: %s", ref)
		}
		if num < 1 || num > len(tasks) {
			return task.Task{}, fmt.Errorf("task number out of range: %d", num)
		}
		return tasks[num-1], nil
	}

	var matches []task.Task
	for _, t := range tasks {
		if t.ID == ref {
			return t, nil
		}
		if strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 0:
		return task.Task{}, fmt.Errorf("task not found: %s", ref)
	case 1:
		return matches[0], nil
	default:
		return task.Task{}, fmt.Errorf("ambiguous task reference: %s", ref)
	}
}

// lookupTask resolves args against the current task list and reports
// failures on errOut. ok is false when the caller should exit with code.
func lookupTask(svc *service.Service, args []string, errOut io.Writer) (t task.Task, code int, ok bool) {
	t, err := ResolveTaskRef(svc.Store.List(), args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return task.Task{}, exitcode.UserError, false
	}
	return t, exitcode.Success, true
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
