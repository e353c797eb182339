package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"chatdo/internal/config"
	"chatdo/internal/exitcode"
	"chatdo/internal/service"
	"chatdo/internal/task"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command: manual task entry without the assistant.
type AddCmd struct {
	due      string
	priority string
	notes    string
}

func (c *AddCmd) Name() string       { return "add" }
func (c *AddCmd) Aliases() []string  { return []string{"create"} }
func (c *AddCmd) Synopsis() string   { return "Create a task" }
func (c *AddCmd) Usage() string      { return "chatdo add [--due <date>] [--priority <p>] [--notes <text>] <text...>" }
func (c *AddCmd) NeedsService() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.due, "due", "", "")
	fs.StringVar(&c.priority, "priority", "", "")
	fs.StringVar(&c.priority, "p", "", "")
	fs.StringVar(&c.notes, "notes", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, svc *service.Service, args []string, out, errOut io.Writer) int {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		fmt.Fprintln(errOut, "error: task text required")
		return exitcode.UserError
	}

	priority, err := parsePriorityFlag(c.priority)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if err := validateDueFlag(c.due); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	created := svc.Store.Add(task.NewTask{
		Text:     text,
		DueDate:  c.due,
		Priority: priority,
		Notes:    strings.TrimSpace(c.notes),
	})

	if !cfg.Quiet {
		fmt.Fprintf(out, "ok %s\n", created.ID)
	}
	return exitcode.Success
}

func parsePriorityFlag(s string) (task.Priority, error) {
	p, ok := task.ParsePriority(s)
	if !ok {
		return task.PriorityNone, fmt.Errorf("invalid priority: %s (want %s)", s, strings.Join(task.Priorities(), ", "))
	}
	return p, nil
}

// validateDueFlag rejects due dates the store would silently drop.
func validateDueFlag(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, ok := task.ParseDueDate(s); !ok {
		return fmt.Errorf("invalid due date: %s (want YYYY-MM-DD)", s)
	}
	return nil
}
