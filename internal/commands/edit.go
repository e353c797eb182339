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
	Register(&EditCmd{})
}

// EditCmd implements the edit command. Only flags that are given change
// the task; an empty --due or --notes clears the field.
type EditCmd struct {
	text     optString
	due      optString
	priority optString
	notes    optString
}

func (c *EditCmd) Name() string       { return "edit" }
func (c *EditCmd) Aliases() []string  { return nil }
func (c *EditCmd) Synopsis() string   { return "Change a task" }
func (c *EditCmd) NeedsService() bool { return true }
func (c *EditCmd) Usage() string {
	return "chatdo edit [--text <text>] [--due <date>] [--priority <p>] [--notes <text>] <ref>"
}

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	*c = EditCmd{}
	fs.Var(&c.text, "text", "")
	fs.Var(&c.due, "due", "")
	fs.Var(&c.priority, "priority", "")
	fs.Var(&c.priority, "p", "")
	fs.Var(&c.notes, "notes", "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, svc *service.Service, args []string, out, errOut io.Writer) int {
	t, code, ok := lookupTask(svc, args, errOut)
	if !ok {
		return code
	}

	var f task.Fields
	if c.text.set {
		if strings.TrimSpace(c.text.value) == "" {
			fmt.Fprintln(errOut, "error: task text must not be empty")
			return exitcode.UserError
		}
		f.Text = &c.text.value
	}
	if c.priority.set {
		p, err := parsePriorityFlag(c.priority.value)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		f.Priority = &p
	}
	if c.due.set {
		if err := validateDueFlag(c.due.value); err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		f.DueDate = &c.due.value
	}
	if c.notes.set {
		notes := strings.TrimSpace(c.notes.value)
		f.Notes = &notes
	}
	if f == (task.Fields{}) {
		fmt.Fprintln(errOut, "error: nothing to change")
		return exitcode.UserError
	}

	if _, ok := svc.Store.Edit(t.ID, f); !ok {
		fmt.Fprintf(errOut, "error: task not found: %s\n", t.ID)
		return exitcode.UserError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// optString is a string flag that records whether it was given.
type optString struct {
	value string
	set   bool
}

func (o *optString) String() string { return o.value }

func (o *optString) Set(s string) error {
	o.value, o.set = s, true
	return nil
}
