package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"chatdo/internal/config"
	"chatdo/internal/exitcode"
	"chatdo/internal/output"
	"chatdo/internal/service"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command.
// Numbers printed here are the refs accepted by done, undo, edit and rm.
type ListCmd struct {
	open  bool
	notes bool
}

func (c *ListCmd) Name() string       { return "list" }
func (c *ListCmd) Aliases() []string  { return []string{"ls"} }
func (c *ListCmd) Synopsis() string   { return "List tasks" }
func (c *ListCmd) Usage() string      { return "chatdo list [--open] [--notes]" }
func (c *ListCmd) NeedsService() bool { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.open, "open", false, "")
	fs.BoolVar(&c.notes, "notes", false, "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, svc *service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	tasks := svc.Store.List()
	open, _ := svc.TaskCounts()

	if len(tasks) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no tasks found")
		}
		return exitcode.Success
	}

	output.FormatListHeader(out, int(open))
	for i, t := range tasks {
		// Completed tasks sort last, so numbering is unaffected by --open.
		if c.open && t.Completed {
			break
		}
		output.FormatTask(out, i+1, t)
		if c.notes {
			output.FormatNotes(out, t)
		}
	}
	return exitcode.Success
}
