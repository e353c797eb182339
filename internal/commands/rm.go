package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"chatdo/internal/config"
	"chatdo/internal/exitcode"
	"chatdo/internal/service"
)

func init() {
	Register(&RmCmd{})
}

// RmCmd implements the rm command.
type RmCmd struct{}

func (c *RmCmd) Name() string       { return "rm" }
func (c *RmCmd) Aliases() []string  { return []string{"delete"} }
func (c *RmCmd) Synopsis() string   { return "Delete a task" }
func (c *RmCmd) Usage() string      { return "chatdo rm <ref>" }
func (c *RmCmd) NeedsService() bool { return true }

func (c *RmCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmCmd) Run(ctx context.Context, cfg *config.Config, svc *service.Service, args []string, out, errOut io.Writer) int {
	t, code, ok := lookupTask(svc, args, errOut)
	if !ok {
		return code
	}

	if !svc.Store.Remove(t.ID) {
		fmt.Fprintf(errOut, "error: task not found: %s\n", t.ID)
		return exitcode.UserError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
