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
	Register(&DoneCmd{})
	Register(&UndoCmd{})
}

// DoneCmd implements the done command.
type DoneCmd struct{}

func (c *DoneCmd) Name() string       { return "done" }
func (c *DoneCmd) Aliases() []string  { return nil }
func (c *DoneCmd) Synopsis() string   { return "Mark a task completed" }
func (c *DoneCmd) Usage() string      { return "chatdo done <ref>" }
func (c *DoneCmd) NeedsService() bool { return true }

func (c *DoneCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *DoneCmd) Run(ctx context.Context, cfg *config.Config, svc *service.Service, args []string, out, errOut io.Writer) int {
	return runToggle(cfg, svc, args, true, out, errOut)
}

// UndoCmd implements the undo command.
type UndoCmd struct{}

func (c *UndoCmd) Name() string       { return "undo" }
func (c *UndoCmd) Aliases() []string  { return []string{"reopen"} }
func (c *UndoCmd) Synopsis() string   { return "Mark a task active again" }
func (c *UndoCmd) Usage() string      { return "chatdo undo <ref>" }
func (c *UndoCmd) NeedsService() bool { return true }

func (c *UndoCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *UndoCmd) Run(ctx context.Context, cfg *config.Config, svc *service.Service, args []string, out, errOut io.Writer) int {
	return runToggle(cfg, svc, args, false, out, errOut)
}

// runToggle is the shared implementation for done and undo.
func runToggle(cfg *config.Config, svc *service.Service, args []string, completed bool, out, errOut io.Writer) int {
	t, code, ok := lookupTask(svc, args, errOut)
	if !ok {
		return code
	}

	if !svc.Store.Toggle(t.ID, completed) {
		fmt.Fprintf(errOut, "error: task not found: %s\n", t.ID)
		return exitcode.UserError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
