package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"chatdo/internal/config"
	"chatdo/internal/exitcode"
	"chatdo/internal/service"
)

func init() {
	Register(&SyncCmd{})
}

// SyncCmd pushes the task list to Google Tasks.
type SyncCmd struct {
	listName string
}

func (c *SyncCmd) Name() string       { return "sync" }
func (c *SyncCmd) Aliases() []string  { return nil }
func (c *SyncCmd) Synopsis() string   { return "Mirror tasks into a Google Tasks list" }
func (c *SyncCmd) Usage() string      { return "chatdo sync [--list <list-name>]" }
func (c *SyncCmd) NeedsService() bool { return true }

func (c *SyncCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listName, "list", "", "")
	fs.StringVar(&c.listName, "l", "", "")
}

func (c *SyncCmd) Run(ctx context.Context, cfg *config.Config, svc *service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	listName := strings.TrimSpace(c.listName)
	if listName == "" {
		listName = cfg.SyncList()
	}

	report, err := svc.Sync(ctx, listName)
	if err != nil {
		if errors.Is(err, service.ErrNotLoggedIn) || strings.Contains(err.Error(), config.OAuthClientFile) ||
			strings.Contains(err.Error(), "token") {
			fmt.Fprintf(errOut, "error: auth error: %v\n", err)
			return exitcode.AuthError
		}
		if strings.Contains(err.Error(), "ambiguous") {
			fmt.Fprintf(errOut, "error: ambiguous list name: %s\n", listName)
			return exitcode.UserError
		}
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return exitcode.BackendError
	}

	if !cfg.Quiet {
		fmt.Fprintf(out, "%s: %s\n", report.List.Title, report)
	}
	return exitcode.Success
}
