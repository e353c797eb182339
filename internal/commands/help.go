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
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command. The command list is generated from
// the registry.
type HelpCmd struct {
	registry *Registry
}

// SetRegistry sets the registry listed by help (for testing).
func (c *HelpCmd) SetRegistry(r *Registry) {
	c.registry = r
}

func (c *HelpCmd) Name() string       { return "help" }
func (c *HelpCmd) Aliases() []string  { return nil }
func (c *HelpCmd) Synopsis() string   { return "Print usage" }
func (c *HelpCmd) Usage() string      { return "chatdo help" }
func (c *HelpCmd) NeedsService() bool { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc *service.Service, args []string, out, errOut io.Writer) int {
	registry := c.registry
	if registry == nil {
		registry = DefaultRegistry
	}

	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  chatdo")
	fmt.Fprintln(out, "      Chat with the assistant (same as chatdo chat)")
	for _, cmd := range registry.All() {
		fmt.Fprintf(out, "  %s\n", cmd.Usage())
		synopsis := cmd.Synopsis()
		if aliases := cmd.Aliases(); len(aliases) > 0 {
			synopsis += " (alias: " + strings.Join(aliases, ", ") + ")"
		}
		fmt.Fprintf(out, "      %s\n", synopsis)
	}
	fmt.Fprint(out, helpFooter)
	return exitcode.Success
}

const helpFooter = `
<ref> is a task number from 'chatdo list' or a task id (a unique prefix is enough).
<date> is YYYY-MM-DD. <p> is low, medium or high.

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
