package commands

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"chatdo/internal/config"
	"chatdo/internal/dispatch"
	"chatdo/internal/exitcode"
	"chatdo/internal/output"
	"chatdo/internal/service"
)

func init() {
	Register(&ChatCmd{})
	Register(&AskCmd{})
}

// ChatCmd implements the interactive chat. It is also what runs when chatdo
// is started without a command.
type ChatCmd struct {
	in io.Reader
}

// SetInput sets the reader messages are read from (for testing).
func (c *ChatCmd) SetInput(r io.Reader) {
	c.in = r
}

func (c *ChatCmd) Name() string       { return "chat" }
func (c *ChatCmd) Aliases() []string  { return nil }
func (c *ChatCmd) Synopsis() string   { return "Chat with the assistant" }
func (c *ChatCmd) Usage() string      { return "chatdo chat" }
func (c *ChatCmd) NeedsService() bool { return true }

func (c *ChatCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ChatCmd) Run(ctx context.Context, cfg *config.Config, svc *service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s (use: chatdo ask <message...>)\n", args[0])
		return exitcode.UserError
	}

	loop, code, ok := openChat(ctx, svc, errOut)
	if !ok {
		return code
	}

	if !cfg.Quiet {
		for _, m := range svc.Transcript.Messages() {
			output.FormatMessage(out, m)
		}
	}

	in := c.in
	if in == nil {
		in = os.Stdin
	}
	scanner := bufio.NewScanner(in)
	for {
		if !cfg.Quiet {
			fmt.Fprint(out, output.Prompt)
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return exitcode.Success
		}

		reply, err := loop.Submit(ctx, line)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			continue
		}
		output.FormatMessage(out, reply)

		if ctx.Err() != nil {
			return exitcode.Success
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(errOut, "error: reading input: %v\n", err)
		return exitcode.UserError
	}
	if !cfg.Quiet {
		fmt.Fprintln(out)
	}
	return exitcode.Success
}

// AskCmd sends a single message and prints the reply.
type AskCmd struct{}

func (c *AskCmd) Name() string       { return "ask" }
func (c *AskCmd) Aliases() []string  { return nil }
func (c *AskCmd) Synopsis() string   { return "Send one message to the assistant" }
func (c *AskCmd) Usage() string      { return "chatdo ask <message...>" }
func (c *AskCmd) NeedsService() bool { return true }

func (c *AskCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *AskCmd) Run(ctx context.Context, cfg *config.Config, svc *service.Service, args []string, out, errOut io.Writer) int {
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		fmt.Fprintln(errOut, "error: message required")
		return exitcode.UserError
	}

	loop, code, ok := openChat(ctx, svc, errOut)
	if !ok {
		return code
	}

	reply, err := loop.Submit(ctx, text)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	fmt.Fprintln(out, reply.Text)
	if reply.Text == dispatch.FailureText {
		return exitcode.BackendError
	}
	return exitcode.Success
}

// openChat opens the dispatch loop, reporting failures on errOut.
func openChat(ctx context.Context, svc *service.Service, errOut io.Writer) (*dispatch.Loop, int, bool) {
	loop, err := svc.Chat(ctx)
	if errors.Is(err, service.ErrNoAPIKey) {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return nil, exitcode.AuthError, false
	}
	if err != nil {
		fmt.Fprintf(errOut, "error: backend error: %v\n", err)
		return nil, exitcode.BackendError, false
	}
	return loop, exitcode.Success, true
}
