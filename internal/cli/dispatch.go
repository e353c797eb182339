// Package cli parses the command line and dispatches to commands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"chatdo/internal/commands"
	"chatdo/internal/config"
	"chatdo/internal/exitcode"
	"chatdo/internal/service"
)

// DefaultCommand runs when no command is given.
const DefaultCommand = "chat"

// ServiceFactory creates a Service from config.
// Used to inject the task store and the assistant backend during dispatch.
type ServiceFactory func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*service.Service, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
// A nil factory opens the service configured in the config directory.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory) *Dispatcher {
	if factory == nil {
		factory = service.Open
	}
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> interactive chat
	if len(args) == 0 {
		return d.dispatch(ctx, DefaultCommand, nil, out, errOut)
	}

	cmdName := args[0]

	// If first token starts with -, it's an error (flags require a command)
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	// Create flag set with custom error handling
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	// Common flags
	var configDir string
	var quiet bool
	var debug bool

	fs.StringVar(&configDir, "config", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")

	// Register command-specific flags
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", flagError(err))
		return exitcode.UserError
	}

	// Check if first positional arg starts with - (should have been parsed as flag)
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := config.New(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug

	if !cmd.NeedsService() {
		return cmd.Run(ctx, cfg, nil, positionalArgs, out, errOut)
	}

	svc, err := d.factory(ctx, cfg, newLogger(errOut, debug))
	if err != nil {
		if errors.Is(err, service.ErrNotLoggedIn) || errors.Is(err, service.ErrNoAPIKey) {
			fmt.Fprintf(errOut, "error: auth error: %s\n", err)
			return exitcode.AuthError
		}
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.BackendError
	}
	defer func() {
		if err := svc.Close(); err != nil {
			fmt.Fprintf(errOut, "error: close: %s\n", err)
		}
	}()

	return cmd.Run(ctx, cfg, svc, positionalArgs, out, errOut)
}

// flagError rewrites flag package errors into the CLI's wording.
func flagError(err error) string {
	errStr := err.Error()

	// Missing flag value
	if strings.Contains(errStr, "flag needs an argument") {
		parts := strings.Split(errStr, ":")
		if len(parts) > 1 {
			flagPart := strings.TrimSpace(parts[1])
			return "flag needs an argument: " + flagPart
		}
	}

	// Unknown flag
	if strings.HasPrefix(errStr, "flag provided but not defined:") {
		return "unknown flag: " + strings.TrimPrefix(errStr, "flag provided but not defined: ")
	}

	return errStr
}

// newLogger returns the diagnostics logger. Logs go to errOut, and only
// warnings and errors are shown unless --debug is given.
func newLogger(errOut io.Writer, debug bool) *slog.Logger {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))
}
