// Package main is the entry point for the chatdo CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"chatdo/internal/cli"
	"chatdo/internal/commands"
	"chatdo/internal/service"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Create dispatcher; commands register themselves in the default registry
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, service.Open)

	// Run and exit with code
	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
