package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"chatdo/internal/config"
	"chatdo/internal/exitcode"
	"chatdo/internal/httpapi"
	"chatdo/internal/service"
	"chatdo/internal/telemetry"
)

// shutdownTimeout bounds the graceful shutdown of the HTTP server.
const shutdownTimeout = 10 * time.Second

func init() {
	Register(&ServeCmd{})
}

// ServeCmd serves the chat and task API over HTTP.
type ServeCmd struct {
	listen string
}

func (c *ServeCmd) Name() string       { return "serve" }
func (c *ServeCmd) Aliases() []string  { return nil }
func (c *ServeCmd) Synopsis() string   { return "Serve the chat and task API over HTTP" }
func (c *ServeCmd) Usage() string      { return "chatdo serve [--listen <addr>]" }
func (c *ServeCmd) NeedsService() bool { return true }

func (c *ServeCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listen, "listen", "", "")
}

func (c *ServeCmd) Run(ctx context.Context, cfg *config.Config, svc *service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	addr := strings.TrimSpace(c.listen)
	if addr == "" {
		addr = cfg.Listen()
	}

	metrics, err := telemetry.InitMeterProvider(ctx, config.AppName)
	if err != nil {
		fmt.Fprintf(errOut, "error: metrics: %v\n", err)
		return exitcode.BackendError
	}

	srv := httpapi.NewServer(svc, httpapi.Options{
		Addr:           addr,
		MetricsHandler: metrics,
		UseOtelHTTP:    true,
		Logger:         svc.Logger,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	if !cfg.Quiet {
		fmt.Fprintf(out, "listening on http://%s\n", addr)
	}
	svc.Logger.Info("server started", "addr", addr)

	select {
	case err := <-errCh:
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(errOut, "error: shutdown: %v\n", err)
		return exitcode.BackendError
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	svc.Logger.Info("server stopped")
	return exitcode.Success
}
