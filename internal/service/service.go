// Package service bundles the collaborators that commands run against.
// Commands never import a storage driver or API SDK directly.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"chatdo/internal/conversation"
	"chatdo/internal/dispatch"
	"chatdo/internal/mirror"
	"chatdo/internal/task"
	"chatdo/internal/telemetry"
	"chatdo/internal/tools"
	"chatdo/internal/transcript"
)

var (
	// ErrNoAPIKey is returned by Chat when no assistant backend is configured.
	ErrNoAPIKey = errors.New("no Gemini API key (set GEMINI_API_KEY or api_key in config.yaml)")

	// ErrNotLoggedIn is returned by Remote when no Google credentials are stored.
	ErrNotLoggedIn = errors.New("not logged in (run: chatdo login)")
)

// SessionFactory opens an assistant session that knows the given tools.
type SessionFactory func(ctx context.Context, decls []conversation.FunctionDecl) (conversation.Session, error)

// RemoteFactory opens the sync target.
type RemoteFactory func(ctx context.Context) (mirror.Remote, error)

// Service holds the task store and everything a conversation needs.
// The assistant session is opened lazily by the first Chat call, so
// commands that only touch tasks work without an API key.
type Service struct {
	Store      *task.Store
	Registry   *tools.Registry
	Transcript *transcript.Transcript
	Logger     *slog.Logger
	Metrics    *telemetry.Metrics
	MaxRounds  int

	NewSession SessionFactory
	NewRemote  RemoteFactory

	mu      sync.Mutex
	loop    *dispatch.Loop
	closers []func() error
}

// New creates a service around store with the default tool registry and a
// fresh transcript. Callers set the factories they need.
func New(store *task.Store) *Service {
	return &Service{
		Store:      store,
		Registry:   tools.DefaultRegistry,
		Transcript: transcript.New(transcript.Welcome),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Chat returns the dispatch loop, opening the assistant session on first use.
func (s *Service) Chat(ctx context.Context) (*dispatch.Loop, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loop != nil {
		return s.loop, nil
	}
	if s.NewSession == nil {
		return nil, ErrNoAPIKey
	}
	session, err := s.NewSession(ctx, s.Registry.Declarations())
	if err != nil {
		return nil, err
	}
	s.loop = dispatch.New(session, s.Registry, s.Store, s.Transcript,
		dispatch.WithLogger(s.Logger),
		dispatch.WithMetrics(s.Metrics),
		dispatch.WithMaxRounds(s.MaxRounds),
	)
	return s.loop, nil
}

// Remote opens the sync target.
func (s *Service) Remote(ctx context.Context) (mirror.Remote, error) {
	if s.NewRemote == nil {
		return nil, ErrNotLoggedIn
	}
	return s.NewRemote(ctx)
}

// Sync pushes the current task list into the named remote list.
func (s *Service) Sync(ctx context.Context, listName string) (mirror.Report, error) {
	remote, err := s.Remote(ctx)
	if err != nil {
		return mirror.Report{}, err
	}
	report, err := mirror.Push(ctx, remote, listName, s.Store.List())
	if err != nil {
		return report, fmt.Errorf("sync: %w", err)
	}
	s.Logger.Debug("sync finished", "list", report.List.Title, "report", report.String())
	return report, nil
}

// TaskCounts returns the number of open and completed tasks.
func (s *Service) TaskCounts() (open, done int64) {
	for _, t := range s.Store.List() {
		if t.Completed {
			done++
		} else {
			open++
		}
	}
	return open, done
}

// OnClose registers fn to run on Close, in reverse registration order.
func (s *Service) OnClose(fn func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closers = append(s.closers, fn)
}

// Close releases the resources registered with OnClose.
func (s *Service) Close() error {
	s.mu.Lock()
	closers := slices.Clone(s.closers)
	s.closers = nil
	s.mu.Unlock()

	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		errs = append(errs, closers[i]())
	}
	return errors.Join(errs...)
}
