package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chatdo/internal/backend/googletasks"
	"chatdo/internal/config"
	"chatdo/internal/conversation"
	"chatdo/internal/conversation/gemini"
	"chatdo/internal/mirror"
	"chatdo/internal/storage/jsonfile"
	"chatdo/internal/storage/sqlite"
	"chatdo/internal/task"
	"chatdo/internal/telemetry"
)

// Open builds the production service from cfg: the configured task storage,
// a Gemini session factory and the Google Tasks sync target.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Service, error) {
	if err := cfg.EnsureDir(); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		repo   task.Repository
		closer func() error
	)
	switch cfg.Storage() {
	case config.StorageSQLite:
		db, err := sqlite.Open(cfg.TasksPath())
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.TasksPath(), err)
		}
		repo, closer = db, db.Close
	default:
		file, err := jsonfile.New(cfg.TasksPath())
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", cfg.TasksPath(), err)
		}
		repo = file
	}

	store, err := task.Open(ctx, repo, task.WithLogger(logger))
	if err != nil {
		if closer != nil {
			_ = closer()
		}
		return nil, err
	}

	svc := New(store)
	svc.Logger = logger
	svc.MaxRounds = cfg.Settings.MaxRounds
	if closer != nil {
		svc.OnClose(closer)
	}

	metrics, err := telemetry.NewMetrics(telemetry.Meter())
	if err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("create metrics: %w", err)
	}
	unobserve, err := metrics.ObserveTasks(svc.TaskCounts)
	if err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("create metrics: %w", err)
	}
	svc.OnClose(unobserve)
	svc.Metrics = metrics

	if apiKey := cfg.APIKey(); apiKey != "" {
		svc.NewSession = func(ctx context.Context, decls []conversation.FunctionDecl) (conversation.Session, error) {
			return gemini.New(ctx, gemini.Options{
				APIKey:            apiKey,
				Model:             cfg.Settings.Model,
				SystemInstruction: conversation.SystemInstruction(time.Now()),
				Tools:             decls,
				Logger:            logger,
			})
		}
	}

	svc.NewRemote = func(ctx context.Context) (mirror.Remote, error) {
		if !cfg.HasOAuthClient() {
			return nil, fmt.Errorf("%s not found in %s", config.OAuthClientFile, cfg.Dir)
		}
		if !cfg.HasToken() {
			return nil, ErrNotLoggedIn
		}
		return googletasks.New(ctx, cfg)
	}

	return svc, nil
}
