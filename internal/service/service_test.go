package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdo/internal/config"
	"chatdo/internal/conversation"
	"chatdo/internal/mirror"
	"chatdo/internal/service"
	"chatdo/internal/task"
	"chatdo/internal/testutil"
)

func TestChat_WithoutSessionFactory(t *testing.T) {
	svc := service.New(task.New())

	_, err := svc.Chat(context.Background())

	assert.ErrorIs(t, err, service.ErrNoAPIKey)
}

func TestChat_OpensSessionOnce(t *testing.T) {
	svc := service.New(task.New())
	session := testutil.NewScriptedSession(
		conversation.Turn{Text: "Hello!"},
	)
	opened := 0
	var declared []conversation.FunctionDecl
	svc.NewSession = func(ctx context.Context, decls []conversation.FunctionDecl) (conversation.Session, error) {
		opened++
		declared = decls
		return session, nil
	}
	ctx := context.Background()

	loop, err := svc.Chat(ctx)
	require.NoError(t, err)
	again, err := svc.Chat(ctx)
	require.NoError(t, err)

	assert.Same(t, loop, again)
	assert.Equal(t, 1, opened)
	assert.Len(t, declared, 4)

	msg, err := loop.Submit(ctx, "hi")
	require.NoError(t, err)
	assert.Equal(t, "Hello!", msg.Text)
	assert.Equal(t, 3, svc.Transcript.Len())
}

func TestChat_SessionFactoryError(t *testing.T) {
	svc := service.New(task.New())
	boom := errors.New("boom")
	svc.NewSession = func(context.Context, []conversation.FunctionDecl) (conversation.Session, error) {
		return nil, boom
	}

	_, err := svc.Chat(context.Background())

	assert.ErrorIs(t, err, boom)
}

func TestSync(t *testing.T) {
	store := task.New()
	store.Add(task.NewTask{Text: "Buy milk"})
	svc := service.New(store)
	remote := testutil.NewFakeRemote()
	svc.NewRemote = func(context.Context) (mirror.Remote, error) { return remote, nil }

	report, err := svc.Sync(context.Background(), "ChatDo")

	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Len(t, remote.Tasks(report.List.ID), 1)
}

func TestSync_NotLoggedIn(t *testing.T) {
	svc := service.New(task.New())

	_, err := svc.Sync(context.Background(), "ChatDo")

	assert.ErrorIs(t, err, service.ErrNotLoggedIn)
}

func TestTaskCounts(t *testing.T) {
	store := task.New()
	a := store.Add(task.NewTask{Text: "A"})
	store.Add(task.NewTask{Text: "B"})
	store.Toggle(a.ID, true)

	open, done := service.New(store).TaskCounts()

	assert.Equal(t, int64(1), open)
	assert.Equal(t, int64(1), done)
}

func TestClose_RunsClosersInReverse(t *testing.T) {
	svc := service.New(task.New())
	var order []int
	svc.OnClose(func() error { order = append(order, 1); return nil })
	svc.OnClose(func() error { order = append(order, 2); return errors.New("second") })

	err := svc.Close()

	assert.EqualError(t, err, "second")
	assert.Equal(t, []int{2, 1}, order)
	assert.NoError(t, svc.Close())
}

func TestOpen_PersistsAcrossServices(t *testing.T) {
	for _, storage := range []string{config.StorageJSON, config.StorageSQLite} {
		t.Run(storage, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, config.ConfigFile), []byte("storage: "+storage+"\n"), 0600))
			cfg, err := config.New(dir)
			require.NoError(t, err)
			cfg.Getenv = func(string) string { return "" }
			ctx := context.Background()

			svc, err := service.Open(ctx, cfg, testutil.DiscardLogger())
			require.NoError(t, err)
			created := svc.Store.Add(task.NewTask{Text: "Buy milk"})
			require.NoError(t, svc.Close())

			_, err = os.Stat(cfg.TasksPath())
			require.NoError(t, err)

			svc, err = service.Open(ctx, cfg, testutil.DiscardLogger())
			require.NoError(t, err)
			defer svc.Close()
			got, ok := svc.Store.Get(created.ID)
			require.True(t, ok)
			assert.Equal(t, "Buy milk", got.Text)

			_, err = svc.Chat(ctx)
			assert.ErrorIs(t, err, service.ErrNoAPIKey)
			_, err = svc.Remote(ctx)
			assert.ErrorContains(t, err, "oauth_client.json not found")
		})
	}
}
