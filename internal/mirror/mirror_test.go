package mirror_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdo/internal/mirror"
	"chatdo/internal/task"
	"chatdo/internal/testutil"
)

func due(s string) *time.Time {
	d, _ := task.ParseDueDate(s)
	return &d
}

func localTasks() []task.Task {
	return []task.Task{
		{ID: "a", Text: "Buy milk", Priority: task.PriorityHigh, DueDate: due("2026-11-01"), CreatedAt: time.Unix(2, 0)},
		{ID: "b", Text: "Call John", Completed: true, Notes: "about the car", CreatedAt: time.Unix(1, 0)},
	}
}

func TestToRemote(t *testing.T) {
	rt := mirror.ToRemote(localTasks()[0])

	assert.Equal(t, mirror.RemoteTask{
		Title:  "Buy milk",
		Notes:  "Priority: high\n[chatdo:a]",
		Status: mirror.StatusNeedsAction,
		Due:    "2026-11-01",
	}, rt)
	assert.Equal(t, "a", mirror.LocalID(rt.Notes))

	rt = mirror.ToRemote(localTasks()[1])
	assert.Equal(t, "about the car\n[chatdo:b]", rt.Notes)
	assert.Equal(t, mirror.StatusCompleted, rt.Status)
	assert.Empty(t, rt.Due)
}

func TestLocalID_Unmarked(t *testing.T) {
	assert.Empty(t, mirror.LocalID("just a note"))
	assert.Empty(t, mirror.LocalID(""))
}

func TestPush_CreatesListAndTasks(t *testing.T) {
	remote := testutil.NewFakeRemote()

	report, err := mirror.Push(context.Background(), remote, "ChatDo", localTasks())

	require.NoError(t, err)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, "2 created, 0 updated, 0 deleted, 0 unchanged", report.String())
	require.Len(t, remote.Lists(), 1)
	got := remote.Tasks(report.List.ID)
	require.Len(t, got, 2)
	// Display order: open before completed.
	assert.Equal(t, "Buy milk", got[0].Title)
	assert.Equal(t, "Call John", got[1].Title)
}

func TestPush_SecondRunIsNoop(t *testing.T) {
	remote := testutil.NewFakeRemote()
	ctx := context.Background()
	_, err := mirror.Push(ctx, remote, "ChatDo", localTasks())
	require.NoError(t, err)

	report, err := mirror.Push(ctx, remote, "chatdo ", localTasks())

	require.NoError(t, err)
	assert.Equal(t, mirror.Report{List: report.List, Unchanged: 2}, report)
}

func TestPush_UpdatesAndDeletesOnlyMarkedTasks(t *testing.T) {
	remote := testutil.NewFakeRemote()
	remote.AddList("L1", "ChatDo")
	remote.AddTask("L1", mirror.RemoteTask{ID: "mine", Title: "User's own", Status: mirror.StatusNeedsAction})
	remote.AddTask("L1", mirror.RemoteTask{ID: "r-a", Title: "Old title", Notes: "[chatdo:a]", Status: mirror.StatusNeedsAction})
	remote.AddTask("L1", mirror.RemoteTask{ID: "r-gone", Title: "Removed locally", Notes: "[chatdo:gone]"})

	report, err := mirror.Push(context.Background(), remote, "ChatDo", localTasks())

	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.Deleted)

	byID := map[string]mirror.RemoteTask{}
	for _, rt := range remote.Tasks("L1") {
		byID[rt.ID] = rt
	}
	assert.Contains(t, byID, "mine")
	assert.NotContains(t, byID, "r-gone")
	assert.Equal(t, "Buy milk", byID["r-a"].Title)
}

func TestPush_DuplicateMarkersAreRemoved(t *testing.T) {
	remote := testutil.NewFakeRemote()
	remote.AddList("L1", "ChatDo")
	want := mirror.ToRemote(localTasks()[0])
	want.ID = "r1"
	remote.AddTask("L1", want)
	want.ID = "r2"
	remote.AddTask("L1", want)

	report, err := mirror.Push(context.Background(), remote, "ChatDo", localTasks()[:1])

	require.NoError(t, err)
	assert.Equal(t, 1, report.Unchanged)
	assert.Equal(t, 1, report.Deleted)
	assert.Len(t, remote.Tasks("L1"), 1)
}

func TestPush_Errors(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name   string
		inject func(*testutil.FakeRemote)
	}{
		{"resolve", func(f *testutil.FakeRemote) { f.ResolveListErr = boom }},
		{"create list", func(f *testutil.FakeRemote) { f.CreateListErr = boom }},
		{"list tasks", func(f *testutil.FakeRemote) { f.ListTasksErr = boom }},
		{"create task", func(f *testutil.FakeRemote) { f.CreateTaskErr = boom }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := testutil.NewFakeRemote()
			tt.inject(remote)

			_, err := mirror.Push(context.Background(), remote, "ChatDo", localTasks())

			assert.ErrorIs(t, err, boom)
		})
	}
}
