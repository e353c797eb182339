package tools_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatdo/internal/conversation"
	"chatdo/internal/task"
	"chatdo/internal/tools"
)

func newStore() *task.Store {
	n := 0
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	return task.New(
		task.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("t%d", n)
		}),
		task.WithClock(func() time.Time {
			now = now.Add(time.Minute)
			return now
		}),
	)
}

func call(name string, args map[string]any) conversation.ToolCall {
	return conversation.ToolCall{ID: "call-" + name, Name: name, Args: args}
}

func execute(t *testing.T, s *task.Store, c conversation.ToolCall) (string, error) {
	t.Helper()
	res, err := tools.DefaultRegistry.Execute(context.Background(), s, c)
	assert.Equal(t, c.ID, res.CallID)
	assert.Equal(t, c.Name, res.Name)
	return res.Result, err
}

func TestDefaultRegistry_Declarations(t *testing.T) {
	decls := tools.DefaultRegistry.Declarations()

	names := make([]string, len(decls))
	for i, d := range decls {
		names[i] = d.Name
		assert.NotEmpty(t, d.Description, d.Name)
	}
	assert.Equal(t, []string{"addTask", "getTasks", "removeTask", "toggleTask"}, names)

	add := decls[0]
	assert.Equal(t, []string{"text"}, add.Required())
	var priority conversation.Parameter
	for _, p := range add.Parameters {
		if p.Name == "priority" {
			priority = p
		}
	}
	assert.Equal(t, []string{"low", "medium", "high"}, priority.Enum)

	assert.Equal(t, []string{"id", "completed"}, decls[3].Required())
	assert.Empty(t, decls[1].Parameters)
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	r := tools.NewRegistry()
	require.NoError(t, r.Register(&tools.AddTask{}))

	err := r.Register(&tools.AddTask{})
	assert.EqualError(t, err, "tool already registered: addTask")
}

func TestAddTask_BuyMilk(t *testing.T) {
	s := newStore()

	text, err := execute(t, s, call("addTask", map[string]any{
		"text":     "Buy milk",
		"dueDate":  "2099-01-01",
		"priority": "high",
	}))

	require.NoError(t, err)
	assert.Equal(t, "Task added with ID: t1, Priority: high, Due: 2099-01-01", text)
	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, "Buy milk", list[0].Text)
	assert.False(t, list[0].Completed)
}

func TestAddTask_MinimalConfirmation(t *testing.T) {
	s := newStore()

	text, err := execute(t, s, call("addTask", map[string]any{"text": "Call John", "dueDate": "someday", "priority": ""}))

	require.NoError(t, err)
	assert.Equal(t, "Task added with ID: t1", text)
}

func TestAddTask_Validation(t *testing.T) {
	cases := map[string]struct {
		args map[string]any
		want string
	}{
		"missing text": {
			args: map[string]any{},
			want: `Error: invalid arguments for addTask: missing required argument "text"`,
		},
		"null text": {
			args: map[string]any{"text": nil},
			want: `Error: invalid arguments for addTask: missing required argument "text"`,
		},
		"blank text": {
			args: map[string]any{"text": "  "},
			want: `Error: invalid arguments for addTask: argument "text" must not be empty`,
		},
		"text wrong type": {
			args: map[string]any{"text": 42.0},
			want: `Error: invalid arguments for addTask: argument "text" must be a string`,
		},
		"bad priority": {
			args: map[string]any{"text": "x", "priority": "urgent"},
			want: `Error: invalid arguments for addTask: argument "priority" must be one of low, medium, high`,
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			s := newStore()

			text, err := execute(t, s, call("addTask", tc.args))

			var ve *tools.ValidationError
			assert.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.want, text)
			assert.Zero(t, s.Len())
		})
	}
}

func TestAddTask_PriorityIsCaseInsensitive(t *testing.T) {
	s := newStore()

	text, err := execute(t, s, call("addTask", map[string]any{"text": "x", "priority": "Medium", "extra": true}))

	require.NoError(t, err)
	assert.Equal(t, "Task added with ID: t1, Priority: medium", text)
}

func TestRemoveTask(t *testing.T) {
	s := newStore()
	created := s.Add(task.NewTask{Text: "A"})

	text, err := execute(t, s, call("removeTask", map[string]any{"id": created.ID}))
	require.NoError(t, err)
	assert.Equal(t, "Task t1 removed.", text)
	assert.Zero(t, s.Len())

	text, err = execute(t, s, call("removeTask", map[string]any{"id": created.ID}))
	var nf *tools.NotFoundError
	assert.ErrorAs(t, err, &nf)
	assert.Equal(t, "Task with ID t1 not found.", text)
}

func TestToggleTask(t *testing.T) {
	s := newStore()
	created := s.Add(task.NewTask{Text: "Gym"})

	text, err := execute(t, s, call("toggleTask", map[string]any{"id": created.ID, "completed": true}))
	require.NoError(t, err)
	assert.Equal(t, "Task t1 marked as completed.", text)
	got, _ := s.Get(created.ID)
	assert.True(t, got.Completed)

	text, err = execute(t, s, call("toggleTask", map[string]any{"id": created.ID, "completed": "false"}))
	require.NoError(t, err)
	assert.Equal(t, "Task t1 marked as active.", text)
	got, _ = s.Get(created.ID)
	assert.False(t, got.Completed)
}

func TestToggleTask_InvalidArguments(t *testing.T) {
	s := newStore()
	s.Add(task.NewTask{Text: "Gym"})

	text, _ := execute(t, s, call("toggleTask", map[string]any{"id": "t1"}))
	assert.Equal(t, `Error: invalid arguments for toggleTask: missing required argument "completed"`, text)

	text, _ = execute(t, s, call("toggleTask", map[string]any{"id": "t1", "completed": "yes"}))
	assert.Equal(t, `Error: invalid arguments for toggleTask: argument "completed" must be a boolean`, text)

	got, _ := s.Get("t1")
	assert.False(t, got.Completed)
}

func TestToggleTask_NotFound(t *testing.T) {
	s := newStore()

	text, err := execute(t, s, call("toggleTask", map[string]any{"id": "nope", "completed": true}))

	assert.Error(t, err)
	assert.Equal(t, "Task with ID nope not found.", text)
}

func TestGetTasks_CompactJSONInDisplayOrder(t *testing.T) {
	s := newStore()
	s.Add(task.NewTask{Text: "B"})
	s.Add(task.NewTask{Text: "A", DueDate: "2026-03-01", Priority: task.PriorityHigh, Notes: "n"})

	text, err := execute(t, s, call("getTasks", nil))

	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"id":"t2","text":"A","completed":false,"priority":"high","dueDate":"2026-03-01","notes":"n"},
		{"id":"t1","text":"B","completed":false}
	]`, text)
	assert.NotContains(t, text, "null")
}

func TestGetTasks_EmptyStore(t *testing.T) {
	text, err := execute(t, newStore(), call("getTasks", map[string]any{}))

	require.NoError(t, err)
	assert.Equal(t, "[]", text)
}

func TestExecute_UnknownTool(t *testing.T) {
	s := newStore()
	s.Add(task.NewTask{Text: "A"})
	before := s.List()

	text, err := execute(t, s, call("deleteEverything", map[string]any{"id": "t1"}))

	assert.ErrorIs(t, err, tools.ErrUnknownTool)
	assert.Equal(t, `Error: Unknown tool "deleteEverything".`, text)
	assert.Equal(t, before, s.List())
}

func TestExecuteBatch_RunsInReceivedOrder(t *testing.T) {
	s := newStore()
	calls := []conversation.ToolCall{
		{ID: "c1", Name: "addTask", Args: map[string]any{"text": "A"}},
		{ID: "c2", Name: "addTask", Args: map[string]any{"text": "B"}},
		{ID: "c3", Name: "bogus"},
	}

	outcomes := tools.DefaultRegistry.ExecuteBatch(context.Background(), s, calls)

	require.Len(t, outcomes, 3)
	results := tools.Results(outcomes)
	assert.Equal(t, []conversation.ToolResult{
		{CallID: "c1", Name: "addTask", Result: "Task added with ID: t1"},
		{CallID: "c2", Name: "addTask", Result: "Task added with ID: t2"},
		{CallID: "c3", Name: "bogus", Result: `Error: Unknown tool "bogus".`},
	}, results)
	assert.NoError(t, outcomes[0].Err)
	assert.ErrorIs(t, outcomes[2].Err, tools.ErrUnknownTool)
	assert.Equal(t, 2, s.Len())
}
