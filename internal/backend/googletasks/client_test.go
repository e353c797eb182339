package googletasks_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"chatdo/internal/backend/googletasks"
	"chatdo/internal/mirror"
	"chatdo/internal/task"
)

type apiTask struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Notes  string `json:"notes,omitempty"`
	Status string `json:"status,omitempty"`
	Due    string `json:"due,omitempty"`
}

type apiList struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// fakeTasksAPI is a minimal in-memory Google Tasks REST server.
type fakeTasksAPI struct {
	mu     sync.Mutex
	lists  []apiList
	tasks  map[string][]apiTask
	seq    int
	status int // forced response status, if non-zero
}

func newFakeTasksAPI() *fakeTasksAPI {
	return &fakeTasksAPI{tasks: make(map[string][]apiTask)}
}

func (f *fakeTasksAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tasks/v1/users/@me/lists", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"items": f.lists})
	})
	mux.HandleFunc("POST /tasks/v1/users/@me/lists", func(w http.ResponseWriter, r *http.Request) {
		var l apiList
		_ = json.NewDecoder(r.Body).Decode(&l)
		l.ID = f.nextID("L")
		f.lists = append(f.lists, l)
		writeJSON(w, l)
	})
	mux.HandleFunc("GET /tasks/v1/lists/{list}/tasks", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"items": f.tasks[r.PathValue("list")]})
	})
	mux.HandleFunc("POST /tasks/v1/lists/{list}/tasks", func(w http.ResponseWriter, r *http.Request) {
		var t apiTask
		_ = json.NewDecoder(r.Body).Decode(&t)
		t.ID = f.nextID("T")
		list := r.PathValue("list")
		f.tasks[list] = append(f.tasks[list], t)
		writeJSON(w, t)
	})
	mux.HandleFunc("PUT /tasks/v1/lists/{list}/tasks/{task}", func(w http.ResponseWriter, r *http.Request) {
		var t apiTask
		_ = json.NewDecoder(r.Body).Decode(&t)
		list := r.PathValue("list")
		for i := range f.tasks[list] {
			if f.tasks[list][i].ID == r.PathValue("task") {
				f.tasks[list][i] = t
				writeJSON(w, t)
				return
			}
		}
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
	})
	mux.HandleFunc("DELETE /tasks/v1/lists/{list}/tasks/{task}", func(w http.ResponseWriter, r *http.Request) {
		list := r.PathValue("list")
		for i, t := range f.tasks[list] {
			if t.ID == r.PathValue("task") {
				f.tasks[list] = append(f.tasks[list][:i], f.tasks[list][i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		http.Error(w, `{"error":{"code":404,"message":"not found"}}`, http.StatusNotFound)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.status != 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			fmt.Fprintf(w, `{"error":{"code":%d,"message":"forced"}}`, f.status)
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func (f *fakeTasksAPI) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s%d", prefix, f.seq)
}

// stored returns the tasks of a list as the server holds them.
func (f *fakeTasksAPI) stored(listID string) []apiTask {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiTask(nil), f.tasks[listID]...)
}

func (f *fakeTasksAPI) storedLists() []apiList {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apiList(nil), f.lists...)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newClient(t *testing.T, api *fakeTasksAPI) *googletasks.Client {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	c, err := googletasks.NewWithHTTPClient(context.Background(), srv.Client(), option.WithEndpoint(srv.URL+"/"))
	require.NoError(t, err)
	return c
}

func TestClient_ResolveList(t *testing.T) {
	api := newFakeTasksAPI()
	api.lists = []apiList{{ID: "L1", Title: "Groceries"}, {ID: "L2", Title: " ChatDo "}}
	c := newClient(t, api)
	ctx := context.Background()

	l, err := c.ResolveList(ctx, "chatdo")
	require.NoError(t, err)
	assert.Equal(t, "L2", l.ID)

	_, err = c.ResolveList(ctx, "Work")
	assert.ErrorIs(t, err, mirror.ErrNotFound)
}

func TestClient_ResolveListAmbiguous(t *testing.T) {
	api := newFakeTasksAPI()
	api.lists = []apiList{{ID: "L1", Title: "ChatDo"}, {ID: "L2", Title: "chatdo"}}
	c := newClient(t, api)

	_, err := c.ResolveList(context.Background(), "ChatDo")

	assert.ErrorContains(t, err, "ambiguous list name")
}

func TestClient_TaskRoundTrip(t *testing.T) {
	api := newFakeTasksAPI()
	c := newClient(t, api)
	ctx := context.Background()

	l, err := c.CreateList(ctx, "ChatDo")
	require.NoError(t, err)
	require.NoError(t, c.CreateTask(ctx, l.ID, mirror.RemoteTask{
		Title: "Buy milk", Notes: "[chatdo:a]", Status: mirror.StatusNeedsAction, Due: "2026-11-01",
	}))

	assert.Equal(t, "2026-11-01T00:00:00.000Z", api.stored(l.ID)[0].Due)

	got, err := c.ListTasks(ctx, l.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Buy milk", got[0].Title)
	assert.Equal(t, "2026-11-01", got[0].Due)

	updated := got[0]
	updated.Status = mirror.StatusCompleted
	require.NoError(t, c.UpdateTask(ctx, l.ID, updated))
	assert.Equal(t, mirror.StatusCompleted, api.stored(l.ID)[0].Status)

	require.NoError(t, c.DeleteTask(ctx, l.ID, updated.ID))
	assert.Empty(t, api.stored(l.ID))
}

func TestClient_PushThroughAPI(t *testing.T) {
	api := newFakeTasksAPI()
	c := newClient(t, api)
	due, _ := task.ParseDueDate("2026-11-01")

	report, err := mirror.Push(context.Background(), c, "ChatDo", []task.Task{
		{ID: "a", Text: "Buy milk", Priority: task.PriorityHigh, DueDate: &due},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	lists := api.storedLists()
	require.Len(t, lists, 1)
	stored := api.stored(lists[0].ID)
	require.Len(t, stored, 1)
	assert.True(t, strings.HasSuffix(stored[0].Notes, "[chatdo:a]"))
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusUnauthorized, "token expired or revoked"},
		{http.StatusForbidden, "token expired or revoked"},
		{http.StatusNotFound, "not found"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			api := newFakeTasksAPI()
			api.status = tt.status
			c := newClient(t, api)

			_, err := c.ListTasks(context.Background(), "L1")

			assert.ErrorContains(t, err, tt.want)
		})
	}
}
