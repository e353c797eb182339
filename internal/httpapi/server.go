// Package httpapi serves the chat and the task list over HTTP for chatdo serve.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"chatdo/internal/dispatch"
	"chatdo/internal/service"
	"chatdo/internal/task"
)

// maxRequestBodyBytes limits request bodies (64 KiB).
const maxRequestBodyBytes = 64 << 10

// Options configures the HTTP handler.
type Options struct {
	Addr           string
	MetricsHandler http.Handler // if set, served at /metrics
	UseOtelHTTP    bool         // if true, wrap the handler with otelhttp for request metrics
	Logger         *slog.Logger
}

// NewServer returns an http.Server for svc.
func NewServer(svc *service.Service, opts Options) *http.Server {
	return &http.Server{
		Addr:              opts.Addr,
		Handler:           NewHandler(svc, opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// A chat request waits for every tool round.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
}

// NewHandler returns the routed handler for svc.
func NewHandler(svc *service.Service, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = svc.Logger
	}
	h := &handlers{svc: svc, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	mux.HandleFunc("POST /api/chat", h.chat)
	mux.HandleFunc("GET /api/messages", h.messages)
	mux.HandleFunc("GET /api/tasks", h.listTasks)
	mux.HandleFunc("POST /api/tasks", h.createTask)
	mux.HandleFunc("PATCH /api/tasks/{id}", h.updateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", h.deleteTask)
	if opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", opts.MetricsHandler)
	}

	var handler http.Handler = mux
	handler = bodyLimitMiddleware(maxRequestBodyBytes, handler)
	handler = requestLogMiddleware(logger, handler)
	if opts.UseOtelHTTP {
		handler = otelhttp.NewHandler(handler, "chatdo")
	}
	return handler
}

type handlers struct {
	svc    *service.Service
	logger *slog.Logger
}

func (h *handlers) chat(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(body.Message) == "" {
		writeJSONError(w, http.StatusBadRequest, "message required")
		return
	}

	loop, err := h.svc.Chat(r.Context())
	if errors.Is(err, service.ErrNoAPIKey) {
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("open chat session", "err", err)
		writeJSONError(w, http.StatusBadGateway, "assistant unavailable")
		return
	}

	reply, err := loop.Submit(r.Context(), body.Message)
	switch {
	case errors.Is(err, dispatch.ErrEmptyInput):
		writeJSONError(w, http.StatusBadRequest, "message required")
		return
	case errors.Is(err, dispatch.ErrBusy):
		writeJSONError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reply": reply})
}

func (h *handlers) messages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"messages": h.svc.Transcript.Messages()})
}

func (h *handlers) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks := h.svc.Store.List()
	open, _ := h.svc.TaskCounts()
	views := make([]taskView, len(tasks))
	for i, t := range tasks {
		views[i] = viewOf(t)
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": views, "open": open})
}

func (h *handlers) createTask(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text     string `json:"text"`
		DueDate  string `json:"dueDate"`
		Priority string `json:"priority"`
		Notes    string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		writeJSONError(w, http.StatusBadRequest, "text required")
		return
	}
	priority, ok := task.ParsePriority(body.Priority)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "priority must be one of low, medium, high")
		return
	}

	created := h.svc.Store.Add(task.NewTask{
		Text:     body.Text,
		DueDate:  body.DueDate,
		Priority: priority,
		Notes:    strings.TrimSpace(body.Notes),
	})
	writeJSON(w, http.StatusCreated, viewOf(created))
}

func (h *handlers) updateTask(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text      *string `json:"text"`
		DueDate   *string `json:"dueDate"`
		Priority  *string `json:"priority"`
		Notes     *string `json:"notes"`
		Completed *bool   `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}

	f := task.Fields{Text: body.Text, DueDate: body.DueDate, Notes: body.Notes}
	if body.Priority != nil {
		p, ok := task.ParsePriority(*body.Priority)
		if !ok {
			writeJSONError(w, http.StatusBadRequest, "priority must be one of low, medium, high")
			return
		}
		f.Priority = &p
	}

	id := r.PathValue("id")
	var (
		updated task.Task
		found   bool
	)
	// One batch, so a concurrent dispatch round sees both changes or neither.
	h.svc.Store.Batch(func(tasks task.Tasks) {
		if updated, found = tasks.Get(id); !found {
			return
		}
		if f != (task.Fields{}) {
			updated, _ = tasks.Edit(id, f)
		}
		if body.Completed != nil {
			tasks.Toggle(id, *body.Completed)
			updated, _ = tasks.Get(id)
		}
	})
	if !found {
		writeJSONError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(updated))
}

func (h *handlers) deleteTask(w http.ResponseWriter, r *http.Request) {
	if !h.svc.Store.Remove(r.PathValue("id")) {
		writeJSONError(w, http.StatusNotFound, "task not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// taskView is the JSON form of a task.
type taskView struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
	DueDate   string    `json:"dueDate,omitempty"`
	Priority  string    `json:"priority,omitempty"`
	Notes     string    `json:"notes,omitempty"`
}

func viewOf(t task.Task) taskView {
	return taskView{
		ID:        t.ID,
		Text:      t.Text,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt,
		DueDate:   t.DueDateString(),
		Priority:  string(t.Priority),
		Notes:     t.Notes,
	}
}

// bodyLimitMiddleware limits request body size for POST, PUT, PATCH.
func bodyLimitMiddleware(maxBytes int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// responseRecorder captures the status code for logging.
type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogMiddleware(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)
		logger.Debug("request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// writeJSONError sends a JSON body {"error": "message"} with the given status code.
func writeJSONError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]any{"error": message})
}
