package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"chatdo/internal/conversation"
	"chatdo/internal/task"
)

// Registry holds registered tools.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates a new tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a tool to the registry.
// Returns an error if the name is already registered.
func (r *Registry) Register(t Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := t.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool already registered: %s", name)
	}
	r.tools[name] = t
	return nil
}

// Find looks up a tool by name.
func (r *Registry) Find(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// All returns all tools sorted by name.
func (r *Registry) All() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]Tool, len(names))
	for i, name := range names {
		result[i] = r.tools[name]
	}
	return result
}

// Declarations returns the signatures of all tools, for session creation.
func (r *Registry) Declarations() []conversation.FunctionDecl {
	all := r.All()
	decls := make([]conversation.FunctionDecl, len(all))
	for i, t := range all {
		decls[i] = conversation.FunctionDecl{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		}
	}
	return decls
}

// Execute validates and runs a single call against tasks.
// The result text is always set; the error, if any, is the tool-level failure
// that the text describes and is meant for logging only.
func (r *Registry) Execute(ctx context.Context, tasks task.Tasks, call conversation.ToolCall) (conversation.ToolResult, error) {
	res := conversation.ToolResult{CallID: call.ID, Name: call.Name}

	text, err := r.run(ctx, tasks, call)
	if err != nil {
		res.Result = resultText(call.Name, err)
		return res, err
	}
	res.Result = text
	return res, nil
}

func (r *Registry) run(ctx context.Context, tasks task.Tasks, call conversation.ToolCall) (string, error) {
	t, ok := r.Find(call.Name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
	}
	args, err := bind(t.Name(), t.Parameters(), call.Args)
	if err != nil {
		return "", err
	}
	return t.Run(ctx, tasks, args)
}

// Batcher gives exclusive access to a task collection for the duration of fn.
// *task.Store implements it.
type Batcher interface {
	Batch(fn func(task.Tasks))
}

// Outcome is the record of one executed call.
type Outcome struct {
	Call   conversation.ToolCall
	Result conversation.ToolResult
	Err    error
}

// ExecuteBatch runs every call sequentially, in received order, inside one
// store batch so no other mutation can interleave.
func (r *Registry) ExecuteBatch(ctx context.Context, store Batcher, calls []conversation.ToolCall) []Outcome {
	outcomes := make([]Outcome, 0, len(calls))
	store.Batch(func(tasks task.Tasks) {
		for _, call := range calls {
			res, err := r.Execute(ctx, tasks, call)
			outcomes = append(outcomes, Outcome{Call: call, Result: res, Err: err})
		}
	})
	return outcomes
}

// Results extracts the tool results of outcomes, preserving order.
func Results(outcomes []Outcome) []conversation.ToolResult {
	results := make([]conversation.ToolResult, len(outcomes))
	for i, o := range outcomes {
		results[i] = o.Result
	}
	return results
}

// DefaultRegistry is the global tool registry.
var DefaultRegistry = NewRegistry()

// Register adds a tool to the default registry.
func Register(t Tool) {
	if err := DefaultRegistry.Register(t); err != nil {
		panic(err)
	}
}
