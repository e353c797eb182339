// Package gemini implements conversation.Session on the Gemini generateContent API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"chatdo/internal/conversation"
)

const (
	// DefaultModel is the model used when Options.Model is empty.
	DefaultModel = "gemini-2.5-flash"

	// DefaultTimeout bounds a single generateContent call.
	DefaultTimeout = 60 * time.Second

	roleUser  = "user"
	roleModel = "model"
)

// Options configures a Session.
type Options struct {
	APIKey            string
	Model             string
	SystemInstruction string
	Tools             []conversation.FunctionDecl
	Timeout           time.Duration
	Logger            *slog.Logger

	// HTTPClient and BaseURL override the transport and endpoint of the API
	// client. Tests point them at a local server.
	HTTPClient *http.Client
	BaseURL    string
}

// Session is a Gemini chat. It keeps the full history and resends it on every
// call; only exchanges that succeed are added to it.
type Session struct {
	client  *genai.Client
	model   string
	config  *genai.GenerateContentConfig
	timeout time.Duration
	logger  *slog.Logger

	mu        sync.Mutex
	history   []*genai.Content
	seq       int
	synthetic map[string]bool // call ids made up for calls that had none
}

// New creates a session.
func New(ctx context.Context, opts Options) (*Session, error) {
	cc := &genai.ClientConfig{
		APIKey:     opts.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cc.HTTPOptions.BaseURL = opts.BaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = DefaultModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	config := &genai.GenerateContentConfig{Tools: toolsFromDecls(opts.Tools)}
	if opts.SystemInstruction != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: opts.SystemInstruction}},
		}
	}

	return &Session{
		client:    client,
		model:     model,
		config:    config,
		timeout:   timeout,
		logger:    logger,
		synthetic: make(map[string]bool),
	}, nil
}

// SendText implements conversation.Session. Function calls of the last model
// turn that never got results are answered with conversation.AbortedResult in
// the same user turn.
func (s *Session) SendText(ctx context.Context, text string) (conversation.Turn, error) {
	s.mu.Lock()
	parts := s.abortedResponses()
	s.mu.Unlock()
	if len(parts) > 0 {
		s.logger.Debug("closing unanswered tool calls", "count", len(parts))
	}

	parts = append(parts, &genai.Part{Text: text})
	return s.send(ctx, &genai.Content{Role: roleUser, Parts: parts})
}

// SendResults implements conversation.Session.
func (s *Session) SendResults(ctx context.Context, results []conversation.ToolResult) (conversation.Turn, error) {
	parts := make([]*genai.Part, 0, len(results))
	s.mu.Lock()
	for _, r := range results {
		fr := &genai.FunctionResponse{
			Name:     r.Name,
			Response: map[string]any{"result": r.Result},
		}
		if !s.synthetic[r.CallID] {
			fr.ID = r.CallID
		}
		parts = append(parts, &genai.Part{FunctionResponse: fr})
	}
	s.mu.Unlock()

	return s.send(ctx, &genai.Content{Role: roleUser, Parts: parts})
}

// abortedResponses returns a function response for every call of a trailing
// model turn. Callers hold s.mu.
func (s *Session) abortedResponses() []*genai.Part {
	if len(s.history) == 0 {
		return nil
	}
	last := s.history[len(s.history)-1]
	if last.Role != roleModel {
		return nil
	}
	var parts []*genai.Part
	for _, p := range last.Parts {
		if p == nil || p.FunctionCall == nil {
			continue
		}
		parts = append(parts, &genai.Part{FunctionResponse: &genai.FunctionResponse{
			ID:       p.FunctionCall.ID,
			Name:     p.FunctionCall.Name,
			Response: map[string]any{"result": conversation.AbortedResult},
		}})
	}
	return parts
}

func (s *Session) send(ctx context.Context, content *genai.Content) (conversation.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contents := make([]*genai.Content, 0, len(s.history)+1)
	contents = append(contents, s.history...)
	contents = append(contents, content)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, s.config)
	if err != nil {
		return conversation.Turn{}, conversation.Fail("generate content", wrapError(err))
	}

	turn, reply, err := s.parse(resp)
	if err != nil {
		return conversation.Turn{}, conversation.Fail("generate content", err)
	}
	if resp.UsageMetadata != nil {
		s.logger.Debug("gemini turn", "model", s.model, "duration", time.Since(start),
			"tool_calls", len(turn.ToolCalls), "tokens", resp.UsageMetadata.TotalTokenCount)
	}

	s.history = append(contents, reply)
	return turn, nil
}

// parse converts the first candidate into a Turn. Thought parts are skipped
// and text parts are concatenated.
func (s *Session) parse(resp *genai.GenerateContentResponse) (conversation.Turn, *genai.Content, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		if resp != nil && resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return conversation.Turn{}, nil, fmt.Errorf("%w: prompt blocked: %s", conversation.ErrMalformedTurn, resp.PromptFeedback.BlockReason)
		}
		return conversation.Turn{}, nil, fmt.Errorf("%w: no candidate content", conversation.ErrMalformedTurn)
	}

	content := resp.Candidates[0].Content
	if content.Role == "" {
		content.Role = roleModel
	}

	var (
		turn conversation.Turn
		text strings.Builder
	)
	for _, p := range content.Parts {
		if p == nil {
			continue
		}
		if fc := p.FunctionCall; fc != nil {
			call, err := s.toolCall(fc)
			if err != nil {
				return conversation.Turn{}, nil, err
			}
			turn.ToolCalls = append(turn.ToolCalls, call)
			continue
		}
		if p.Text != "" && !p.Thought {
			text.WriteString(p.Text)
		}
	}
	turn.Text = text.String()
	return turn, content, nil
}

func (s *Session) toolCall(fc *genai.FunctionCall) (conversation.ToolCall, error) {
	if fc.Name == "" {
		return conversation.ToolCall{}, fmt.Errorf("%w: function call without name", conversation.ErrMalformedTurn)
	}
	args := make(map[string]any, len(fc.Args))
	for k, v := range fc.Args {
		args[k] = v
	}
	id := fc.ID
	if id == "" {
		s.seq++
		id = fmt.Sprintf("call-%d", s.seq)
		s.synthetic[id] = true
	}
	return conversation.ToolCall{ID: id, Name: fc.Name, Args: args}, nil
}

// toolsFromDecls converts tool declarations to the API schema. Functions
// without parameters get no parameter schema at all.
func toolsFromDecls(decls []conversation.FunctionDecl) []*genai.Tool {
	if len(decls) == 0 {
		return nil
	}
	fds := make([]*genai.FunctionDeclaration, 0, len(decls))
	for _, d := range decls {
		fd := &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
		}
		if len(d.Parameters) > 0 {
			props := make(map[string]*genai.Schema, len(d.Parameters))
			for _, p := range d.Parameters {
				props[p.Name] = &genai.Schema{
					Type:        schemaType(p.Type),
					Description: p.Description,
					Enum:        p.Enum,
				}
			}
			fd.Parameters = &genai.Schema{
				Type:       genai.TypeObject,
				Properties: props,
				Required:   d.Required(),
			}
		}
		fds = append(fds, fd)
	}
	return []*genai.Tool{{FunctionDeclarations: fds}}
}

func schemaType(t conversation.ParamType) genai.Type {
	switch t {
	case conversation.TypeBoolean:
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

// wrapError adds a readable cause to API errors, keeping the original wrapped.
func wrapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}
	switch apiErrorCode(err) {
	case 400:
		return fmt.Errorf("bad request: %w", err)
	case 401, 403:
		return fmt.Errorf("API key rejected (check GEMINI_API_KEY): %w", err)
	case 429:
		return fmt.Errorf("rate limited: %w", err)
	}
	return err
}

// apiErrorCode returns the HTTP status of a genai.APIError in err's chain, or 0.
func apiErrorCode(err error) int {
	for ; err != nil; err = errors.Unwrap(err) {
		switch e := any(err).(type) {
		case genai.APIError:
			return e.Code
		case *genai.APIError:
			return e.Code
		}
	}
	return 0
}
