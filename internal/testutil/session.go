package testutil

import (
	"context"
	"errors"
	"strings"
	"sync"

	"chatdo/internal/conversation"
)

// ErrScriptExhausted is returned when a ScriptedSession has no reply left.
var ErrScriptExhausted = errors.New("scripted session: no reply left")

type step struct {
	turn conversation.Turn
	err  error
}

// ScriptedSession is a conversation.Session that replays queued turns. Like a
// real backend it tracks the calls of the last turn; SendText answers any that
// are still open with conversation.AbortedResult.
type ScriptedSession struct {
	mu      sync.Mutex
	steps   []step
	texts   []string
	results [][]conversation.ToolResult
	pending []conversation.ToolCall
	log     []string

	// Hooks run before the reply is taken from the script.
	OnSendText    func(text string)
	OnSendResults func(results []conversation.ToolResult)
}

// NewScriptedSession creates a session that answers with turns, in order.
func NewScriptedSession(turns ...conversation.Turn) *ScriptedSession {
	s := &ScriptedSession{}
	return s.Reply(turns...)
}

// Reply queues turns.
func (s *ScriptedSession) Reply(turns ...conversation.Turn) *ScriptedSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range turns {
		s.steps = append(s.steps, step{turn: t})
	}
	return s
}

// Fail queues a send that fails with err.
func (s *ScriptedSession) Fail(err error) *ScriptedSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = append(s.steps, step{err: err})
	return s
}

// SendText implements conversation.Session.
func (s *ScriptedSession) SendText(ctx context.Context, text string) (conversation.Turn, error) {
	if s.OnSendText != nil {
		s.OnSendText(text)
	}
	s.mu.Lock()
	if len(s.pending) > 0 {
		s.log = append(s.log, "aborted:"+callNames(s.pending))
	}
	s.texts = append(s.texts, text)
	s.log = append(s.log, "text:"+text)
	s.mu.Unlock()
	return s.next(ctx)
}

// SendResults implements conversation.Session.
func (s *ScriptedSession) SendResults(ctx context.Context, results []conversation.ToolResult) (conversation.Turn, error) {
	if s.OnSendResults != nil {
		s.OnSendResults(results)
	}
	s.mu.Lock()
	s.results = append(s.results, append([]conversation.ToolResult(nil), results...))
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Name
	}
	s.log = append(s.log, "results:"+strings.Join(names, ","))
	s.mu.Unlock()
	return s.next(ctx)
}

func (s *ScriptedSession) next(ctx context.Context) (conversation.Turn, error) {
	if err := ctx.Err(); err != nil {
		return conversation.Turn{}, conversation.Fail("send", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.steps) == 0 {
		return conversation.Turn{}, conversation.Fail("send", ErrScriptExhausted)
	}
	st := s.steps[0]
	s.steps = s.steps[1:]
	if st.err != nil {
		return conversation.Turn{}, conversation.Fail("send", st.err)
	}
	s.pending = st.turn.ToolCalls
	return st.turn, nil
}

func callNames(calls []conversation.ToolCall) string {
	names := make([]string, len(calls))
	for i, c := range calls {
		names[i] = c.Name
	}
	return strings.Join(names, ",")
}

// Texts returns the user texts sent so far.
func (s *ScriptedSession) Texts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.texts...)
}

// Results returns the tool result batches sent so far.
func (s *ScriptedSession) Results() [][]conversation.ToolResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]conversation.ToolResult(nil), s.results...)
}

// Log returns the sends in order: "text:<text>", "results:<tool names>" and,
// when SendText closed calls left open, "aborted:<tool names>" before it.
func (s *ScriptedSession) Log() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.log...)
}

// Sends returns the total number of sends.
func (s *ScriptedSession) Sends() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.texts) + len(s.results)
}

// Remaining returns the number of unused script steps.
func (s *ScriptedSession) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.steps)
}
