// Package conversation defines the channel to the assistant backend: the turn
// structure it returns, the tool declarations it is given at session creation
// and the errors that end a dispatch round.
package conversation

import (
	"context"
	"errors"
	"fmt"
)

// ToolCall is a request from the assistant to run a named tool.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// ToolResult is the outcome of one ToolCall, sent back to the assistant.
type ToolResult struct {
	CallID string
	Name   string
	Result string
}

// Turn is one reply from the assistant.
type Turn struct {
	ToolCalls []ToolCall
	Text      string
}

// Terminal reports whether the turn ends a dispatch round.
func (t Turn) Terminal() bool {
	return len(t.ToolCalls) == 0
}

// Session is a stateful chat with the assistant backend.
// Implementations keep the history; only one request may be in flight.
type Session interface {
	// SendText sends a user utterance. Tool calls of the previous turn that
	// were never answered, because the round that received them aborted, are
	// answered with AbortedResult first.
	SendText(ctx context.Context, text string) (Turn, error)

	// SendResults sends the results of every tool call of the previous turn,
	// in the order the calls were received.
	SendResults(ctx context.Context, results []ToolResult) (Turn, error)
}

// AbortedResult answers a tool call that was dropped when its round aborted.
const AbortedResult = "Error: the request was aborted before this tool ran."

// ErrMalformedTurn is returned when a backend reply cannot be read as a Turn.
var ErrMalformedTurn = errors.New("malformed turn")

// CommunicationError reports a failure of the channel to the assistant backend.
type CommunicationError struct {
	Op  string
	Err error
}

func (e *CommunicationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CommunicationError) Unwrap() error {
	return e.Err
}

// Fail wraps err as a CommunicationError for op. A nil err returns nil.
func Fail(op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *CommunicationError
	if errors.As(err, &ce) {
		return err
	}
	return &CommunicationError{Op: op, Err: err}
}
