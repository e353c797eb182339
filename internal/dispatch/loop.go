// Package dispatch runs the conversational tool-dispatch loop: it sends a user
// message to the assistant, executes the tool calls of each reply against the
// task store and feeds the results back until the assistant answers in text.
package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"chatdo/internal/conversation"
	"chatdo/internal/telemetry"
	"chatdo/internal/tools"
	"chatdo/internal/transcript"
)

const (
	// DefaultMaxRounds is the number of tool batches allowed per submission.
	DefaultMaxRounds = 10

	// FallbackText is the reply recorded when the final turn has no text.
	FallbackText = "Done!"

	// FailureText is the reply recorded when a submission aborts.
	FailureText = "Sorry, I encountered an error communicating with the server."
)

var (
	// ErrEmptyInput is returned by Submit for blank input.
	ErrEmptyInput = errors.New("empty input")

	// ErrBusy is returned by Submit while another submission is in flight.
	ErrBusy = errors.New("a message is already being processed")

	// ErrRoundLimit aborts a submission whose assistant keeps requesting tools.
	ErrRoundLimit = errors.New("tool round limit exceeded")
)

// Loop drives one conversation. It is safe for concurrent use, but accepts a
// single submission at a time.
type Loop struct {
	session    conversation.Session
	registry   *tools.Registry
	store      tools.Batcher
	transcript *transcript.Transcript
	logger     *slog.Logger
	metrics    *telemetry.Metrics
	maxRounds  int
	onState    func(State)

	busy  atomic.Bool
	state atomic.Int32
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(lp *Loop) { lp.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(lp *Loop) { lp.metrics = m }
}

// WithMaxRounds overrides DefaultMaxRounds. Values below 1 are ignored.
func WithMaxRounds(n int) Option {
	return func(lp *Loop) {
		if n > 0 {
			lp.maxRounds = n
		}
	}
}

// WithStateHook observes every state transition.
func WithStateHook(fn func(State)) Option {
	return func(lp *Loop) { lp.onState = fn }
}

// New creates a loop that executes tool calls from session through registry
// against store, recording the exchange in tr.
func New(session conversation.Session, registry *tools.Registry, store tools.Batcher, tr *transcript.Transcript, opts ...Option) *Loop {
	l := &Loop{
		session:    session,
		registry:   registry,
		store:      store,
		transcript: tr,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxRounds:  DefaultMaxRounds,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Busy reports whether a submission is in flight.
func (l *Loop) Busy() bool {
	return l.busy.Load()
}

// State returns the current state.
func (l *Loop) State() State {
	return State(l.state.Load())
}

// Transcript returns the transcript the loop appends to.
func (l *Loop) Transcript() *transcript.Transcript {
	return l.transcript
}

// Submit dispatches one user message and returns the assistant message that
// ends it. Channel failures and the round limit do not surface as errors:
// they are logged and FailureText is recorded instead. The only errors are
// ErrEmptyInput and ErrBusy.
func (l *Loop) Submit(ctx context.Context, text string) (transcript.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return transcript.Message{}, ErrEmptyInput
	}
	if !l.busy.CompareAndSwap(false, true) {
		return transcript.Message{}, ErrBusy
	}
	defer l.busy.Store(false)

	start := time.Now()
	l.transcript.Append(transcript.SenderUser, text)

	reply, rounds, err := l.run(ctx, text)
	status := telemetry.StatusOK
	if err != nil {
		status = telemetry.StatusError
		if errors.Is(err, ErrRoundLimit) {
			status = telemetry.StatusRoundLimit
		}
		l.logger.Error("dispatch aborted", "rounds", rounds, "err", err)
		reply = FailureText
	}
	l.metrics.RecordSubmit(ctx, status, time.Since(start))

	msg := l.transcript.Append(transcript.SenderAssistant, reply)
	l.setState(Done)
	return msg, nil
}

// run performs the send/execute cycle. Mutations already applied stay in place
// when it fails.
func (l *Loop) run(ctx context.Context, text string) (string, int, error) {
	l.setState(AwaitingSend)
	turn, err := l.session.SendText(ctx, text)
	if err != nil {
		return "", 0, conversation.Fail("send message", err)
	}

	for rounds := 0; ; rounds++ {
		l.setState(TurnReceived)
		if turn.Terminal() {
			if strings.TrimSpace(turn.Text) == "" {
				return FallbackText, rounds, nil
			}
			return turn.Text, rounds, nil
		}
		if rounds >= l.maxRounds {
			return "", rounds, ErrRoundLimit
		}

		l.setState(ExecutingTools)
		outcomes := l.registry.ExecuteBatch(ctx, l.store, turn.ToolCalls)
		l.metrics.RecordRound(ctx)
		for _, o := range outcomes {
			status := telemetry.StatusOK
			if o.Err != nil {
				status = telemetry.StatusError
			}
			l.metrics.RecordToolCall(ctx, o.Call.Name, status)
			l.logger.Debug("tool call", "round", rounds+1, "tool", o.Call.Name, "call_id", o.Call.ID, "status", status, "err", o.Err)
		}

		l.setState(AwaitingSend)
		turn, err = l.session.SendResults(ctx, tools.Results(outcomes))
		if err != nil {
			return "", rounds + 1, conversation.Fail("send tool results", err)
		}
	}
}

func (l *Loop) setState(s State) {
	l.state.Store(int32(s))
	if l.onState != nil {
		l.onState(s)
	}
}
