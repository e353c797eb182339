package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Submit outcomes.
const (
	StatusOK         = "ok"
	StatusError      = "error"
	StatusRoundLimit = "round_limit"
)

// Metrics records dispatch loop activity. A nil *Metrics records nothing.
type Metrics struct {
	submits        metric.Int64Counter
	submitDuration metric.Float64Histogram
	rounds         metric.Int64Counter
	toolCalls      metric.Int64Counter
	meter          metric.Meter
}

// NewMetrics creates the instruments on m.
func NewMetrics(m metric.Meter) (*Metrics, error) {
	var (
		mt  = &Metrics{meter: m}
		err error
	)
	mt.submits, err = m.Int64Counter("chatdo_submits_total", metric.WithDescription("User messages dispatched, by outcome"))
	if err != nil {
		return nil, err
	}
	mt.submitDuration, err = m.Float64Histogram("chatdo_submit_duration_seconds",
		metric.WithDescription("Time from user message to final reply"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}
	mt.rounds, err = m.Int64Counter("chatdo_tool_rounds_total", metric.WithDescription("Tool-call batches executed"))
	if err != nil {
		return nil, err
	}
	mt.toolCalls, err = m.Int64Counter("chatdo_tool_calls_total", metric.WithDescription("Tool calls executed, by tool and status"))
	if err != nil {
		return nil, err
	}
	return mt, nil
}

// RecordSubmit records one finished user submission.
func (m *Metrics) RecordSubmit(ctx context.Context, status string, d time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(AttrStatus.String(status))
	m.submits.Add(ctx, 1, attrs)
	m.submitDuration.Record(ctx, d.Seconds(), attrs)
}

// RecordRound records one executed tool batch.
func (m *Metrics) RecordRound(ctx context.Context) {
	if m == nil {
		return
	}
	m.rounds.Add(ctx, 1)
}

// RecordToolCall records one tool execution.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, status string) {
	if m == nil {
		return
	}
	m.toolCalls.Add(ctx, 1, metric.WithAttributes(AttrTool.String(tool), AttrStatus.String(status)))
}

// TaskCountFunc returns the number of open and completed tasks.
type TaskCountFunc func() (open, done int64)

// ObserveTasks registers a gauge reporting task counts by state.
// The returned function unregisters it.
func (m *Metrics) ObserveTasks(count TaskCountFunc) (func() error, error) {
	if m == nil || count == nil {
		return func() error { return nil }, nil
	}
	gauge, err := m.meter.Int64ObservableGauge("chatdo_tasks", metric.WithDescription("Number of tasks by state"))
	if err != nil {
		return nil, err
	}
	reg, err := m.meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		open, done := count()
		o.ObserveInt64(gauge, open, metric.WithAttributes(AttrState.String("open")))
		o.ObserveInt64(gauge, done, metric.WithAttributes(AttrState.String("done")))
		return nil
	}, gauge)
	if err != nil {
		return nil, err
	}
	return reg.Unregister, nil
}
