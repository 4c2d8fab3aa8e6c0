package otel

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	programMetrics     *ProgramMetrics
	programMetricsOnce sync.Once
)

// ProgramMetrics holds the instruments recorded by the instruction processor
type ProgramMetrics struct {
	instructionsTotal metric.Int64Counter
	stateBytes        metric.Int64Histogram
	publishFailures   metric.Int64Counter
}

// NewProgramMetrics creates the instruments on the given meter
func NewProgramMetrics(meter metric.Meter) (*ProgramMetrics, error) {
	instructionsTotal, err := meter.Int64Counter(
		"program.instructions.total",
		metric.WithDescription("Total number of processed instructions by kind and outcome"),
		metric.WithUnit("{instruction}"),
	)
	if err != nil {
		return nil, err
	}

	stateBytes, err := meter.Int64Histogram(
		"program.state.bytes",
		metric.WithDescription("Size of order book state buffers written back to storage"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	publishFailures, err := meter.Int64Counter(
		"program.events.publish_failures",
		metric.WithDescription("Order placed events that could not be published"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	return &ProgramMetrics{
		instructionsTotal: instructionsTotal,
		stateBytes:        stateBytes,
		publishFailures:   publishFailures,
	}, nil
}

// GetProgramMetrics returns the ProgramMetrics singleton built on the
// current meter provider. Instrument errors yield a no-op value.
func GetProgramMetrics() *ProgramMetrics {
	programMetricsOnce.Do(func() {
		m, err := NewProgramMetrics(GetMeterProvider().Meter(instrumentationName))
		if err != nil {
			m = &ProgramMetrics{}
		}
		programMetrics = m
	})
	return programMetrics
}

// RecordInstruction counts one processed instruction
func (m *ProgramMetrics) RecordInstruction(ctx context.Context, instruction, outcome string) {
	if m == nil || m.instructionsTotal == nil {
		return
	}
	m.instructionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttributeInstruction, instruction),
		attribute.String(AttributeOutcome, outcome),
	))
}

// RecordStateSize records the size of a persisted state buffer
func (m *ProgramMetrics) RecordStateSize(ctx context.Context, size int) {
	if m == nil || m.stateBytes == nil {
		return
	}
	m.stateBytes.Record(ctx, int64(size))
}

// RecordPublishFailure counts an event that could not be published
func (m *ProgramMetrics) RecordPublishFailure(ctx context.Context) {
	if m == nil || m.publishFailures == nil {
		return
	}
	m.publishFailures.Add(ctx, 1)
}
