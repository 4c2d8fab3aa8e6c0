package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitDisabledCollector(t *testing.T) {
	ResetForTesting()
	defer ResetForTesting()

	shutdown, err := Init(Config{})
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	shutdown()

	assert.NotNil(t, GetTracer())
	assert.NotNil(t, GetMeterProvider())
}

func TestStartSpanRecordsAttributes(t *testing.T) {
	ResetForTesting()
	defer ResetForTesting()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	InitForTesting(tp.Tracer("test"))

	_, span := StartSpan(context.Background(), SpanProcessInstruction,
		attribute.String(AttributeAccount, "acct-1"),
	)
	AddAttributes(span, attribute.String(AttributeOutcome, "ok"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, SpanProcessInstruction, ended[0].Name())

	attrs := map[attribute.Key]string{}
	for _, kv := range ended[0].Attributes() {
		attrs[kv.Key] = kv.Value.AsString()
	}
	assert.Equal(t, "acct-1", attrs[AttributeAccount])
	assert.Equal(t, "ok", attrs[AttributeOutcome])
}

func TestAddAttributesNilSpan(t *testing.T) {
	assert.NotPanics(t, func() { AddAttributes(nil, attribute.Int(AttributeStateBytes, 1)) })
}

func TestProgramMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewProgramMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordInstruction(ctx, "PlaceOrder", "ok")
	m.RecordInstruction(ctx, "PlaceOrder", "ok")
	m.RecordInstruction(ctx, "GetBestBuyOrder", "no_orders")
	m.RecordStateSize(ctx, 57)
	m.RecordPublishFailure(ctx)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	byName := map[string]metricdata.Metrics{}
	for _, metric := range rm.ScopeMetrics[0].Metrics {
		byName[metric.Name] = metric
	}

	counter, ok := byName["program.instructions.total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	total := int64(0)
	for _, dp := range counter.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(3), total)
	assert.Len(t, counter.DataPoints, 2)

	hist, ok := byName["program.state.bytes"].Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.Equal(t, int64(57), hist.DataPoints[0].Sum)

	failures, ok := byName["program.events.publish_failures"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, failures.DataPoints, 1)
	assert.Equal(t, int64(1), failures.DataPoints[0].Value)
}

func TestProgramMetricsNilSafe(t *testing.T) {
	var m *ProgramMetrics
	assert.NotPanics(t, func() {
		m.RecordInstruction(context.Background(), "PlaceOrder", "ok")
		m.RecordStateSize(context.Background(), 8)
		m.RecordPublishFailure(context.Background())
	})
	assert.NotNil(t, GetProgramMetrics())
}

func TestGRPCStatsHandlers(t *testing.T) {
	assert.NotNil(t, NewGRPCStatsHandler())
	assert.NotNil(t, NewGRPCClientStatsHandler())
}
