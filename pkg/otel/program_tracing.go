package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	// Span names
	SpanProcessInstruction = "process_instruction"
	SpanLoadState          = "load_state"
	SpanStoreState         = "store_state"
	SpanPublishEvent       = "publish_event"

	// Attribute keys
	AttributeAccount         = "program.account"
	AttributeInstruction     = "program.instruction"
	AttributeOutcome         = "program.outcome"
	AttributeOrderType       = "order.type"
	AttributeOrderPrice      = "order.price"
	AttributeOrderAmount     = "order.amount"
	AttributeOrderTrader     = "order.trader"
	AttributeStateBytes      = "state.bytes"
	AttributeBuyOrderCount   = "state.buy_orders"
	AttributeSellOrderCount  = "state.sell_orders"
	AttributeInstructionSize = "instruction.bytes"
)

// StartSpan starts a new span on the program tracer
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// AddAttributes adds attributes to a span
func AddAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	if span == nil {
		return
	}
	span.SetAttributes(attrs...)
}

// StartInstructionSpan starts the span covering one processed instruction
func StartInstructionSpan(ctx context.Context, account, instruction string, dataLen int) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanProcessInstruction,
		attribute.String(AttributeAccount, account),
		attribute.String(AttributeInstruction, instruction),
		attribute.Int(AttributeInstructionSize, dataLen),
	)
}
