package program

import (
	"context"
	"errors"
	"fmt"

	"github.com/erain9/bookprogram/pkg/core"
	"github.com/erain9/bookprogram/pkg/logging"
	"github.com/erain9/bookprogram/pkg/messaging"
	pkgotel "github.com/erain9/bookprogram/pkg/otel"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Processor executes instructions against accounts held in a StateStore.
// Invocations on the same account are serialised.
type Processor struct {
	store   core.StateStore
	sender  messaging.MessageSender
	metrics *pkgotel.ProgramMetrics
	locks   *accountLocks
}

// Option configures a Processor
type Option func(*Processor)

// WithMessageSender publishes an OrderPlaced event after every stored order
func WithMessageSender(sender messaging.MessageSender) Option {
	return func(p *Processor) {
		p.sender = sender
	}
}

// WithMetrics overrides the metrics instruments
func WithMetrics(metrics *pkgotel.ProgramMetrics) Option {
	return func(p *Processor) {
		p.metrics = metrics
	}
}

// NewProcessor creates a Processor over store
func NewProcessor(store core.StateStore, opts ...Option) *Processor {
	p := &Processor{
		store: store,
		locks: newAccountLocks(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.metrics == nil {
		p.metrics = pkgotel.GetProgramMetrics()
	}
	return p
}

// Store returns the underlying state store
func (p *Processor) Store() core.StateStore {
	return p.store
}

// Process runs instructionData against account and returns the query
// output, if any. Malformed instructions are rejected before the store
// is touched.
func (p *Processor) Process(ctx context.Context, account string, instructionData []byte, signer core.Trader) (output []byte, err error) {
	ctx = logging.WithAccount(ctx, account)
	logger := logging.FromContext(ctx).With().Str("signer", signer.String()).Logger()

	instr, decodeErr := core.DecodeInstruction(instructionData)
	kind := "Unknown"
	if decodeErr == nil {
		kind = instr.Tag().String()
	}

	ctx, span := pkgotel.StartInstructionSpan(ctx, account, kind, len(instructionData))
	defer func() {
		outcome := Outcome(err)
		span.SetAttributes(attribute.String(pkgotel.AttributeOutcome, outcome))
		if err != nil && outcome != OutcomeNoOrders {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		p.metrics.RecordInstruction(ctx, kind, outcome)
	}()

	if decodeErr != nil {
		if len(instructionData) == 0 {
			logger.Warn().Msg("No instruction data provided")
		} else {
			logger.Warn().Err(decodeErr).Msg("Failed to unpack instruction data")
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidInstructionData, decodeErr)
	}
	logger.Info().Msgf("Instruction: %s", kind)

	unlock := p.locks.lock(account)
	defer unlock()

	state, err := p.load(ctx, account)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load account state")
		return nil, fmt.Errorf("%w: %w", ErrInvalidAccountData, err)
	}

	res, err := Execute(instr, state)
	if err != nil {
		if errors.Is(err, ErrNoOrdersAvailable) {
			logger.Info().Msg("No orders available")
		} else {
			logger.Warn().Err(err).Msg("Instruction failed")
		}
		return nil, err
	}

	switch instr.(type) {
	case core.PlaceOrder:
		if err := p.persist(ctx, account, res.State); err != nil {
			logger.Warn().Err(err).Int("state_bytes", len(res.State)).Msg("Failed to store account state")
			return nil, err
		}
		logOrder(logger.Info(), res.Order).Int("state_bytes", len(res.State)).Msg("Order placed")
		p.publish(ctx, logger, account, res.Order)
	case core.GetBestBuyOrder:
		logOrder(logger.Info(), res.Order).Msg("Best buy order")
	case core.GetBestSellOrder:
		logOrder(logger.Info(), res.Order).Msg("Best sell order")
	}

	return res.Output, nil
}

func (p *Processor) load(ctx context.Context, account string) ([]byte, error) {
	ctx, span := pkgotel.StartSpan(ctx, pkgotel.SpanLoadState)
	defer span.End()

	state, err := p.store.Load(ctx, account)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	pkgotel.AddAttributes(span, attribute.Int(pkgotel.AttributeStateBytes, len(state)))
	return state, nil
}

func (p *Processor) persist(ctx context.Context, account string, state []byte) error {
	ctx, span := pkgotel.StartSpan(ctx, pkgotel.SpanStoreState,
		attribute.Int(pkgotel.AttributeStateBytes, len(state)),
	)
	defer span.End()

	if err := p.store.Store(ctx, account, state); err != nil {
		span.RecordError(err)
		if errors.Is(err, ErrInsufficientStorage) {
			return err
		}
		return fmt.Errorf("store account %s: %w", account, err)
	}
	p.metrics.RecordStateSize(ctx, len(state))
	return nil
}

// publish is best effort: failures are logged and counted only
func (p *Processor) publish(ctx context.Context, logger zerolog.Logger, account string, order core.Order) {
	if p.sender == nil {
		return
	}

	ctx, span := pkgotel.StartSpan(ctx, pkgotel.SpanPublishEvent)
	defer span.End()

	record := core.EncodeOrder(order)
	msg := &messaging.OrderPlacedMessage{
		Account: account,
		Trader:  order.Trader.String(),
		Amount:  order.Amount,
		Price:   order.Price,
		Type:    order.Type.String(),
		Record:  record[:],
	}
	if err := p.sender.SendOrderPlaced(ctx, msg); err != nil {
		span.RecordError(err)
		p.metrics.RecordPublishFailure(ctx)
		logger.Error().Err(err).Msg("Failed to publish order placed event")
	}
}

func logOrder(e *zerolog.Event, o core.Order) *zerolog.Event {
	return e.Str("trader", o.Trader.String()).
		Str("type", o.Type.String()).
		Uint64("price", o.Price).
		Uint64("amount", o.Amount)
}
