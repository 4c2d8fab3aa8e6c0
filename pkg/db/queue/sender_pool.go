package queue

import (
	"context"
	"errors"
	"fmt"

	"github.com/erain9/bookprogram/pkg/messaging"
	"github.com/rs/zerolog/log"
)

// SenderPool hands out a bounded set of senders so concurrent invocations
// do not share one producer connection. A slot holding nil is re-created by
// factory the next time it is taken.
type SenderPool struct {
	slots   chan messaging.MessageSender
	factory func() (messaging.MessageSender, error)
}

// NewSenderPool pre-populates a pool of size senders built by factory
func NewSenderPool(size int, factory func() (messaging.MessageSender, error)) (*SenderPool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("pool size must be positive, got %d", size)
	}

	p := &SenderPool{
		slots:   make(chan messaging.MessageSender, size),
		factory: factory,
	}
	for i := 0; i < size; i++ {
		sender, err := factory()
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("failed to create sender %d: %w", i, err)
		}
		p.slots <- sender
	}
	return p, nil
}

// get waits for a free slot. The slot is always returned through put, with
// nil when no live sender could be produced.
func (p *SenderPool) get(ctx context.Context) (messaging.MessageSender, error) {
	var sender messaging.MessageSender
	select {
	case sender = <-p.slots:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if sender != nil {
		return sender, nil
	}

	sender, err := p.factory()
	if err != nil {
		p.put(nil)
		return nil, fmt.Errorf("failed to recreate sender: %w", err)
	}
	return sender, nil
}

func (p *SenderPool) put(sender messaging.MessageSender) {
	p.slots <- sender
}

// SendOrderPlaced sends the message with a pooled sender. A sender that
// fails is closed and its slot is refilled lazily.
func (p *SenderPool) SendOrderPlaced(ctx context.Context, msg *messaging.OrderPlacedMessage) error {
	sender, err := p.get(ctx)
	if err != nil {
		return err
	}

	if err := sender.SendOrderPlaced(ctx, msg); err != nil {
		log.Warn().Err(err).Msg("Closing failed sender")
		_ = sender.Close()
		p.put(nil)
		return err
	}

	p.put(sender)
	return nil
}

// Close closes every idle sender in the pool
func (p *SenderPool) Close() error {
	var errs []error
	for {
		select {
		case sender := <-p.slots:
			if sender == nil {
				continue
			}
			if err := sender.Close(); err != nil {
				errs = append(errs, err)
			}
		default:
			return errors.Join(errs...)
		}
	}
}

var _ messaging.MessageSender = (*SenderPool)(nil)
