package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/erain9/bookprogram/pkg/messaging"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// messageReader is the subset of *kafka.Reader used by the consumer
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer tails order placed events. It is a developer aid that pretty
// prints what the program publishes.
type Consumer struct {
	reader messageReader
	logger zerolog.Logger
}

// NewConsumer creates a consumer reading the topic from the latest offset
func NewConsumer(brokerAddr, topic string, logger zerolog.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     []string{brokerAddr},
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
		StartOffset: kafka.LastOffset,
	})
	return &Consumer{reader: reader, logger: logger}
}

// Consume reads messages until ctx is done, invoking handle for each
func (c *Consumer) Consume(ctx context.Context, handle func(*messaging.OrderPlacedMessage) error) error {
	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}

		var msg messaging.OrderPlacedMessage
		if err := json.Unmarshal(m.Value, &msg); err != nil {
			c.logger.Warn().Err(err).Int64("offset", m.Offset).Msg("Skipping malformed order placed message")
			continue
		}
		if err := handle(&msg); err != nil {
			return err
		}
	}
}

// Close closes the underlying reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}

// SetupConsumer initializes and starts the Kafka consumer for logging
// order placed events
func SetupConsumer(ctx context.Context, logger zerolog.Logger, brokerAddr, topic string) *Consumer {
	consumer := NewConsumer(brokerAddr, topic, logger)

	go func() {
		logger.Info().Str("topic", topic).Msg("Starting Kafka consumer")
		err := consumer.Consume(ctx, func(msg *messaging.OrderPlacedMessage) error {
			logger.Info().
				Str("account", msg.Account).
				Str("trader", msg.Trader).
				Uint64("amount", msg.Amount).
				Uint64("price", msg.Price).
				Str("type", msg.Type).
				Msg("Received order placed message")
			return nil
		})
		if err != nil {
			logger.Error().Err(err).Msg("Kafka consumer error")
		}
	}()

	return consumer
}
