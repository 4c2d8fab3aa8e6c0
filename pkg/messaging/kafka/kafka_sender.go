package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/erain9/bookprogram/pkg/messaging"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafka.Writer used by the sender
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaMessageSender implements MessageSender using kafka-go
type KafkaMessageSender struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
}

// NewKafkaMessageSender creates a new Kafka message sender
func NewKafkaMessageSender(brokerAddr, topic string) (*KafkaMessageSender, error) {
	if brokerAddr == "" {
		return nil, fmt.Errorf("kafka broker address is required")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokerAddr),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
	}

	return newKafkaMessageSender(writer, topic), nil
}

func newKafkaMessageSender(writer messageWriter, topic string) *KafkaMessageSender {
	return &KafkaMessageSender{
		writer:  writer,
		topic:   topic,
		timeout: 5 * time.Second,
	}
}

// SendOrderPlaced sends an order placed event to Kafka, keyed by account so
// events of one book stay ordered within a partition
func (k *KafkaMessageSender) SendOrderPlaced(ctx context.Context, msg *messaging.OrderPlacedMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal order placed message: %w", err)
	}

	kmsg := kafka.Message{
		Key:   []byte(msg.Account),
		Value: data,
		Time:  time.Now(),
	}

	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()

	if err := k.writer.WriteMessages(ctx, kmsg); err != nil {
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	return nil
}

// Close closes the Kafka writer
func (k *KafkaMessageSender) Close() error {
	return k.writer.Close()
}

var _ messaging.MessageSender = (*KafkaMessageSender)(nil)
