package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/IBM/sarama"
	"github.com/erain9/bookprogram/pkg/core"
	"github.com/erain9/bookprogram/pkg/messaging"
)

const (
	defaultBroker = "localhost:9092"
	defaultTopic  = "orderbook-events"
	maxRetry      = 5

	headerOrderType = "order-type"
)

// Options configures the sarama based sender and consumer
type Options struct {
	Brokers []string
	Topic   string
}

func (o Options) withDefaults() Options {
	if len(o.Brokers) == 0 {
		o.Brokers = []string{defaultBroker}
	}
	if o.Topic == "" {
		o.Topic = defaultTopic
	}
	return o
}

// overridable in tests
var (
	newSyncProducer = sarama.NewSyncProducer
	newConsumer     = sarama.NewConsumer
)

// QueueMessageSender implements the MessageSender interface with a sarama
// sync producer. The event value is the raw 49-byte order record.
type QueueMessageSender struct {
	producer sarama.SyncProducer
	topic    string
}

// NewQueueMessageSender creates a sender connected to the configured brokers
func NewQueueMessageSender(opts Options) (*QueueMessageSender, error) {
	opts = opts.withDefaults()

	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = maxRetry
	config.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := newSyncProducer(opts.Brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	return &QueueMessageSender{
		producer: producer,
		topic:    opts.Topic,
	}, nil
}

// SendOrderPlaced publishes the order record keyed by account
func (q *QueueMessageSender) SendOrderPlaced(_ context.Context, msg *messaging.OrderPlacedMessage) error {
	if len(msg.Record) != core.OrderSize {
		return fmt.Errorf("order record must be %d bytes, got %d", core.OrderSize, len(msg.Record))
	}

	pmsg := &sarama.ProducerMessage{
		Topic: q.topic,
		Key:   sarama.StringEncoder(msg.Account),
		Value: sarama.ByteEncoder(msg.Record),
		Headers: []sarama.RecordHeader{
			{Key: []byte(headerOrderType), Value: []byte(msg.Type)},
		},
	}

	if _, _, err := q.producer.SendMessage(pmsg); err != nil {
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	return nil
}

// Close closes the producer
func (q *QueueMessageSender) Close() error {
	return q.producer.Close()
}

// QueueMessageConsumer reads order records back from the topic
type QueueMessageConsumer struct {
	consumer  sarama.Consumer
	topic     string
	done      chan struct{}
	closeOnce sync.Once
}

// NewQueueMessageConsumer creates a consumer connected to the configured brokers
func NewQueueMessageConsumer(opts Options) (*QueueMessageConsumer, error) {
	opts = opts.withDefaults()

	consumer, err := newConsumer(opts.Brokers, sarama.NewConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}

	return &QueueMessageConsumer{
		consumer: consumer,
		topic:    opts.Topic,
		done:     make(chan struct{}),
	}, nil
}

// ConsumeOrderPlaced decodes each record from partition 0 and passes it to
// handler until Close is called or the partition is exhausted
func (c *QueueMessageConsumer) ConsumeOrderPlaced(handler func(*messaging.OrderPlacedMessage) error) error {
	pc, err := c.consumer.ConsumePartition(c.topic, 0, sarama.OffsetNewest)
	if err != nil {
		return fmt.Errorf("failed to consume partition: %w", err)
	}
	defer pc.Close()

	for {
		select {
		case msg, ok := <-pc.Messages():
			if !ok {
				return nil
			}
			placed, err := decodeRecord(msg)
			if err != nil {
				return err
			}
			if err := handler(placed); err != nil {
				return err
			}
		case cerr, ok := <-pc.Errors():
			if !ok {
				return nil
			}
			return cerr
		case <-c.done:
			return nil
		}
	}
}

func decodeRecord(msg *sarama.ConsumerMessage) (*messaging.OrderPlacedMessage, error) {
	order, err := core.DecodeOrder(msg.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to decode order record at offset %d: %w", msg.Offset, err)
	}
	return &messaging.OrderPlacedMessage{
		Account: string(msg.Key),
		Trader:  order.Trader.String(),
		Amount:  order.Amount,
		Price:   order.Price,
		Type:    order.Type.String(),
		Record:  append([]byte(nil), msg.Value[:core.OrderSize]...),
	}, nil
}

// Close stops consumption and closes the consumer
func (c *QueueMessageConsumer) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.consumer.Close()
	})
	return err
}

var _ messaging.MessageSender = (*QueueMessageSender)(nil)
