package main

import (
	"context"
	"fmt"

	"github.com/erain9/bookprogram/config"
	"github.com/erain9/bookprogram/pkg/backend/memory"
	"github.com/erain9/bookprogram/pkg/backend/pebble"
	"github.com/erain9/bookprogram/pkg/backend/redis"
	"github.com/erain9/bookprogram/pkg/core"
	"github.com/erain9/bookprogram/pkg/db/queue"
	"github.com/erain9/bookprogram/pkg/messaging"
	"github.com/erain9/bookprogram/pkg/messaging/kafka"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/zap"
)

// openStore opens the configured state store
func openStore(cfg *config.Config) (core.StateStore, error) {
	switch cfg.Storage.Backend {
	case config.BackendMemory:
		return memory.NewMemoryBackend(), nil

	case config.BackendRedis:
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Redis.Addr, err)
		}
		zl, err := newZapLogger(cfg.Server.LogFormat)
		if err != nil {
			return nil, err
		}
		return redis.NewRedisBackend(client, cfg.Redis.Prefix, zl), nil

	case config.BackendPebble:
		store, err := pebble.NewPebbleStore(cfg.Storage.PebblePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open pebble store at %s: %w", cfg.Storage.PebblePath, err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func newZapLogger(format string) (*zap.Logger, error) {
	if format == "pretty" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// newMessageSender returns the configured event sender, or nil when
// publishing is disabled
func newMessageSender(cfg *config.Config) (messaging.MessageSender, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}

	switch cfg.Kafka.Driver {
	case config.DriverKafkaGo:
		sender, err := kafka.NewKafkaMessageSender(cfg.Kafka.BrokerAddr, cfg.Kafka.Topic)
		if err != nil {
			return nil, err
		}
		return sender, nil
	case config.DriverSarama:
		opts := queue.Options{Brokers: []string{cfg.Kafka.BrokerAddr}, Topic: cfg.Kafka.Topic}
		pool, err := queue.NewSenderPool(cfg.Kafka.PoolSize, func() (messaging.MessageSender, error) {
			sender, err := queue.NewQueueMessageSender(opts)
			if err != nil {
				return nil, err
			}
			return sender, nil
		})
		if err != nil {
			return nil, err
		}
		return pool, nil
	default:
		return nil, fmt.Errorf("unknown kafka driver %q", cfg.Kafka.Driver)
	}
}

// startEventLog tails the event topic into the log and returns its stop
// func, or nil when publishing is disabled
func startEventLog(ctx context.Context, cfg *config.Config, logger zerolog.Logger) func() {
	if !cfg.Kafka.Enabled {
		return nil
	}

	switch cfg.Kafka.Driver {
	case config.DriverSarama:
		consumer, err := queue.NewQueueMessageConsumer(queue.Options{
			Brokers: []string{cfg.Kafka.BrokerAddr},
			Topic:   cfg.Kafka.Topic,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("Event log disabled")
			return nil
		}
		go func() {
			err := consumer.ConsumeOrderPlaced(func(msg *messaging.OrderPlacedMessage) error {
				logger.Info().
					Str("account", msg.Account).
					Str("trader", msg.Trader).
					Uint64("amount", msg.Amount).
					Uint64("price", msg.Price).
					Str("type", msg.Type).
					Msg("Received order placed record")
				return nil
			})
			if err != nil {
				logger.Error().Err(err).Msg("Event log consumer stopped")
			}
		}()
		return func() { _ = consumer.Close() }

	default:
		consumerCtx, cancel := context.WithCancel(ctx)
		consumer := kafka.SetupConsumer(consumerCtx, logger, cfg.Kafka.BrokerAddr, cfg.Kafka.Topic)
		return func() {
			cancel()
			_ = consumer.Close()
		}
	}
}
