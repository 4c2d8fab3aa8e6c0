package testutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

// KafkaTestTopic is the event topic used by Kafka tests
const KafkaTestTopic = "orderbook-events"

// Environment overrides for locally running services
const (
	EnvRedisAddr = "BOOKPROG_TEST_REDIS_ADDR"
	EnvKafkaAddr = "BOOKPROG_TEST_KAFKA_ADDR"
	// EnvNoDocker disables the container fallback
	EnvNoDocker = "BOOKPROG_TEST_NO_DOCKER"
)

const probeTimeout = 2 * time.Second

// RedisAddr returns the address of a Redis server for t. A server at
// BOOKPROG_TEST_REDIS_ADDR (default localhost:6379) is used when it answers;
// otherwise a container is started and removed when t finishes. t is skipped
// when neither works.
func RedisAddr(t testing.TB) string {
	t.Helper()

	addr := envOr(EnvRedisAddr, "localhost:6379")
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	err := pingRedis(ctx, addr)
	cancel()
	if err == nil {
		return addr
	}

	container := startOrSkip(t, "Redis", addr, err, StartRedisContainer)
	return container.Addr()
}

// RedisClient connects to RedisAddr and flushes its database
func RedisClient(t testing.TB) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: RedisAddr(t)})
	t.Cleanup(func() { _ = client.Close() })

	if err := client.FlushDB(context.Background()).Err(); err != nil {
		t.Fatalf("Failed to flush Redis DB: %v", err)
	}
	return client
}

// KafkaAddr returns the address of a Kafka broker for t on which
// KafkaTestTopic exists. Resolution follows RedisAddr, using
// BOOKPROG_TEST_KAFKA_ADDR (default localhost:9092).
func KafkaAddr(t testing.TB) string {
	t.Helper()

	addr := envOr(EnvKafkaAddr, "localhost:9092")
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	err := ensureTopic(ctx, addr, KafkaTestTopic)
	cancel()
	if err == nil {
		return addr
	}

	container := startOrSkip(t, "Kafka", addr, err, StartKafkaContainer)
	return container.Addr()
}

func startOrSkip(t testing.TB, service, addr string, probeErr error, start func(context.Context) (*DockerContainer, error)) *DockerContainer {
	t.Helper()

	if os.Getenv(EnvNoDocker) != "" {
		t.Skipf("Skipping test: %s not available at %s - %v", service, addr, probeErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := start(ctx)
	if err != nil {
		t.Skipf("Skipping test: %s not available at %s (%v) and no container could be started: %v", service, addr, probeErr, err)
	}
	t.Cleanup(func() {
		if err := container.Stop(context.Background()); err != nil {
			t.Logf("Warning: %v", err)
		}
	})
	return container
}

func pingRedis(ctx context.Context, addr string) error {
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	return client.Ping(ctx).Err()
}

// ensureTopic creates topic through the cluster controller. An existing
// topic is not an error.
func ensureTopic(ctx context.Context, addr, topic string) error {
	conn, err := kafka.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("find controller: %w", err)
	}
	ctrl, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("dial controller: %w", err)
	}
	defer ctrl.Close()

	err = ctrl.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
