package testutil

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"strings"
	"time"
)

// DockerContainer is a throwaway service container started for tests
type DockerContainer struct {
	ID        string
	Name      string
	Image     string
	HostPort  string
	StartedAt time.Time
}

// Addr returns the host address the container's service listens on
func (c *DockerContainer) Addr() string {
	return net.JoinHostPort("localhost", c.HostPort)
}

// StartRedisContainer starts Redis on a free host port and waits until it
// answers PING
func StartRedisContainer(ctx context.Context) (*DockerContainer, error) {
	c, err := runContainer(ctx, "redis", "redis:7-alpine", "-p", "127.0.0.1::6379")
	if err != nil {
		return nil, err
	}

	if c.HostPort, err = c.publishedPort(ctx, "6379/tcp"); err != nil {
		_ = c.Stop(context.Background())
		return nil, err
	}

	if err := waitReady(ctx, func(ctx context.Context) error { return pingRedis(ctx, c.Addr()) }); err != nil {
		_ = c.Stop(context.Background())
		return nil, fmt.Errorf("redis container %s not ready: %w", c.Name, err)
	}
	return c, nil
}

// StartKafkaContainer starts a single node KRaft broker and waits until
// KafkaTestTopic can be created. The broker advertises localhost:9092, so
// the host port is fixed.
func StartKafkaContainer(ctx context.Context) (*DockerContainer, error) {
	c, err := runContainer(ctx, "kafka", "apache/kafka:3.7.0", "-p", "9092:9092")
	if err != nil {
		return nil, err
	}
	c.HostPort = "9092"

	if err := waitReady(ctx, func(ctx context.Context) error { return ensureTopic(ctx, c.Addr(), KafkaTestTopic) }); err != nil {
		_ = c.Stop(context.Background())
		return nil, fmt.Errorf("kafka container %s not ready: %w", c.Name, err)
	}
	return c, nil
}

// Stop removes the container
func (c *DockerContainer) Stop(ctx context.Context) error {
	out, err := exec.CommandContext(ctx, "docker", "rm", "-f", c.ID).CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to stop container %s: %w, output: %s", c.ID, err, out)
	}
	return nil
}

func runContainer(ctx context.Context, service, image string, args ...string) (*DockerContainer, error) {
	name := fmt.Sprintf("bookprogram-%s-test-%d", service, time.Now().UnixNano())

	cmdArgs := append([]string{"run", "--rm", "-d", "--name", name}, args...)
	cmdArgs = append(cmdArgs, image)
	out, err := exec.CommandContext(ctx, "docker", cmdArgs...).CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("failed to start %s container: %w, output: %s", service, err, out)
	}

	return &DockerContainer{
		ID:        strings.TrimSpace(string(out)),
		Name:      name,
		Image:     image,
		StartedAt: time.Now(),
	}, nil
}

func (c *DockerContainer) publishedPort(ctx context.Context, containerPort string) (string, error) {
	out, err := exec.CommandContext(ctx, "docker", "port", c.ID, containerPort).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("docker port %s: %w, output: %s", c.Name, err, out)
	}
	return parsePublishedPort(string(out))
}

// parsePublishedPort extracts the host port from `docker port` output such
// as "127.0.0.1:49153"
func parsePublishedPort(out string) (string, error) {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		_, port, err := net.SplitHostPort(line)
		if err != nil {
			return "", fmt.Errorf("unexpected docker port output %q: %w", line, err)
		}
		return port, nil
	}
	return "", fmt.Errorf("no published port in %q", out)
}

func waitReady(ctx context.Context, check func(context.Context) error) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := check(probeCtx)
		cancel()
		if err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), err)
		case <-ticker.C:
		}
	}
}
