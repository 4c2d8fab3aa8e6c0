package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, ":50051", cfg.Server.GRPCAddr)
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, "info", cfg.Server.LogLevel)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "orderbook-events", cfg.Kafka.Topic)
	assert.Equal(t, DriverKafkaGo, cfg.Kafka.Driver)
	assert.False(t, cfg.Kafka.Enabled)
}

func TestLoad_Flags(t *testing.T) {
	cfg, err := Load([]string{"-grpc_port", "9000", "-http_port", "9001", "-log_level", "debug", "-backend", "pebble"})
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.GRPCAddr)
	assert.Equal(t, ":9001", cfg.Server.HTTPAddr)
	assert.Equal(t, "debug", cfg.Server.LogLevel)
	assert.Equal(t, BackendPebble, cfg.Storage.Backend)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  grpc_addr: ":7000"
storage:
  backend: redis
  default_capacity: 4096
redis:
  addr: "redis:6379"
kafka:
  enabled: true
  driver: sarama
`), 0o600))

	cfg, err := Load([]string{"-config", path})
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.GRPCAddr)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, 4096, cfg.Storage.DefaultCapacity)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, DriverSarama, cfg.Kafka.Driver)
	assert.Equal(t, "localhost:9092", cfg.Kafka.BrokerAddr, "unset keys keep defaults")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BOOKPROG_REDIS_ADDR", "env-redis:6379")
	t.Setenv("BOOKPROG_STORAGE_BACKEND", "redis")
	t.Setenv("BOOKPROG_STORAGE_DEFAULT_CAPACITY", "128")
	t.Setenv("BOOKPROG_KAFKA_ENABLED", "true")

	cfg, err := Load([]string{"-backend", "memory"})
	require.NoError(t, err)

	assert.Equal(t, "env-redis:6379", cfg.Redis.Addr)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, 128, cfg.Storage.DefaultCapacity)
	assert.True(t, cfg.Kafka.Enabled)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load([]string{"-config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)

	_, err = Load([]string{"-backend", "etcd"})
	assert.ErrorContains(t, err, "unknown storage backend")

	_, err = Load([]string{"-no_such_flag"})
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("server: [unclosed"), 0o600))
	_, err = Load([]string{"-config", bad})
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Kafka.Enabled = true
	cfg.Kafka.Driver = "confluent"
	assert.ErrorContains(t, cfg.Validate(), "unknown kafka driver")

	cfg = Default()
	cfg.Storage.DefaultCapacity = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Storage.Backend = BackendPebble
	cfg.Storage.PebblePath = ""
	assert.Error(t, cfg.Validate())
}
