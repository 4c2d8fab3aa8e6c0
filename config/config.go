package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Storage backends
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendPebble = "pebble"
)

// Kafka drivers
const (
	DriverKafkaGo = "kafka-go"
	DriverSarama  = "sarama"
)

// EnvPrefix prefixes environment overrides, e.g. BOOKPROG_REDIS_ADDR
const EnvPrefix = "BOOKPROG"

// Config represents the application configuration
type Config struct {
	Server struct {
		GRPCAddr  string `yaml:"grpc_addr"`
		HTTPAddr  string `yaml:"http_addr"`
		LogLevel  string `yaml:"log_level"`
		LogFormat string `yaml:"log_format"`
	} `yaml:"server"`

	Storage struct {
		Backend string `yaml:"backend"`
		// DefaultCapacity is the byte capacity of new accounts; 0 is unbounded
		DefaultCapacity int    `yaml:"default_capacity"`
		PebblePath      string `yaml:"pebble_path"`
	} `yaml:"storage"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`

	Kafka struct {
		Enabled    bool   `yaml:"enabled"`
		BrokerAddr string `yaml:"broker_addr"`
		Topic      string `yaml:"topic"`
		Driver     string `yaml:"driver"`
		PoolSize   int    `yaml:"pool_size"`
	} `yaml:"kafka"`

	Telemetry struct {
		Enabled  bool   `yaml:"enabled"`
		Endpoint string `yaml:"endpoint"`
	} `yaml:"telemetry"`
}

// Default returns the built-in configuration
func Default() *Config {
	cfg := &Config{}
	cfg.Server.GRPCAddr = ":50051"
	cfg.Server.HTTPAddr = ":8080"
	cfg.Server.LogLevel = "info"
	cfg.Server.LogFormat = "pretty"
	cfg.Storage.Backend = BackendMemory
	cfg.Storage.DefaultCapacity = 10 * 1024 * 1024
	cfg.Storage.PebblePath = "data/accounts"
	cfg.Redis.Addr = "localhost:6379"
	cfg.Redis.Prefix = "bookprog"
	cfg.Kafka.BrokerAddr = "localhost:9092"
	cfg.Kafka.Topic = "orderbook-events"
	cfg.Kafka.Driver = DriverKafkaGo
	cfg.Kafka.PoolSize = 4
	cfg.Telemetry.Endpoint = "localhost:4317"
	return cfg
}

// Load builds the configuration from defaults, command line flags, an
// optional YAML file and BOOKPROG_* environment variables, in that order
func Load(args []string) (*Config, error) {
	fs := flag.NewFlagSet("bookprogram", flag.ContinueOnError)
	configFile := fs.String("config", "", "Path to config file (YAML)")
	grpcPort := fs.Int("grpc_port", 50051, "The gRPC server port")
	httpPort := fs.Int("http_port", 8080, "The HTTP server port")
	logLevel := fs.String("log_level", "info", "Log level: debug, info, warn, error")
	logFormat := fs.String("log_format", "pretty", "Log format: json, pretty")
	backend := fs.String("backend", BackendMemory, "State store: memory, redis, pebble")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := Default()
	cfg.Server.GRPCAddr = fmt.Sprintf(":%d", *grpcPort)
	cfg.Server.HTTPAddr = fmt.Sprintf(":%d", *httpPort)
	cfg.Server.LogLevel = *logLevel
	cfg.Server.LogFormat = *logFormat
	cfg.Storage.Backend = *backend

	// Load configuration from file if specified
	if *configFile != "" {
		yamlFile, err := os.ReadFile(*configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(yamlFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		log.Info().Str("path", *configFile).Msg("Loaded configuration file")
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnv overrides cfg with any BOOKPROG_* variables that are set
func applyEnv(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	str := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	num := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
	boolean := func(key string, dst *bool) {
		if v.IsSet(key) {
			*dst = v.GetBool(key)
		}
	}

	str("server.grpc_addr", &cfg.Server.GRPCAddr)
	str("server.http_addr", &cfg.Server.HTTPAddr)
	str("server.log_level", &cfg.Server.LogLevel)
	str("server.log_format", &cfg.Server.LogFormat)
	str("storage.backend", &cfg.Storage.Backend)
	num("storage.default_capacity", &cfg.Storage.DefaultCapacity)
	str("storage.pebble_path", &cfg.Storage.PebblePath)
	str("redis.addr", &cfg.Redis.Addr)
	str("redis.password", &cfg.Redis.Password)
	num("redis.db", &cfg.Redis.DB)
	str("redis.prefix", &cfg.Redis.Prefix)
	boolean("kafka.enabled", &cfg.Kafka.Enabled)
	str("kafka.broker_addr", &cfg.Kafka.BrokerAddr)
	str("kafka.topic", &cfg.Kafka.Topic)
	str("kafka.driver", &cfg.Kafka.Driver)
	num("kafka.pool_size", &cfg.Kafka.PoolSize)
	boolean("telemetry.enabled", &cfg.Telemetry.Enabled)
	str("telemetry.endpoint", &cfg.Telemetry.Endpoint)
}

// Validate checks the configuration for unusable values
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory, BackendRedis, BackendPebble:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.DefaultCapacity < 0 {
		return errors.New("storage.default_capacity must not be negative")
	}
	if c.Storage.Backend == BackendPebble && c.Storage.PebblePath == "" {
		return errors.New("storage.pebble_path must not be empty")
	}
	if c.Kafka.Enabled {
		switch c.Kafka.Driver {
		case DriverKafkaGo, DriverSarama:
		default:
			return fmt.Errorf("unknown kafka driver %q", c.Kafka.Driver)
		}
		if c.Kafka.BrokerAddr == "" {
			return errors.New("kafka.broker_addr must not be empty")
		}
		if c.Kafka.PoolSize <= 0 {
			return errors.New("kafka.pool_size must be positive")
		}
	}
	return nil
}
