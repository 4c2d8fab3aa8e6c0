package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/erain9/bookprogram/pkg/core"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	fieldData     = "data"
	fieldCapacity = "capacity"
)

// ErrConflict is returned when an account changed between read and write.
// The write is not retried.
var ErrConflict = errors.New("concurrent account modification")

// RedisOptions represents configuration options for Redis connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

var defaultOptions = &RedisOptions{
	Addr:     "localhost:6379",
	Password: "",
	DB:       0,
}

// SetDefaultRedisOptions sets the default options for Redis connections
func SetDefaultRedisOptions(options *RedisOptions) {
	defaultOptions = options
}

// GetRedisClient creates a new Redis client using the default options
func GetRedisClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     defaultOptions.Addr,
		Password: defaultOptions.Password,
		DB:       defaultOptions.DB,
	})
}

// RedisBackend implements core.StateStore with one Redis hash per account
// holding the state buffer and its capacity
type RedisBackend struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

var _ core.StateStore = (*RedisBackend)(nil)

// NewRedisBackend creates a new instance of RedisBackend
func NewRedisBackend(client *redis.Client, prefix string, logger *zap.Logger) *RedisBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBackend{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

// Create allocates an empty account
func (b *RedisBackend) Create(ctx context.Context, account string, capacity int) error {
	if capacity < 0 {
		return fmt.Errorf("negative capacity %d", capacity)
	}
	key := b.accountKey(account)

	err := b.client.Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if exists > 0 {
			return fmt.Errorf("%w: %s", core.ErrAccountExists, account)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fieldData, []byte{}, fieldCapacity, capacity)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return b.wrap("create", account, err)
	}

	b.logger.Debug("created account", zap.String("account", account), zap.Int("capacity", capacity))
	return nil
}

// Load returns the account's buffer
func (b *RedisBackend) Load(ctx context.Context, account string) ([]byte, error) {
	vals, err := b.client.HMGet(ctx, b.accountKey(account), fieldData, fieldCapacity).Result()
	if err != nil {
		b.logger.Error("failed to load account", zap.String("account", account), zap.Error(err))
		return nil, err
	}
	if vals[1] == nil {
		return nil, fmt.Errorf("%w: %s", core.ErrAccountNotFound, account)
	}

	data, _ := vals[0].(string)
	return []byte(data), nil
}

// Store replaces the account's buffer inside a WATCH transaction
func (b *RedisBackend) Store(ctx context.Context, account string, data []byte) error {
	key := b.accountKey(account)

	err := b.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, key, fieldCapacity).Result()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: %s", core.ErrAccountNotFound, account)
		}
		if err != nil {
			return err
		}
		capacity, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("account %s has malformed capacity %q: %w", account, raw, err)
		}
		if err := core.CheckCapacity(len(data), capacity); err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, fieldData, data)
			return nil
		})
		return err
	}, key)
	if err != nil {
		return b.wrap("store", account, err)
	}
	return nil
}

// Delete removes the account
func (b *RedisBackend) Delete(ctx context.Context, account string) error {
	n, err := b.client.Del(ctx, b.accountKey(account)).Result()
	if err != nil {
		b.logger.Error("failed to delete account", zap.String("account", account), zap.Error(err))
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", core.ErrAccountNotFound, account)
	}
	return nil
}

// Close closes the Redis client
func (b *RedisBackend) Close() error {
	return b.client.Close()
}

func (b *RedisBackend) accountKey(account string) string {
	return fmt.Sprintf("%s:account:%s", b.prefix, account)
}

func (b *RedisBackend) wrap(op, account string, err error) error {
	switch {
	case errors.Is(err, redis.TxFailedErr):
		b.logger.Warn("transaction aborted", zap.String("op", op), zap.String("account", account))
		return fmt.Errorf("%w: %s", ErrConflict, account)
	case errors.Is(err, core.ErrAccountExists),
		errors.Is(err, core.ErrAccountNotFound),
		errors.Is(err, core.ErrInsufficientStorage):
		return err
	default:
		b.logger.Error("redis operation failed", zap.String("op", op), zap.String("account", account), zap.Error(err))
		return err
	}
}
