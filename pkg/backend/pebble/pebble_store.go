package pebble

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/erain9/bookprogram/pkg/core"
)

// PebbleStore implements core.StateStore on a local Pebble database
type PebbleStore struct {
	// serialises read-check-write sequences; Pebble batches carry no reads
	mu sync.Mutex
	db *pebble.DB
}

var _ core.StateStore = (*PebbleStore)(nil)

// NewPebbleStore opens (or creates) the database at path
func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &PebbleStore{db: db}, nil
}

// Close closes the database
func (s *PebbleStore) Close() error { return s.db.Close() }

// keys: a:<account>:data, a:<account>:cap (8-byte big-endian capacity)
func kData(account string) []byte { return []byte("a:" + account + ":data") }
func kCap(account string) []byte  { return []byte("a:" + account + ":cap") }

// Create allocates an empty account
func (s *PebbleStore) Create(_ context.Context, account string, capacity int) error {
	if capacity < 0 {
		return fmt.Errorf("negative capacity %d", capacity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.capacity(account); err == nil {
		return fmt.Errorf("%w: %s", core.ErrAccountExists, account)
	} else if !errors.Is(err, core.ErrAccountNotFound) {
		return err
	}

	var capBuf [8]byte
	binary.BigEndian.PutUint64(capBuf[:], uint64(capacity))

	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(kCap(account), capBuf[:], nil); err != nil {
		return err
	}
	if err := batch.Set(kData(account), nil, nil); err != nil {
		return err
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

// Load returns a copy of the account's buffer
func (s *PebbleStore) Load(_ context.Context, account string) ([]byte, error) {
	if _, err := s.capacity(account); err != nil {
		return nil, err
	}

	val, closer, err := s.db.Get(kData(account))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", core.ErrAccountNotFound, account)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account data: %w", err)
	}
	defer closer.Close()

	return append([]byte(nil), val...), nil
}

// Store replaces the account's buffer
func (s *PebbleStore) Store(_ context.Context, account string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	capacity, err := s.capacity(account)
	if err != nil {
		return err
	}
	if err := core.CheckCapacity(len(data), capacity); err != nil {
		return err
	}

	if err := s.db.Set(kData(account), data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to save account data: %w", err)
	}
	return nil
}

// Delete removes the account
func (s *PebbleStore) Delete(_ context.Context, account string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.capacity(account); err != nil {
		return err
	}

	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Delete(kCap(account), nil); err != nil {
		return err
	}
	if err := batch.Delete(kData(account), nil); err != nil {
		return err
	}
	return batch.Commit(pebble.Sync)
}

func (s *PebbleStore) capacity(account string) (int, error) {
	val, closer, err := s.db.Get(kCap(account))
	if errors.Is(err, pebble.ErrNotFound) {
		return 0, fmt.Errorf("%w: %s", core.ErrAccountNotFound, account)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get account capacity: %w", err)
	}
	defer closer.Close()

	if len(val) != 8 {
		return 0, fmt.Errorf("account %s has a %d byte capacity record", account, len(val))
	}
	return int(binary.BigEndian.Uint64(val)), nil
}
