package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/erain9/bookprogram/pkg/core"
)

type account struct {
	data     []byte
	capacity int
}

// MemoryBackend keeps account state buffers in process memory.
// Buffers are copied on the way in and out.
type MemoryBackend struct {
	sync.RWMutex
	accounts map[string]*account
}

// NewMemoryBackend creates a new in-memory state store
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		accounts: make(map[string]*account),
	}
}

var _ core.StateStore = (*MemoryBackend)(nil)

// Create allocates an empty account with the given capacity in bytes
func (b *MemoryBackend) Create(_ context.Context, name string, capacity int) error {
	if capacity < 0 {
		return fmt.Errorf("negative capacity %d", capacity)
	}

	b.Lock()
	defer b.Unlock()

	if _, exists := b.accounts[name]; exists {
		return fmt.Errorf("%w: %s", core.ErrAccountExists, name)
	}
	b.accounts[name] = &account{capacity: capacity}
	return nil
}

// Load returns a copy of the account's buffer
func (b *MemoryBackend) Load(_ context.Context, name string) ([]byte, error) {
	b.RLock()
	defer b.RUnlock()

	acct, exists := b.accounts[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", core.ErrAccountNotFound, name)
	}
	return append([]byte(nil), acct.data...), nil
}

// Store replaces the account's buffer
func (b *MemoryBackend) Store(_ context.Context, name string, data []byte) error {
	b.Lock()
	defer b.Unlock()

	acct, exists := b.accounts[name]
	if !exists {
		return fmt.Errorf("%w: %s", core.ErrAccountNotFound, name)
	}
	if err := core.CheckCapacity(len(data), acct.capacity); err != nil {
		return err
	}
	acct.data = append([]byte(nil), data...)
	return nil
}

// Delete removes the account
func (b *MemoryBackend) Delete(_ context.Context, name string) error {
	b.Lock()
	defer b.Unlock()

	if _, exists := b.accounts[name]; !exists {
		return fmt.Errorf("%w: %s", core.ErrAccountNotFound, name)
	}
	delete(b.accounts, name)
	return nil
}

// Accounts returns the account names in sorted order
func (b *MemoryBackend) Accounts() []string {
	b.RLock()
	defer b.RUnlock()

	names := make([]string, 0, len(b.accounts))
	for name := range b.accounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close is a no-op
func (b *MemoryBackend) Close() error {
	return nil
}
