package core

import (
	"context"
	"fmt"
)

// StateStore owns the state buffers ("accounts") that order books are
// decoded from. Implementations must make Store atomic: on error the
// previously stored buffer is left untouched.
type StateStore interface {
	// Create allocates an empty account. Capacity is in bytes; 0 is unbounded.
	Create(ctx context.Context, account string, capacity int) error
	// Load returns a copy of the account's buffer
	Load(ctx context.Context, account string) ([]byte, error)
	// Store replaces the account's buffer, failing with
	// ErrInsufficientStorage when data exceeds the capacity
	Store(ctx context.Context, account string, data []byte) error
	// Delete removes the account
	Delete(ctx context.Context, account string) error
	// Close releases resources held by the store
	Close() error
}

// CheckCapacity reports ErrInsufficientStorage when size exceeds a non-zero capacity
func CheckCapacity(size, capacity int) error {
	if capacity > 0 && size > capacity {
		return fmt.Errorf("%w: %d bytes exceed capacity %d", ErrInsufficientStorage, size, capacity)
	}
	return nil
}
