package pebble

import (
	"context"
	"testing"

	"github.com/erain9/bookprogram/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *PebbleStore {
	t.Helper()
	s, err := NewPebbleStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPebbleStore_AccountLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.Create(ctx, "book", 0))
	assert.ErrorIs(t, s.Create(ctx, "book", 0), core.ErrAccountExists)

	data, err := s.Load(ctx, "book")
	require.NoError(t, err)
	assert.Empty(t, data)

	book := core.NewOrderBook()
	book.AddOrder(core.NewOrder(core.Trader{7}, core.Sell, 3, 9))
	state := core.EncodeOrderBook(book)
	require.NoError(t, s.Store(ctx, "book", state))

	data, err = s.Load(ctx, "book")
	require.NoError(t, err)
	assert.Equal(t, state, data)

	require.NoError(t, s.Delete(ctx, "book"))
	_, err = s.Load(ctx, "book")
	assert.ErrorIs(t, err, core.ErrAccountNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "book"), core.ErrAccountNotFound)
	assert.ErrorIs(t, s.Store(ctx, "book", state), core.ErrAccountNotFound)
}

func TestPebbleStore_Capacity(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.Create(ctx, "book", 10))
	assert.Error(t, s.Create(ctx, "bad", -1))

	require.NoError(t, s.Store(ctx, "book", []byte("0123456789")))
	assert.ErrorIs(t, s.Store(ctx, "book", []byte("0123456789a")), core.ErrInsufficientStorage)

	data, err := s.Load(ctx, "book")
	require.NoError(t, err)
	assert.Equal(t, []byte("0123456789"), data)
}

func TestPebbleStore_Reopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewPebbleStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Create(ctx, "book", 64))
	require.NoError(t, s.Store(ctx, "book", []byte{1, 2, 3}))
	require.NoError(t, s.Close())

	s, err = NewPebbleStore(dir)
	require.NoError(t, err)
	defer s.Close()

	data, err := s.Load(ctx, "book")
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)
	assert.ErrorIs(t, s.Store(ctx, "book", make([]byte, 65)), core.ErrInsufficientStorage)
}

func TestPebbleStore_Keys(t *testing.T) {
	assert.Equal(t, []byte("a:book:data"), kData("book"))
	assert.Equal(t, []byte("a:book:cap"), kCap("book"))
}
