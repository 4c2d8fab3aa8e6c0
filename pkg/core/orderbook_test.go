package core

import (
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buyAt(trader byte, price uint64) Order {
	return NewOrder(testTrader(trader), Buy, 10, price)
}

func sellAt(trader byte, price uint64) Order {
	return NewOrder(testTrader(trader), Sell, 10, price)
}

func TestAddOrderRoutesBySide(t *testing.T) {
	book := NewOrderBook()
	book.AddOrder(buyAt(1, 100))
	book.AddOrder(sellAt(2, 200))
	book.AddOrder(buyAt(3, 300))

	wantBuys := []Order{buyAt(1, 100), buyAt(3, 300)}
	wantSells := []Order{sellAt(2, 200)}

	if diff := cmp.Diff(wantBuys, book.BuyOrders()); diff != "" {
		t.Errorf("buy side mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(wantSells, book.SellOrders()); diff != "" {
		t.Errorf("sell side mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, book.Len())
}

func TestAddOrderKeepsDuplicates(t *testing.T) {
	book := NewOrderBook()
	order := buyAt(1, 100)
	book.AddOrder(order)
	book.AddOrder(order)
	assert.Len(t, book.BuyOrders(), 2)
}

func TestBestBuyOrderTieBreak(t *testing.T) {
	book := NewOrderBook()
	prices := []uint64{500, 700, 700, 300}
	for i, p := range prices {
		book.AddOrder(buyAt(byte(i+1), p))
	}

	best, ok := book.BestBuyOrder()
	require.True(t, ok)
	assert.Equal(t, uint64(700), best.Price)
	assert.Equal(t, testTrader(2), best.Trader, "first 700 order must win")
}

func TestBestSellOrderTieBreak(t *testing.T) {
	book := NewOrderBook()
	prices := []uint64{500, 300, 300, 700}
	for i, p := range prices {
		book.AddOrder(sellAt(byte(i+1), p))
	}

	best, ok := book.BestSellOrder()
	require.True(t, ok)
	assert.Equal(t, uint64(300), best.Price)
	assert.Equal(t, testTrader(2), best.Trader, "first 300 order must win")
}

func TestBestOrderAllEqual(t *testing.T) {
	book := NewOrderBook()
	for i := 1; i <= 5; i++ {
		book.AddOrder(buyAt(byte(i), 42))
		book.AddOrder(sellAt(byte(i+10), 42))
	}

	best, ok := book.BestBuyOrder()
	require.True(t, ok)
	assert.Equal(t, testTrader(1), best.Trader)

	best, ok = book.BestSellOrder()
	require.True(t, ok)
	assert.Equal(t, testTrader(11), best.Trader)
}

func TestBestOrderExtremes(t *testing.T) {
	book := NewOrderBook()
	book.AddOrder(buyAt(1, 0))
	book.AddOrder(buyAt(2, ^uint64(0)))
	book.AddOrder(sellAt(3, ^uint64(0)))
	book.AddOrder(sellAt(4, 0))

	best, ok := book.BestBuyOrder()
	require.True(t, ok)
	assert.Equal(t, testTrader(2), best.Trader)

	best, ok = book.BestSellOrder()
	require.True(t, ok)
	assert.Equal(t, testTrader(4), best.Trader)
}

func TestBestOrderEmptyBook(t *testing.T) {
	book := NewOrderBook()

	_, ok := book.BestBuyOrder()
	assert.False(t, ok)
	_, ok = book.BestSellOrder()
	assert.False(t, ok)

	// one side populated, the other still empty
	book.AddOrder(buyAt(1, 100))
	_, ok = book.BestSellOrder()
	assert.False(t, ok)
}

func TestOrderBookMarshalLayout(t *testing.T) {
	book := NewOrderBook()
	book.AddOrder(sellAt(9, 600))
	book.AddOrder(buyAt(1, 500))
	book.AddOrder(buyAt(2, 400))

	data, err := book.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, data, StateSize(2, 1))

	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[0:4]))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(data[4:8]))

	first := EncodeOrder(buyAt(1, 500))
	second := EncodeOrder(buyAt(2, 400))
	third := EncodeOrder(sellAt(9, 600))
	assert.Equal(t, first[:], data[8:8+OrderSize])
	assert.Equal(t, second[:], data[8+OrderSize:8+2*OrderSize])
	assert.Equal(t, third[:], data[8+2*OrderSize:])
}

func TestOrderBookMarshalRejectsUnknownType(t *testing.T) {
	book := NewOrderBook()
	book.AddOrder(buyAt(1, 500))
	book.AddOrder(NewOrder(testTrader(2), OrderType(5), 10, 700))

	var (
		data []byte
		err  error
	)
	require.NotPanics(t, func() { data, err = book.MarshalBinary() })
	assert.ErrorIs(t, err, ErrInvalidOrderType)
	assert.Nil(t, data)
	assert.Panics(t, func() { EncodeOrderBook(book) })

	assert.NoError(t, buyAt(1, 500).Validate())
	assert.ErrorIs(t, NewOrder(testTrader(1), OrderType(-1), 1, 1).Validate(), ErrInvalidOrderType)
}

func TestOrderBookUnmarshal(t *testing.T) {
	book := NewOrderBook()
	book.AddOrder(buyAt(1, 500))
	book.AddOrder(sellAt(2, 600))
	valid := EncodeOrderBook(book)

	t.Run("Empty buffer", func(t *testing.T) {
		decoded, err := DecodeOrderBook(nil)
		require.NoError(t, err)
		assert.Equal(t, 0, decoded.Len())
	})

	t.Run("Zero filled account", func(t *testing.T) {
		decoded, err := DecodeOrderBook(make([]byte, 1024))
		require.NoError(t, err)
		assert.Equal(t, 0, decoded.Len())
	})

	t.Run("Padding ignored", func(t *testing.T) {
		decoded, err := DecodeOrderBook(append(append([]byte(nil), valid...), make([]byte, 100)...))
		require.NoError(t, err)
		if diff := cmp.Diff(book.BuyOrders(), decoded.BuyOrders()); diff != "" {
			t.Errorf("buy side mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(book.SellOrders(), decoded.SellOrders()); diff != "" {
			t.Errorf("sell side mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("Short header", func(t *testing.T) {
		_, err := DecodeOrderBook([]byte{1, 0, 0})
		assert.ErrorIs(t, err, ErrCorruptState)
	})

	t.Run("Counts exceed buffer", func(t *testing.T) {
		_, err := DecodeOrderBook(valid[:len(valid)-1])
		assert.ErrorIs(t, err, ErrCorruptState)

		huge := make([]byte, StateHeaderSize)
		binary.LittleEndian.PutUint32(huge[0:4], ^uint32(0))
		binary.LittleEndian.PutUint32(huge[4:8], ^uint32(0))
		_, err = DecodeOrderBook(huge)
		assert.ErrorIs(t, err, ErrCorruptState)
	})

	t.Run("Invalid order type", func(t *testing.T) {
		bad := append([]byte(nil), valid...)
		bad[StateHeaderSize+OrderSize-1] = 7
		_, err := DecodeOrderBook(bad)
		assert.ErrorIs(t, err, ErrCorruptState)
		assert.ErrorIs(t, err, ErrInvalidOrderType)
	})

	t.Run("Order on the wrong side", func(t *testing.T) {
		bad := append([]byte(nil), valid...)
		bad[StateHeaderSize+OrderSize-1] = 1
		_, err := DecodeOrderBook(bad)
		assert.ErrorIs(t, err, ErrCorruptState)
	})

	t.Run("Failed decode leaves book empty", func(t *testing.T) {
		target := NewOrderBook()
		target.AddOrder(buyAt(5, 5))
		err := target.UnmarshalBinary([]byte{1})
		assert.ErrorIs(t, err, ErrCorruptState)
		assert.Equal(t, 0, target.Len())
	})
}

func TestOrderBookCopiesAreIndependent(t *testing.T) {
	book := NewOrderBook()
	book.AddOrder(buyAt(1, 100))

	buys := book.BuyOrders()
	buys[0].Price = 999

	best, ok := book.BestBuyOrder()
	require.True(t, ok)
	assert.Equal(t, uint64(100), best.Price)
}

func TestOrderBookString(t *testing.T) {
	book := NewOrderBook()
	book.AddOrder(buyAt(1, 100))
	book.AddOrder(sellAt(2, 200))
	s := book.String()
	assert.Contains(t, s, "buy:")
	assert.Contains(t, s, "100 x 10")
	assert.Contains(t, s, "200 x 10")
}
