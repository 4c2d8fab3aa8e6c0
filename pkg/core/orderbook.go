package core

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// OrderBook holds resting buy and sell orders in insertion order.
// It is a transient view over a state buffer: decode, mutate, encode.
type OrderBook struct {
	buyOrders  []Order
	sellOrders []Order
}

// NewOrderBook creates an empty OrderBook
func NewOrderBook() *OrderBook {
	return &OrderBook{}
}

// AddOrder appends the order to the side named by its type. Orders of
// unknown type land on the sell side and make MarshalBinary fail.
func (ob *OrderBook) AddOrder(order Order) {
	switch order.Type {
	case Buy:
		ob.buyOrders = append(ob.buyOrders, order)
	default:
		ob.sellOrders = append(ob.sellOrders, order)
	}
}

// BestBuyOrder returns the buy order with the highest price.
// Among equal prices the earliest inserted order wins.
func (ob *OrderBook) BestBuyOrder() (Order, bool) {
	if len(ob.buyOrders) == 0 {
		return Order{}, false
	}

	best := 0
	for i := 1; i < len(ob.buyOrders); i++ {
		if ob.buyOrders[i].Price > ob.buyOrders[best].Price {
			best = i
		}
	}
	return ob.buyOrders[best], true
}

// BestSellOrder returns the sell order with the lowest price.
// Among equal prices the earliest inserted order wins.
func (ob *OrderBook) BestSellOrder() (Order, bool) {
	if len(ob.sellOrders) == 0 {
		return Order{}, false
	}

	best := 0
	for i := 1; i < len(ob.sellOrders); i++ {
		if ob.sellOrders[i].Price < ob.sellOrders[best].Price {
			best = i
		}
	}
	return ob.sellOrders[best], true
}

// BuyOrders returns a copy of the buy side
func (ob *OrderBook) BuyOrders() []Order {
	return append([]Order(nil), ob.buyOrders...)
}

// SellOrders returns a copy of the sell side
func (ob *OrderBook) SellOrders() []Order {
	return append([]Order(nil), ob.sellOrders...)
}

// Len returns the total number of resting orders
func (ob *OrderBook) Len() int {
	return len(ob.buyOrders) + len(ob.sellOrders)
}

// String implements fmt.Stringer interface
func (ob *OrderBook) String() string {
	sb := strings.Builder{}
	sb.WriteString("buy:")
	for _, o := range ob.buyOrders {
		sb.WriteString(fmt.Sprintf("\n  %d x %d (%s)", o.Price, o.Amount, o.Trader))
	}
	sb.WriteString("\nsell:")
	for _, o := range ob.sellOrders {
		sb.WriteString(fmt.Sprintf("\n  %d x %d (%s)", o.Price, o.Amount, o.Trader))
	}
	return sb.String()
}

// StateSize returns the encoded size of a book with the given side lengths
func StateSize(buys, sells int) int {
	return StateHeaderSize + (buys+sells)*OrderSize
}

// MarshalBinary encodes the book as
//
//	uint32 LE buy count | uint32 LE sell count | buy orders | sell orders
//
// Orders of unknown type fail with ErrInvalidOrderType.
func (ob *OrderBook) MarshalBinary() ([]byte, error) {
	for _, side := range [][]Order{ob.buyOrders, ob.sellOrders} {
		for i, o := range side {
			if err := o.Validate(); err != nil {
				return nil, fmt.Errorf("order %d: %w", i, err)
			}
		}
	}

	buf := make([]byte, StateHeaderSize, StateSize(len(ob.buyOrders), len(ob.sellOrders)))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(ob.buyOrders)))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(ob.sellOrders)))
	for _, o := range ob.buyOrders {
		buf = AppendOrder(buf, o)
	}
	for _, o := range ob.sellOrders {
		buf = AppendOrder(buf, o)
	}
	return buf, nil
}

// UnmarshalBinary replaces the book contents with the decoded state.
// An empty buffer is an empty book; bytes past the last record are padding.
func (ob *OrderBook) UnmarshalBinary(data []byte) error {
	ob.buyOrders = nil
	ob.sellOrders = nil

	if len(data) == 0 {
		return nil
	}
	if len(data) < StateHeaderSize {
		return fmt.Errorf("%w: %d byte buffer is shorter than the header", ErrCorruptState, len(data))
	}

	buys := uint64(binary.LittleEndian.Uint32(data[0:4]))
	sells := uint64(binary.LittleEndian.Uint32(data[4:8]))
	need := StateHeaderSize + (buys+sells)*OrderSize
	if need > uint64(len(data)) {
		return fmt.Errorf("%w: %d buy and %d sell orders need %d bytes, have %d",
			ErrCorruptState, buys, sells, need, len(data))
	}

	buyOrders, err := decodeSide(data[StateHeaderSize:], int(buys), Buy)
	if err != nil {
		return err
	}
	sellOrders, err := decodeSide(data[StateHeaderSize+int(buys)*OrderSize:], int(sells), Sell)
	if err != nil {
		return err
	}

	ob.buyOrders = buyOrders
	ob.sellOrders = sellOrders
	return nil
}

func decodeSide(data []byte, count int, side OrderType) ([]Order, error) {
	if count == 0 {
		return nil, nil
	}
	orders := make([]Order, 0, count)
	for i := 0; i < count; i++ {
		o, err := DecodeOrder(data[i*OrderSize:])
		if err != nil {
			return nil, fmt.Errorf("%w: %s order %d: %w", ErrCorruptState, side, i, err)
		}
		if o.Type != side {
			return nil, fmt.Errorf("%w: %s order %d on the %s side", ErrCorruptState, o.Type, i, side)
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// DecodeOrderBook decodes a state buffer into a new OrderBook
func DecodeOrderBook(data []byte) (*OrderBook, error) {
	ob := NewOrderBook()
	if err := ob.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return ob, nil
}

// EncodeOrderBook encodes a book whose orders all pass Validate. It panics
// otherwise; use MarshalBinary to get the error instead.
func EncodeOrderBook(ob *OrderBook) []byte {
	data, err := ob.MarshalBinary()
	if err != nil {
		panic(err)
	}
	return data
}
