package core

import (
	"encoding/json"
	"fmt"
)

// OrderType represents buy or sell side of the order
type OrderType int

// Order types
const (
	Buy OrderType = iota
	Sell
)

// String returns order type as string
func (t OrderType) String() string {
	switch t {
	case Buy:
		return "BUY"
	case Sell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether t is Buy or Sell
func (t OrderType) Valid() bool {
	return t == Buy || t == Sell
}

// MarshalText implements encoding.TextMarshaler
func (t OrderType) MarshalText() ([]byte, error) {
	switch t {
	case Buy, Sell:
		return []byte(t.String()), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidOrderType, int(t))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *OrderType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "BUY", "buy":
		*t = Buy
	case "SELL", "sell":
		*t = Sell
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOrderType, text)
	}
	return nil
}

// typeByte maps an order type onto its wire byte. Callers check Valid first.
func (t OrderType) typeByte() byte {
	switch t {
	case Buy:
		return 0
	case Sell:
		return 1
	default:
		panic(fmt.Sprintf("unrecognized order type %d", int(t)))
	}
}

// orderTypeFromByte is the inverse of typeByte. Unmapped values are rejected.
func orderTypeFromByte(b byte) (OrderType, error) {
	switch b {
	case 0:
		return Buy, nil
	case 1:
		return Sell, nil
	default:
		return 0, fmt.Errorf("%w: 0x%02x", ErrInvalidOrderType, b)
	}
}

// Order is a single resting buy or sell intent
type Order struct {
	Trader Trader
	Amount uint64
	Price  uint64
	Type   OrderType
}

// NewOrder creates a new Order. Zero amounts and prices are accepted.
// orderType must be Buy or Sell; MarshalBinary rejects books holding
// anything else.
func NewOrder(trader Trader, orderType OrderType, amount, price uint64) Order {
	return Order{
		Trader: trader,
		Amount: amount,
		Price:  price,
		Type:   orderType,
	}
}

// Validate rejects orders whose type has no wire encoding
func (o Order) Validate() error {
	if !o.Type.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidOrderType, int(o.Type))
	}
	return nil
}

// IsBuy returns true if Order is on the buy side
func (o Order) IsBuy() bool {
	return o.Type == Buy
}

// IsSell returns true if Order is on the sell side
func (o Order) IsSell() bool {
	return o.Type == Sell
}

// MarshalJSON implements custom JSON marshaling for Order
func (o Order) MarshalJSON() ([]byte, error) {
	type OrderJSON struct {
		Trader string    `json:"trader"`
		Amount uint64    `json:"amount"`
		Price  uint64    `json:"price"`
		Type   OrderType `json:"type"`
	}

	return json.Marshal(OrderJSON{
		Trader: o.Trader.String(),
		Amount: o.Amount,
		Price:  o.Price,
		Type:   o.Type,
	})
}

// UnmarshalJSON implements custom JSON unmarshaling for Order
func (o *Order) UnmarshalJSON(data []byte) error {
	type OrderJSON struct {
		Trader string    `json:"trader"`
		Amount uint64    `json:"amount"`
		Price  uint64    `json:"price"`
		Type   OrderType `json:"type"`
	}

	var orderJSON OrderJSON
	if err := json.Unmarshal(data, &orderJSON); err != nil {
		return err
	}

	trader, err := ParseTrader(orderJSON.Trader)
	if err != nil {
		return err
	}

	o.Trader = trader
	o.Amount = orderJSON.Amount
	o.Price = orderJSON.Price
	o.Type = orderJSON.Type
	return nil
}

// String implements Stringer interface
func (o Order) String() string {
	return fmt.Sprintf("Order{trader=%s amount=%d price=%d type=%s}", o.Trader, o.Amount, o.Price, o.Type)
}
