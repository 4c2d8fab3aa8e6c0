package messaging

import "context"

// MessageSender defines an interface for publishing program events.
// This keeps the program package independent of the Kafka clients.
type MessageSender interface {
	SendOrderPlaced(ctx context.Context, msg *OrderPlacedMessage) error
	Close() error
}

// OrderPlacedMessage is published after a PlaceOrder instruction has been
// durably stored.
type OrderPlacedMessage struct {
	Account string `json:"account"`
	Trader  string `json:"trader"`
	Amount  uint64 `json:"amount"`
	Price   uint64 `json:"price"`
	Type    string `json:"type"`
	// Record is the 49-byte order encoding
	Record []byte `json:"record"`
}
