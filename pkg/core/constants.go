package core

import "errors"

// Encoded sizes
const (
	// TraderSize is the width of a trader identity
	TraderSize = 32
	// OrderSize is the width of an encoded Order: trader, amount, price, type
	OrderSize = TraderSize + 8 + 8 + 1
	// StateHeaderSize is the width of the order count header of a state buffer
	StateHeaderSize = 8
)

// Decode errors
var (
	ErrEmptyInput          = errors.New("empty input")
	ErrUnknownTag          = errors.New("unknown instruction tag")
	ErrInvalidOrderPayload = errors.New("invalid order payload")
	ErrInvalidOrderType    = errors.New("invalid order type")
	ErrTruncatedInput      = errors.New("truncated input")
	ErrCorruptState        = errors.New("corrupt order book state")
	ErrInvalidTrader       = errors.New("invalid trader identity")
)

// Storage errors
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountExists       = errors.New("account exists")
	ErrInsufficientStorage = errors.New("insufficient storage")
)
