package core

import (
	"crypto/rand"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
)

// Trader is an opaque 32-byte identity
type Trader [TraderSize]byte

// ParseTrader decodes the base58 text form of a trader identity
func ParseTrader(s string) (Trader, error) {
	var t Trader
	raw := base58.Decode(s)
	if len(raw) != TraderSize {
		return t, fmt.Errorf("%w: %q", ErrInvalidTrader, s)
	}
	copy(t[:], raw)
	return t, nil
}

// TraderFromBytes copies a 32-byte slice into a Trader
func TraderFromBytes(b []byte) (Trader, error) {
	var t Trader
	if len(b) != TraderSize {
		return t, fmt.Errorf("%w: %d bytes", ErrInvalidTrader, len(b))
	}
	copy(t[:], b)
	return t, nil
}

// NewRandomTrader generates a random trader identity
func NewRandomTrader() (Trader, error) {
	var t Trader
	if _, err := rand.Read(t[:]); err != nil {
		return t, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return t, nil
}

// String returns the base58 form
func (t Trader) String() string {
	return base58.Encode(t[:])
}

// IsZero reports whether every byte of the identity is zero
func (t Trader) IsZero() bool {
	return t == Trader{}
}
