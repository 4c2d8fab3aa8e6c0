package core

import (
	"errors"
	"testing"
)

func TestErrors(t *testing.T) {
	errorTests := []struct {
		name string
		err  error
		msg  string
	}{
		{"ErrEmptyInput", ErrEmptyInput, "empty input"},
		{"ErrUnknownTag", ErrUnknownTag, "unknown instruction tag"},
		{"ErrInvalidOrderPayload", ErrInvalidOrderPayload, "invalid order payload"},
		{"ErrInvalidOrderType", ErrInvalidOrderType, "invalid order type"},
		{"ErrTruncatedInput", ErrTruncatedInput, "truncated input"},
		{"ErrCorruptState", ErrCorruptState, "corrupt order book state"},
		{"ErrInvalidTrader", ErrInvalidTrader, "invalid trader identity"},
		{"ErrAccountNotFound", ErrAccountNotFound, "account not found"},
		{"ErrAccountExists", ErrAccountExists, "account exists"},
		{"ErrInsufficientStorage", ErrInsufficientStorage, "insufficient storage"},
	}

	for _, tt := range errorTests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Fatalf("Error %s is nil", tt.name)
			}

			if tt.err.Error() != tt.msg {
				t.Errorf("Expected error message %q, got %q", tt.msg, tt.err.Error())
			}

			if !errors.Is(tt.err, tt.err) {
				t.Errorf("Error %s does not match itself with errors.Is", tt.name)
			}
		})
	}
}

func TestOrderSize(t *testing.T) {
	if OrderSize != 49 {
		t.Errorf("Expected OrderSize 49, got %d", OrderSize)
	}
	if StateSize(0, 0) != StateHeaderSize {
		t.Errorf("Expected empty state size %d, got %d", StateHeaderSize, StateSize(0, 0))
	}
	if StateSize(2, 1) != 8+3*49 {
		t.Errorf("Expected state size %d, got %d", 8+3*49, StateSize(2, 1))
	}
}

func TestCheckCapacity(t *testing.T) {
	if err := CheckCapacity(100, 0); err != nil {
		t.Errorf("Expected unbounded capacity, got %v", err)
	}
	if err := CheckCapacity(100, 100); err != nil {
		t.Errorf("Expected exact fit, got %v", err)
	}
	if err := CheckCapacity(101, 100); !errors.Is(err, ErrInsufficientStorage) {
		t.Errorf("Expected ErrInsufficientStorage, got %v", err)
	}
}
