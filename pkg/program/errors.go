package program

import (
	"errors"

	"github.com/erain9/bookprogram/pkg/core"
)

// Program errors. Causes are wrapped beneath these kinds so both satisfy errors.Is.
var (
	ErrInvalidInstructionData = errors.New("invalid instruction data")
	ErrInvalidAccountData     = errors.New("invalid account data")
	ErrNoOrdersAvailable      = errors.New("no orders available")
	ErrInsufficientStorage    = core.ErrInsufficientStorage
)

// Outcome labels used in logs and metrics
const (
	OutcomeOK                  = "ok"
	OutcomeInvalidInstruction  = "invalid_instruction"
	OutcomeInvalidAccount      = "invalid_account"
	OutcomeNoOrders            = "no_orders"
	OutcomeInsufficientStorage = "insufficient_storage"
	OutcomeError               = "error"
)

// Outcome classifies err into one of the outcome labels
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrInvalidInstructionData):
		return OutcomeInvalidInstruction
	case errors.Is(err, ErrInvalidAccountData):
		return OutcomeInvalidAccount
	case errors.Is(err, ErrNoOrdersAvailable):
		return OutcomeNoOrders
	case errors.Is(err, ErrInsufficientStorage):
		return OutcomeInsufficientStorage
	default:
		return OutcomeError
	}
}
