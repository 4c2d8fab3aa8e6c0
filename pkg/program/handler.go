package program

import (
	"fmt"

	"github.com/erain9/bookprogram/pkg/core"
)

// Result is the outcome of one instruction against a state buffer
type Result struct {
	Instruction core.Instruction
	// State is the re-encoded book, set only when Mutated
	State   []byte
	Mutated bool
	// Output is the 49-byte encoding of the selected order for queries
	Output []byte
	// Order is the placed or selected order
	Order core.Order
}

// Handle decodes instructionData and applies it to state. It has no side
// effects: persisting Result.State is up to the caller.
func Handle(instructionData, state []byte) (Result, error) {
	instr, err := core.DecodeInstruction(instructionData)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidInstructionData, err)
	}
	return Execute(instr, state)
}

// Execute applies an already decoded instruction to state
func Execute(instr core.Instruction, state []byte) (Result, error) {
	if place, ok := instr.(core.PlaceOrder); ok {
		if err := place.Order.Validate(); err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrInvalidInstructionData, err)
		}
	}

	book, err := core.DecodeOrderBook(state)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidAccountData, err)
	}

	res := Result{Instruction: instr}
	switch in := instr.(type) {
	case core.PlaceOrder:
		book.AddOrder(in.Order)
		if res.State, err = book.MarshalBinary(); err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrInvalidAccountData, err)
		}
		res.Mutated = true
		res.Order = in.Order

	case core.GetBestBuyOrder:
		best, ok := book.BestBuyOrder()
		if !ok {
			return Result{}, ErrNoOrdersAvailable
		}
		res.setOutput(best)

	case core.GetBestSellOrder:
		best, ok := book.BestSellOrder()
		if !ok {
			return Result{}, ErrNoOrdersAvailable
		}
		res.setOutput(best)

	default:
		return Result{}, fmt.Errorf("%w: unsupported instruction %T", ErrInvalidInstructionData, instr)
	}

	return res, nil
}

func (r *Result) setOutput(o core.Order) {
	encoded := core.EncodeOrder(o)
	r.Output = encoded[:]
	r.Order = o
}
