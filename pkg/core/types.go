package core

// InstructionTag is the discriminant byte of an encoded instruction
type InstructionTag uint8

// Instruction tags
const (
	TagPlaceOrder       InstructionTag = 0
	TagGetBestBuyOrder  InstructionTag = 1
	TagGetBestSellOrder InstructionTag = 2
)

// String returns the instruction name
func (t InstructionTag) String() string {
	switch t {
	case TagPlaceOrder:
		return "PlaceOrder"
	case TagGetBestBuyOrder:
		return "GetBestBuyOrder"
	case TagGetBestSellOrder:
		return "GetBestSellOrder"
	default:
		return "Unknown"
	}
}

// Instruction is one operation against the order book.
// It is implemented by PlaceOrder, GetBestBuyOrder and GetBestSellOrder.
type Instruction interface {
	Tag() InstructionTag
	isInstruction()
}

// PlaceOrder appends an order to its side of the book
type PlaceOrder struct {
	Order Order
}

// GetBestBuyOrder reports the highest priced buy order
type GetBestBuyOrder struct{}

// GetBestSellOrder reports the lowest priced sell order
type GetBestSellOrder struct{}

// Tag returns TagPlaceOrder
func (PlaceOrder) Tag() InstructionTag { return TagPlaceOrder }

// Tag returns TagGetBestBuyOrder
func (GetBestBuyOrder) Tag() InstructionTag { return TagGetBestBuyOrder }

// Tag returns TagGetBestSellOrder
func (GetBestSellOrder) Tag() InstructionTag { return TagGetBestSellOrder }

func (PlaceOrder) isInstruction()       {}
func (GetBestBuyOrder) isInstruction()  {}
func (GetBestSellOrder) isInstruction() {}

var (
	_ Instruction = PlaceOrder{}
	_ Instruction = GetBestBuyOrder{}
	_ Instruction = GetBestSellOrder{}
)
