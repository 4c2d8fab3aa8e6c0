package core

import (
	"encoding/binary"
	"fmt"
)

// Order layout offsets
const (
	amountOffset = TraderSize
	priceOffset  = amountOffset + 8
	typeOffset   = priceOffset + 8
)

// EncodeOrder writes the fixed 49-byte layout of an order:
// trader, amount (LE), price (LE), type byte. It panics when o fails
// Validate.
func EncodeOrder(o Order) [OrderSize]byte {
	var buf [OrderSize]byte
	putOrder(buf[:], o)
	return buf
}

// AppendOrder appends the encoding of o to dst
func AppendOrder(dst []byte, o Order) []byte {
	enc := EncodeOrder(o)
	return append(dst, enc[:]...)
}

func putOrder(buf []byte, o Order) {
	copy(buf[:TraderSize], o.Trader[:])
	binary.LittleEndian.PutUint64(buf[amountOffset:priceOffset], o.Amount)
	binary.LittleEndian.PutUint64(buf[priceOffset:typeOffset], o.Price)
	buf[typeOffset] = o.Type.typeByte()
}

// DecodeOrder reads an order from the first 49 bytes of data.
// Bytes past the record are ignored.
func DecodeOrder(data []byte) (Order, error) {
	if len(data) < OrderSize {
		return Order{}, fmt.Errorf("%w: order needs %d bytes, have %d", ErrTruncatedInput, OrderSize, len(data))
	}

	orderType, err := orderTypeFromByte(data[typeOffset])
	if err != nil {
		return Order{}, err
	}

	var o Order
	copy(o.Trader[:], data[:TraderSize])
	o.Amount = binary.LittleEndian.Uint64(data[amountOffset:priceOffset])
	o.Price = binary.LittleEndian.Uint64(data[priceOffset:typeOffset])
	o.Type = orderType
	return o, nil
}

// EncodeInstruction writes the tag byte followed by the payload, if any
func EncodeInstruction(instr Instruction) []byte {
	switch v := instr.(type) {
	case PlaceOrder:
		buf := make([]byte, 1, 1+OrderSize)
		buf[0] = byte(TagPlaceOrder)
		return AppendOrder(buf, v.Order)
	case GetBestBuyOrder:
		return []byte{byte(TagGetBestBuyOrder)}
	case GetBestSellOrder:
		return []byte{byte(TagGetBestSellOrder)}
	default:
		panic(fmt.Sprintf("unrecognized instruction %T", instr))
	}
}

// DecodeInstruction parses instruction data. Trailing bytes after a
// complete instruction are ignored.
func DecodeInstruction(data []byte) (Instruction, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}

	switch InstructionTag(data[0]) {
	case TagPlaceOrder:
		order, err := DecodeOrder(data[1:])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidOrderPayload, err)
		}
		return PlaceOrder{Order: order}, nil
	case TagGetBestBuyOrder:
		return GetBestBuyOrder{}, nil
	case TagGetBestSellOrder:
		return GetBestSellOrder{}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownTag, data[0])
	}
}
