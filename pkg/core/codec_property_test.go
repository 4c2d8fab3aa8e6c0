package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"pgregory.net/rapid"
)

func orderGen() *rapid.Generator[Order] {
	return rapid.Custom(func(t *rapid.T) Order {
		var trader Trader
		copy(trader[:], rapid.SliceOfN(rapid.Byte(), TraderSize, TraderSize).Draw(t, "trader"))
		return Order{
			Trader: trader,
			Amount: rapid.Uint64().Draw(t, "amount"),
			Price:  rapid.Uint64().Draw(t, "price"),
			Type:   rapid.SampledFrom([]OrderType{Buy, Sell}).Draw(t, "type"),
		}
	})
}

func instructionGen() *rapid.Generator[Instruction] {
	return rapid.Custom(func(t *rapid.T) Instruction {
		switch rapid.IntRange(0, 2).Draw(t, "tag") {
		case 0:
			return PlaceOrder{Order: orderGen().Draw(t, "order")}
		case 1:
			return GetBestBuyOrder{}
		default:
			return GetBestSellOrder{}
		}
	})
}

func TestOrderRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		order := orderGen().Draw(t, "order")
		enc := EncodeOrder(order)
		got, err := DecodeOrder(enc[:])
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got != order {
			t.Fatalf("round trip mismatch: %v != %v", got, order)
		}
	})
}

func TestInstructionRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		instr := instructionGen().Draw(t, "instruction")
		data := EncodeInstruction(instr)
		got, err := DecodeInstruction(data)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got != instr {
			t.Fatalf("round trip mismatch: %#v != %#v", got, instr)
		}
	})
}

func TestOrderBookRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		orders := rapid.SliceOfN(orderGen(), 0, 32).Draw(t, "orders")
		book := NewOrderBook()
		for _, o := range orders {
			book.AddOrder(o)
		}

		data, err := book.MarshalBinary()
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if len(data) != StateSize(len(orders), 0) {
			t.Fatalf("expected %d bytes, got %d", StateSize(len(orders), 0), len(data))
		}

		decoded, err := DecodeOrderBook(data)
		if err != nil {
			t.Fatalf("unmarshal: %v", err)
		}

		var wantBuys, wantSells []Order
		for _, o := range orders {
			if o.Type == Buy {
				wantBuys = append(wantBuys, o)
			} else {
				wantSells = append(wantSells, o)
			}
		}
		if diff := cmp.Diff(wantBuys, decoded.BuyOrders(), cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("buy side mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(wantSells, decoded.SellOrders(), cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("sell side mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(book.BuyOrders(), decoded.BuyOrders(), cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("buy side differs from source book:\n%s", diff)
		}
	})
}
