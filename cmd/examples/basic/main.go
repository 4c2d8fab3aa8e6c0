package main

import (
	"context"
	"fmt"

	"github.com/erain9/bookprogram/pkg/backend/memory"
	"github.com/erain9/bookprogram/pkg/core"
	"github.com/erain9/bookprogram/pkg/messaging"
	"github.com/erain9/bookprogram/pkg/program"
)

func main() {
	ctx := context.Background()

	// Initialize the program over an in-memory store
	store := memory.NewMemoryBackend()
	events := messaging.NewMockMessageSender()
	processor := program.NewProcessor(store, program.WithMessageSender(events))

	if err := store.Create(ctx, "example", 0); err != nil {
		panic(err)
	}

	trader, err := core.NewRandomTrader()
	if err != nil {
		panic(err)
	}

	orders := []core.Order{
		core.NewOrder(trader, core.Buy, 100, 50),
		core.NewOrder(trader, core.Buy, 10, 55),
		core.NewOrder(trader, core.Sell, 70, 60),
		core.NewOrder(trader, core.Sell, 5, 58),
	}
	for _, o := range orders {
		data := core.EncodeInstruction(core.PlaceOrder{Order: o})
		if _, err := processor.Process(ctx, "example", data, trader); err != nil {
			panic(err)
		}
		fmt.Printf("Placed %s\n", o)
	}

	for _, instr := range []core.Instruction{core.GetBestBuyOrder{}, core.GetBestSellOrder{}} {
		out, err := processor.Process(ctx, "example", core.EncodeInstruction(instr), trader)
		if err != nil {
			panic(err)
		}
		best, err := core.DecodeOrder(out)
		if err != nil {
			panic(err)
		}
		fmt.Printf("%s: %s\n", instr.Tag(), best)
	}

	state, err := store.Load(ctx, "example")
	if err != nil {
		panic(err)
	}
	book, err := core.DecodeOrderBook(state)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Account state: %d bytes\n%s", len(state), book)
	fmt.Printf("Published %d order events\n", len(events.Messages()))
}
