package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	redisbackend "github.com/erain9/bookprogram/pkg/backend/redis"
	"github.com/erain9/bookprogram/pkg/core"
	"github.com/erain9/bookprogram/pkg/program"
)

const (
	redisAddr = "localhost:6379"
	redisDB   = 0
	prefix    = "bookprogram-example"
	account   = "example"
)

func main() {
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{
		Addr: redisAddr,
		DB:   redisDB,
	})

	pong, err := client.Ping(ctx).Result()
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis: %v", err))
	}
	fmt.Printf("Redis connection established: %s\n", pong)

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	store := redisbackend.NewRedisBackend(client, prefix, logger)
	defer store.Close()

	// Start from an empty account on every run
	_ = store.Delete(ctx, account)
	if err := store.Create(ctx, account, 4096); err != nil {
		panic(err)
	}

	processor := program.NewProcessor(store)
	trader, err := core.NewRandomTrader()
	if err != nil {
		panic(err)
	}

	for i := uint64(1); i <= 5; i++ {
		orderType := core.Buy
		if i%2 == 0 {
			orderType = core.Sell
		}
		data := core.EncodeInstruction(core.PlaceOrder{Order: core.NewOrder(trader, orderType, i*10, 100+i)})
		if _, err := processor.Process(ctx, account, data, trader); err != nil {
			panic(err)
		}
	}

	out, err := processor.Process(ctx, account, core.EncodeInstruction(core.GetBestSellOrder{}), trader)
	if err != nil {
		panic(err)
	}
	best, err := core.DecodeOrder(out)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Best sell order: %s\n", best)

	state, err := store.Load(ctx, account)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Account %s holds %d bytes (capacity 4096)\n", account, len(state))
}
