package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/erain9/bookprogram/pkg/core"
	"github.com/erain9/bookprogram/pkg/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func main() {
	grpcAddr := flag.String("grpc-addr", "localhost:50051", "gRPC server address")
	numWorkers := flag.Int("workers", 100, "Number of concurrent workers")
	ordersPerWorker := flag.Int("orders", 100, "Orders placed by each worker")
	maxRate := flag.Int("rate", 1000, "Maximum instructions per second")
	queryEvery := flag.Int("query-every", 10, "Issue a best buy/sell query after every N orders")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	conn, err := grpc.NewClient(*grpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect")
	}
	defer conn.Close()

	client := server.NewProgramClient(conn)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		log.Info().Msg("Received interrupt signal, cleaning up...")
		cancel()
	}()

	account := fmt.Sprintf("load-test-%d", time.Now().UnixNano())
	if _, err := client.CreateAccount(ctx, wrapperspb.String(account)); err != nil {
		log.Fatal().Err(err).Msg("Failed to create account")
	}
	log.Info().Str("account", account).Msg("Created account")

	cfg := loadConfig{
		workers:         *numWorkers,
		ordersPerWorker: *ordersPerWorker,
		rate:            *maxRate,
		queryEvery:      *queryEvery,
	}
	log.Info().Int("workers", cfg.workers).Int("orders_per_worker", cfg.ordersPerWorker).Msg("Starting load test")

	res := runLoad(ctx, client, account, cfg)
	res.log(log.Logger)

	if _, err := client.DeleteAccount(context.Background(), wrapperspb.String(account)); err != nil {
		log.Warn().Err(err).Msg("Failed to delete account")
	}

	if len(res.errors) > 0 {
		log.Error().Err(res.errors[0]).Msg("First error")
		os.Exit(1)
	}
}

type loadConfig struct {
	workers         int
	ordersPerWorker int
	rate            int
	queryEvery      int
}

type loadResult struct {
	duration time.Duration
	latency  *hdrhistogram.Histogram
	attempts int
	errors   []error
}

// runLoad places orders from cfg.workers goroutines under a shared rate limit
func runLoad(ctx context.Context, client server.ProgramClient, account string, cfg loadConfig) *loadResult {
	limiter := rate.NewLimiter(rate.Limit(cfg.rate), cfg.rate)

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		res = &loadResult{latency: hdrhistogram.New(1, int64(time.Minute/time.Microsecond), 3)}
	)

	record := func(elapsed time.Duration, err error) {
		mu.Lock()
		defer mu.Unlock()
		res.attempts++
		if err != nil {
			res.errors = append(res.errors, err)
			return
		}
		_ = res.latency.RecordValue(elapsed.Microseconds())
	}

	start := time.Now()
	for i := 0; i < cfg.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))
			trader := core.Trader{byte(workerID), byte(workerID >> 8)}

			for j := 0; j < cfg.ordersPerWorker; j++ {
				if err := limiter.Wait(ctx); err != nil {
					record(0, fmt.Errorf("rate limiter error: %w", err))
					return
				}
				var instr core.Instruction = core.PlaceOrder{Order: generateRandomOrder(r, trader)}
				if cfg.queryEvery > 0 && j%cfg.queryEvery == cfg.queryEvery-1 {
					instr = randomQuery(r)
				}

				began := time.Now()
				_, err := client.Invoke(server.InvocationContext(ctx, account, trader),
					wrapperspb.Bytes(core.EncodeInstruction(instr)))
				record(time.Since(began), err)
			}
		}(i)
	}

	wg.Wait()
	res.duration = time.Since(start)
	return res
}

func (r *loadResult) log(logger zerolog.Logger) {
	logger.Info().
		Dur("duration", r.duration).
		Int("attempted", r.attempts).
		Int("errors", len(r.errors)).
		Int64("p50_us", r.latency.ValueAtQuantile(50)).
		Int64("p99_us", r.latency.ValueAtQuantile(99)).
		Int64("max_us", r.latency.Max()).
		Msg("Load test completed")
}

// generateRandomOrder prices orders around a fixed mid so both sides fill up
func generateRandomOrder(r *rand.Rand, trader core.Trader) core.Order {
	const mid = 10_000

	orderType := core.Buy
	price := uint64(mid - r.Intn(100))
	if r.Float64() < 0.5 {
		orderType = core.Sell
		price = uint64(mid + 1 + r.Intn(100))
	}
	return core.NewOrder(trader, orderType, uint64(1+r.Intn(100)), price)
}

func randomQuery(r *rand.Rand) core.Instruction {
	if r.Intn(2) == 0 {
		return core.GetBestBuyOrder{}
	}
	return core.GetBestSellOrder{}
}
