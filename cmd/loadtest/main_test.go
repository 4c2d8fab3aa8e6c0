package main

import (
	"context"
	"math/rand"
	"net"
	"testing"

	"github.com/erain9/bookprogram/pkg/backend/memory"
	"github.com/erain9/bookprogram/pkg/core"
	"github.com/erain9/bookprogram/pkg/server"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestGenerateRandomOrder(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		o := generateRandomOrder(r, core.Trader{1})
		if o.IsBuy() {
			assert.LessOrEqual(t, o.Price, uint64(10_000))
		} else {
			assert.Greater(t, o.Price, uint64(10_000))
		}
		assert.NotZero(t, o.Amount)
	}
}

func TestRunLoad(t *testing.T) {
	lis := bufconn.Listen(1024 * 1024)
	s := grpc.NewServer()
	manager := server.NewAccountManager(memory.NewMemoryBackend(), "memory", 0)
	server.RegisterProgramService(s, server.NewGRPCProgramService(manager))
	go func() { _ = s.Serve(lis) }()
	defer s.Stop()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()

	client := server.NewProgramClient(conn)
	ctx := context.Background()
	_, err = client.CreateAccount(ctx, wrapperspb.String("load"))
	require.NoError(t, err)

	res := runLoad(ctx, client, "load", loadConfig{workers: 4, ordersPerWorker: 5, rate: 10_000, queryEvery: 0})
	assert.Equal(t, 20, res.attempts)
	assert.Empty(t, res.errors)
	assert.Equal(t, int64(20), res.latency.TotalCount())
	res.log(zerolog.Nop())

	state, err := client.GetState(ctx, wrapperspb.String("load"))
	require.NoError(t, err)
	book, err := core.DecodeOrderBook(state.GetValue())
	require.NoError(t, err)
	assert.Equal(t, 20, book.Len())
}
