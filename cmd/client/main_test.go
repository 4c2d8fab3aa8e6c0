package main

import (
	"bytes"
	"context"
	"net"
	"testing"

	"github.com/erain9/bookprogram/pkg/backend/memory"
	"github.com/erain9/bookprogram/pkg/core"
	"github.com/erain9/bookprogram/pkg/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func setupClient(t *testing.T) server.ProgramClient {
	t.Helper()

	lis := bufconn.Listen(1024 * 1024)
	s := grpc.NewServer()
	manager := server.NewAccountManager(memory.NewMemoryBackend(), "memory", 0)
	server.RegisterProgramService(s, server.NewGRPCProgramService(manager))
	go func() { _ = s.Serve(lis) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		s.Stop()
	})
	return server.NewProgramClient(conn)
}

func TestRunCommands(t *testing.T) {
	client := setupClient(t)
	ctx := context.Background()
	trader := core.Trader{5}
	var out bytes.Buffer

	require.NoError(t, run(ctx, client, &out, trader, []string{"create-account", "book"}))
	assert.Contains(t, out.String(), "Created account book")

	require.NoError(t, run(ctx, client, &out, trader, []string{"place", "book", "buy", "100", "500"}))
	require.NoError(t, run(ctx, client, &out, trader, []string{"place", "book", "SELL", "50", "600"}))

	out.Reset()
	require.NoError(t, run(ctx, client, &out, trader, []string{"best-buy", "book"}))
	assert.Contains(t, out.String(), "500")
	assert.Contains(t, out.String(), trader.String())

	out.Reset()
	require.NoError(t, run(ctx, client, &out, trader, []string{"best-sell", "book"}))
	assert.Contains(t, out.String(), "600")

	out.Reset()
	require.NoError(t, run(ctx, client, &out, trader, []string{"get-state", "book"}))
	assert.Contains(t, out.String(), "500")
	assert.Contains(t, out.String(), "600")

	require.NoError(t, run(ctx, client, &out, trader, []string{"delete-account", "book"}))
	err := run(ctx, client, &out, trader, []string{"get-state", "book"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestRunErrors(t *testing.T) {
	client := setupClient(t)
	ctx := context.Background()
	var out bytes.Buffer

	assert.ErrorContains(t, run(ctx, client, &out, core.Trader{}, []string{"place", "book"}), "usage")
	assert.ErrorContains(t, run(ctx, client, &out, core.Trader{}, []string{"nope"}), "unknown command")

	require.NoError(t, run(ctx, client, &out, core.Trader{}, []string{"create-account", "book"}))
	err := run(ctx, client, &out, core.Trader{}, []string{"best-buy", "book"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	assert.ErrorIs(t, run(ctx, client, &out, core.Trader{}, []string{"place", "book", "hold", "1", "1"}), core.ErrInvalidOrderType)
	assert.Error(t, run(ctx, client, &out, core.Trader{}, []string{"place", "book", "buy", "-1", "1"}))
}

func TestParseOrder(t *testing.T) {
	order, err := parseOrder(core.Trader{1}, "sell", "3", "9")
	require.NoError(t, err)
	assert.Equal(t, core.NewOrder(core.Trader{1}, core.Sell, 3, 9), order)

	_, err = parseOrder(core.Trader{1}, "buy", "3", "x")
	assert.Error(t, err)
}

func TestResolveTrader(t *testing.T) {
	random, err := resolveTrader("")
	require.NoError(t, err)
	assert.False(t, random.IsZero())

	parsed, err := resolveTrader(random.String())
	require.NoError(t, err)
	assert.Equal(t, random, parsed)

	_, err = resolveTrader("not-base58!")
	assert.ErrorIs(t, err, core.ErrInvalidTrader)
}
