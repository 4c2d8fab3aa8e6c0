package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/erain9/bookprogram/pkg/core"
	"github.com/erain9/bookprogram/pkg/server"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

var (
	serverAddr = flag.String("addr", "localhost:50051", "The server address in the format host:port")
	traderFlag = flag.String("trader", "", "Trader identity (base58); a random one is generated when empty")
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	flag.Parse()
	if flag.NArg() < 1 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := grpc.NewClient(*serverAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to server")
	}
	defer conn.Close()

	trader, err := resolveTrader(*traderFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid trader")
	}

	if err := run(ctx, server.NewProgramClient(conn), os.Stdout, trader, flag.Args()); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

func resolveTrader(s string) (core.Trader, error) {
	if s == "" {
		return core.NewRandomTrader()
	}
	return core.ParseTrader(s)
}

// run executes one client command
func run(ctx context.Context, client server.ProgramClient, out io.Writer, trader core.Trader, args []string) error {
	command, args := args[0], args[1:]

	need := func(n int, usage string) error {
		if len(args) < n {
			return fmt.Errorf("usage: %s", usage)
		}
		return nil
	}

	switch command {
	case "create-account":
		if err := need(1, "create-account <account>"); err != nil {
			return err
		}
		if _, err := client.CreateAccount(ctx, wrapperspb.String(args[0])); err != nil {
			return err
		}
		fmt.Fprintf(out, "Created account %s\n", args[0])
		return nil

	case "delete-account":
		if err := need(1, "delete-account <account>"); err != nil {
			return err
		}
		if _, err := client.DeleteAccount(ctx, wrapperspb.String(args[0])); err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted account %s\n", args[0])
		return nil

	case "place":
		if err := need(4, "place <account> <buy|sell> <amount> <price>"); err != nil {
			return err
		}
		order, err := parseOrder(trader, args[1], args[2], args[3])
		if err != nil {
			return err
		}
		if _, err := invoke(ctx, client, args[0], trader, core.PlaceOrder{Order: order}); err != nil {
			return err
		}
		fmt.Fprintf(out, "Placed %s\n", order)
		return nil

	case "best-buy", "best-sell":
		if err := need(1, command+" <account>"); err != nil {
			return err
		}
		var instr core.Instruction = core.GetBestBuyOrder{}
		if command == "best-sell" {
			instr = core.GetBestSellOrder{}
		}
		output, err := invoke(ctx, client, args[0], trader, instr)
		if err != nil {
			return err
		}
		order, err := core.DecodeOrder(output)
		if err != nil {
			return fmt.Errorf("malformed output: %w", err)
		}
		return printOrders(out, []core.Order{order})

	case "get-state":
		if err := need(1, "get-state <account>"); err != nil {
			return err
		}
		resp, err := client.GetState(ctx, wrapperspb.String(args[0]))
		if err != nil {
			return err
		}
		book, err := core.DecodeOrderBook(resp.GetValue())
		if err != nil {
			return err
		}
		return printOrders(out, append(book.SellOrders(), book.BuyOrders()...))

	default:
		printUsage(out)
		return fmt.Errorf("unknown command: %s", command)
	}
}

func invoke(ctx context.Context, client server.ProgramClient, account string, trader core.Trader, instr core.Instruction) ([]byte, error) {
	resp, err := client.Invoke(server.InvocationContext(ctx, account, trader), wrapperspb.Bytes(core.EncodeInstruction(instr)))
	if err != nil {
		return nil, err
	}
	return resp.GetValue(), nil
}

func parseOrder(trader core.Trader, side, amount, price string) (core.Order, error) {
	var orderType core.OrderType
	if err := orderType.UnmarshalText([]byte(strings.ToUpper(side))); err != nil {
		return core.Order{}, err
	}
	a, err := strconv.ParseUint(amount, 10, 64)
	if err != nil {
		return core.Order{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	p, err := strconv.ParseUint(price, 10, 64)
	if err != nil {
		return core.Order{}, fmt.Errorf("invalid price %q: %w", price, err)
	}
	return core.NewOrder(trader, orderType, a, p), nil
}

func printOrders(out io.Writer, orders []core.Order) error {
	cyan := color.New(color.FgCyan).SprintfFunc()
	red := color.New(color.FgRed).SprintfFunc()
	green := color.New(color.FgGreen).SprintfFunc()

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', tabwriter.AlignRight)

	fmt.Fprintf(w, "%15s|%15s|%46s|%s\n", cyan("Price"), cyan("Amount"), cyan("Trader"), cyan("Side"))
	fmt.Fprintf(w, "%15s|%15s|%46s|%s\n", "---------------", "---------------", strings.Repeat("-", 46), "----")

	for _, o := range orders {
		side := green(o.Type.String())
		if o.IsSell() {
			side = red(o.Type.String())
		}
		fmt.Fprintf(w, "%15d|%15d|%46s|%s\n", o.Price, o.Amount, o.Trader, side)
	}

	return w.Flush()
}

func printUsage(out io.Writer) {
	fmt.Fprintln(out, "Usage: client [--addr host:port] [--trader base58] <command>")
	fmt.Fprintln(out, "  create-account <account>")
	fmt.Fprintln(out, "  delete-account <account>")
	fmt.Fprintln(out, "  place <account> <buy|sell> <amount> <price>")
	fmt.Fprintln(out, "  best-buy <account>")
	fmt.Fprintln(out, "  best-sell <account>")
	fmt.Fprintln(out, "  get-state <account>")
	fmt.Fprintln(out, "\nExamples:")
	fmt.Fprintln(out, "  create-account mybook")
	fmt.Fprintln(out, "  place default buy 100 500")
	fmt.Fprintln(out, "  best-buy default")
}
