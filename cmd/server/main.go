package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erain9/bookprogram/config"
	"github.com/erain9/bookprogram/pkg/core"
	"github.com/erain9/bookprogram/pkg/logging"
	"github.com/erain9/bookprogram/pkg/otel"
	"github.com/erain9/bookprogram/pkg/program"
	"github.com/erain9/bookprogram/pkg/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

// defaultAccount is created at startup so clients can invoke right away
const defaultAccount = "default"

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := logging.Setup(logging.Config{
		Level:  cfg.Server.LogLevel,
		Pretty: cfg.Server.LogFormat == "pretty",
	})
	ctx := logger.WithContext(context.Background())

	if err := run(ctx, cfg); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := zerolog.Ctx(ctx)

	// Initialize OpenTelemetry
	cleanup, err := otel.Init(otel.Config{
		ServiceName:      otel.ServiceProgram,
		ServiceVersion:   "1.0.0",
		Endpoint:         cfg.Telemetry.Endpoint,
		CollectorEnabled: cfg.Telemetry.Enabled,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	defer cleanup()
	if cfg.Telemetry.Enabled {
		if err := otel.StartRuntimeMetrics(); err != nil {
			logger.Warn().Err(err).Msg("Failed to start runtime metrics")
		}
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}

	var opts []program.Option
	sender, err := newMessageSender(cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("Event publishing disabled")
	} else if sender != nil {
		defer sender.Close()
		opts = append(opts, program.WithMessageSender(sender))
	}

	manager := server.NewAccountManager(store, cfg.Storage.Backend, cfg.Storage.DefaultCapacity, opts...)
	defer manager.Close()

	if _, err := manager.CreateAccount(ctx, defaultAccount); err != nil && !errors.Is(err, core.ErrAccountExists) {
		return fmt.Errorf("failed to create default account: %w", err)
	}

	// The consumer is for developer purpose which helps pretty print the
	// events in the queue.
	if stop := startEventLog(ctx, cfg, *logger); stop != nil {
		defer stop()
	}

	grpcServer := newGRPCServer(manager)
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	go func() {
		logger.Info().Str("addr", cfg.Server.GRPCAddr).Msg("Starting gRPC server")
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error().Err(err).Msg("gRPC server stopped")
		}
	}()

	httpServer := newHTTPServer(ctx, cfg.Server.HTTPAddr, cfg.Server.GRPCAddr, manager)
	go func() {
		logger.Info().Str("addr", cfg.Server.HTTPAddr).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP server stopped")
		}
	}()

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")

	grpcServer.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	logger.Info().Msg("Servers shutdown complete")
	return nil
}

// newGRPCServer creates a gRPC server exposing the program service
func newGRPCServer(manager *server.AccountManager) *grpc.Server {
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otel.NewGRPCStatsHandler()),
		grpc.ChainUnaryInterceptor(logging.UnaryServerInterceptor()),
		grpc.ChainStreamInterceptor(logging.StreamServerInterceptor()),
	)
	server.RegisterProgramService(grpcServer, server.NewGRPCProgramService(manager))

	// Enable reflection for tools like grpcurl
	reflection.Register(grpcServer)
	return grpcServer
}

// newHTTPServer serves a welcome page and a health check
func newHTTPServer(ctx context.Context, httpAddr, grpcAddr string, manager *server.AccountManager) *http.Server {
	logger := zerolog.Ctx(ctx)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := manager.GetState(r.Context(), defaultAccount); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "ok")
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		reqLogger := logger.With().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Logger()

		if r.URL.Path != "/" {
			reqLogger.Debug().Msg("Not found")
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, "<html><body>")
		fmt.Fprintf(w, "<h1>Order Book Program Host</h1>")
		fmt.Fprintf(w, "<p>The gRPC service %s is running on %s</p>", server.ServiceName, grpcAddr)
		fmt.Fprintf(w, "<p>Accounts: %d</p>", len(manager.ListAccounts(r.Context())))
		fmt.Fprintf(w, "</body></html>")
	})

	return &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
