package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type contextKey string

const (
	// RequestIDKey is the key used to store request IDs in context
	RequestIDKey contextKey = "request_id"
	// AccountKey is the key used to store the target account in context
	AccountKey contextKey = "account"
)

// Metadata keys read from incoming gRPC calls
const (
	MetadataRequestID = "x-request-id"
	MetadataAccount   = "x-account"
	MetadataSigner    = "x-signer"
)

// Config defines logging configuration
type Config struct {
	// Level is the logging level (debug, info, warn, error)
	Level string
	// Pretty determines if logs should be formatted for human readability
	Pretty bool
	// Output is where logs are written (defaults to os.Stdout)
	Output io.Writer
}

// DefaultConfig returns the default logging configuration
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Pretty: false,
		Output: os.Stdout,
	}
}

// Setup configures global logging based on the provided config
func Setup(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
	return log.Logger
}

// WithRequestID stores a request id in ctx
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithAccount stores the target account in ctx
func WithAccount(ctx context.Context, account string) context.Context {
	return context.WithValue(ctx, AccountKey, account)
}

// FromContext returns a logger carrying the request id and account found in
// ctx. A logger attached with zerolog's WithContext takes precedence over the
// global one.
func FromContext(ctx context.Context) zerolog.Logger {
	base := log.Logger
	if l := zerolog.Ctx(ctx); l != nil && l != zerolog.DefaultContextLogger && l.GetLevel() != zerolog.Disabled {
		base = *l
	}

	logCtx := base.With()
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
		logCtx = logCtx.Str("request_id", requestID)
	}
	if account, ok := ctx.Value(AccountKey).(string); ok && account != "" {
		logCtx = logCtx.Str("account", account)
	}
	return logCtx.Logger()
}

// UnaryServerInterceptor returns a gRPC interceptor for request logging
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		ctx = contextFromMetadata(ctx)

		logger := FromContext(ctx).With().
			Str("grpc.method", info.FullMethod).
			Logger()

		logger.Debug().Msg("Request received")

		resp, err := handler(ctx, req)

		logCompletion(logger, err, time.Since(start), "Request completed")
		return resp, err
	}
}

// StreamServerInterceptor returns a gRPC interceptor for streaming request logging
func StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		stream grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		start := time.Now()

		wrappedStream := &wrappedServerStream{
			ServerStream: stream,
			ctx:          contextFromMetadata(stream.Context()),
		}

		logger := FromContext(wrappedStream.ctx).With().
			Str("grpc.method", info.FullMethod).
			Bool("grpc.stream", true).
			Logger()

		logger.Debug().Msg("Stream started")

		err := handler(srv, wrappedStream)

		logCompletion(logger, err, time.Since(start), "Stream completed")
		return err
	}
}

// contextFromMetadata copies request id and account from incoming metadata
func contextFromMetadata(ctx context.Context) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx
	}
	if ids := md.Get(MetadataRequestID); len(ids) > 0 {
		ctx = WithRequestID(ctx, ids[0])
	}
	if accounts := md.Get(MetadataAccount); len(accounts) > 0 {
		ctx = WithAccount(ctx, accounts[0])
	}
	return ctx
}

func logCompletion(logger zerolog.Logger, err error, duration time.Duration, msg string) {
	statusCode := codes.OK
	if err != nil {
		if st, ok := status.FromError(err); ok {
			statusCode = st.Code()
		} else {
			statusCode = codes.Unknown
		}
	}

	// client side rejections are expected outcomes of the program
	logEvent := logger.Info()
	switch statusCode {
	case codes.OK:
	case codes.Internal, codes.Unknown, codes.Unavailable, codes.DataLoss:
		logEvent = logger.Error().Err(err).Str("grpc.code", statusCode.String())
	default:
		logEvent = logger.Warn().Err(err).Str("grpc.code", statusCode.String())
	}

	logEvent.Dur("duration", duration).
		Int("grpc.status", int(statusCode)).
		Msg(msg)
}

// wrappedServerStream wraps a grpc.ServerStream with a modified context
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the wrapper's modified context
func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
