package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "x-request-id"

type requestIDKey struct{}

// RequestID returns the id assigned by the logging interceptor, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// requestID reuses the caller's x-request-id or mints a new one, stores it in
// ctx and echoes it back in the response header.
func requestID(ctx context.Context) (context.Context, string) {
	id := ""
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(RequestIDHeader); len(v) > 0 {
			id = v[0]
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDHeader, id))
	return context.WithValue(ctx, requestIDKey{}, id), id
}

// LoggingUnaryInterceptor logs one line per call with its status code and duration.
func LoggingUnaryInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		ctx, id := requestID(ctx)

		resp, err := handler(ctx, req)

		logCall(ctx, logger, info.FullMethod, id, start, err)
		return resp, err
	}
}

// LoggingStreamInterceptor is the stream equivalent of LoggingUnaryInterceptor.
func LoggingStreamInterceptor(logger *slog.Logger) grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()
		ctx, id := requestID(ss.Context())

		err := handler(srv, WrapServerStream(ss, ctx))

		logCall(ctx, logger, info.FullMethod, id, start, err)
		return err
	}
}

func logCall(ctx context.Context, logger *slog.Logger, method, id string, start time.Time, err error) {
	code := status.Code(err)
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelWarn
	}
	logger.Log(ctx, level, "rpc",
		"method", method,
		"code", code.String(),
		"duration", time.Since(start),
		"request_id", id,
	)
}

// wrappedStream overrides Context() on a grpc.ServerStream.
type wrappedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w wrappedStream) Context() context.Context { return w.ctx }

// WrapServerStream returns ss with its context replaced by ctx.
func WrapServerStream(ss grpc.ServerStream, ctx context.Context) grpc.ServerStream {
	return wrappedStream{ServerStream: ss, ctx: ctx}
}
