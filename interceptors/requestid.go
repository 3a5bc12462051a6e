package interceptors

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"github.com/Keksclan/goRawrStash/contextx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// requestIDHeader is the metadata key used to accept and echo request IDs.
const requestIDHeader = "x-request-id"

// newRequestID generates a random hex-encoded request identifier.
func newRequestID() string {
	var buf [16]byte
	_, _ = rand.Read(buf[:])
	return hex.EncodeToString(buf[:])
}

// ensureRequestID returns the context enriched with a request ID. An ID
// supplied by the client via x-request-id metadata is honored; otherwise a
// fresh one is generated.
func ensureRequestID(ctx context.Context) context.Context {
	if contextx.RequestIDFromContext(ctx) != "" {
		return ctx
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get(requestIDHeader); len(vals) > 0 && vals[0] != "" {
			return contextx.WithRequestID(ctx, vals[0])
		}
	}
	return contextx.WithRequestID(ctx, newRequestID())
}

// RequestIDUnary returns a unary server interceptor that ensures a request ID
// is present in the context and echoes it back in the response headers.
func RequestIDUnary() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		ctx = ensureRequestID(ctx)
		id := contextx.RequestIDFromContext(ctx)
		_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDHeader, id))
		return handler(ctx, req)
	}
}

// RequestIDStream returns a stream server interceptor that ensures a request ID
// is present in the context.
func RequestIDStream() grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		ctx := ensureRequestID(ss.Context())
		return handler(srv, &requestIDStream{ServerStream: ss, ctx: ctx})
	}
}

type requestIDStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *requestIDStream) Context() context.Context { return s.ctx }
