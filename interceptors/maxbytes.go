package interceptors

import (
	"context"
	"fmt"

	"github.com/Keksclan/goRawrStash/policy"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// payloadSizer is implemented by request messages that carry a binary value
// whose size can be capped, such as the stash Set request.
type payloadSizer interface {
	ValueBytes() int
}

// MaxValueBytesUnary returns a unary server interceptor that rejects write
// requests whose payload exceeds the MaxValueBytes of the matched policy
// group. Methods without a matching policy, or requests that carry no
// payload, pass through untouched.
func MaxValueBytesUnary(r *policy.Resolver) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if r == nil {
			return handler(ctx, req)
		}
		sized, ok := req.(payloadSizer)
		if !ok {
			return handler(ctx, req)
		}
		_, pol, matched := r.Resolve(info.FullMethod)
		if !matched || pol == nil || pol.MaxValueBytes <= 0 {
			return handler(ctx, req)
		}
		if n := int64(sized.ValueBytes()); n > pol.MaxValueBytes {
			return nil, status.Error(codes.ResourceExhausted,
				fmt.Sprintf("value size %d exceeds limit %d", n, pol.MaxValueBytes))
		}
		return handler(ctx, req)
	}
}
