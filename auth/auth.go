// Package auth provides the authentication function type used by the
// optional authentication middleware.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/Keksclan/goRawrStash/contextx"
	"google.golang.org/grpc/metadata"
)

var (
	// ErrNoToken is returned when a request carries no authorization metadata.
	ErrNoToken = errors.New("auth: no authorization token")
	// ErrUnknownToken is returned when the presented token is not recognized.
	ErrUnknownToken = errors.New("auth: unknown token")
)

// AuthFunc is a user-supplied callback that authenticates a gRPC request.
// It receives the request context, the full method name, and the incoming
// metadata.  On success it returns a (possibly enriched) context; on failure
// it returns an error.
//
// The library does NOT parse tokens — that is the responsibility of the
// AuthFunc implementation.
type AuthFunc func(ctx context.Context, fullMethod string, md metadata.MD) (context.Context, error)

// StaticBearer builds an AuthFunc backed by a fixed token table. The incoming
// "authorization" metadata value, with an optional "Bearer " prefix stripped,
// is looked up in tokens; a hit stores the mapped Actor in the context.
//
// Intended for tests and small single-tenant deployments. Anything beyond
// that should supply its own AuthFunc.
func StaticBearer(tokens map[string]contextx.Actor) AuthFunc {
	return func(ctx context.Context, _ string, md metadata.MD) (context.Context, error) {
		vals := md.Get("authorization")
		if len(vals) == 0 {
			return ctx, ErrNoToken
		}
		token := strings.TrimPrefix(vals[0], "Bearer ")
		actor, ok := tokens[token]
		if !ok {
			return ctx, ErrUnknownToken
		}
		return contextx.WithActor(ctx, actor), nil
	}
}
