package core

import (
	"context"
	"testing"

	"google.golang.org/grpc"
)

func tagInterceptor(tag string, log *[]string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		*log = append(*log, tag)
		return handler(ctx, req)
	}
}

func TestMiddlewareBuilder_SortsByOrder(t *testing.T) {
	var log []string
	var b MiddlewareBuilder
	b.Add(30, tagInterceptor("third", &log), nil)
	b.Add(10, tagInterceptor("first", &log), nil)
	b.Add(20, tagInterceptor("second", &log), nil)

	unary, stream := b.Build()
	if len(unary) != 3 {
		t.Fatalf("expected 3 unary interceptors, got %d", len(unary))
	}
	if len(stream) != 0 {
		t.Fatalf("expected 0 stream interceptors, got %d", len(stream))
	}

	handler := func(_ context.Context, _ any) (any, error) { return nil, nil }
	for _, ic := range unary {
		_, _ = ic(t.Context(), nil, &grpc.UnaryServerInfo{}, handler)
	}

	want := []string{"first", "second", "third"}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("log[%d] = %q, want %q", i, log[i], want[i])
		}
	}
}

func TestMiddlewareBuilder_SkipsNilSlots(t *testing.T) {
	var b MiddlewareBuilder
	b.Add(10, nil, func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		return handler(srv, ss)
	})

	unary, stream := b.Build()
	if len(unary) != 0 {
		t.Fatalf("expected 0 unary interceptors, got %d", len(unary))
	}
	if len(stream) != 1 {
		t.Fatalf("expected 1 stream interceptor, got %d", len(stream))
	}
}

func TestBuildServerOptions_EmptyChains(t *testing.T) {
	opts := BuildServerOptions(nil, nil,
		func(ics []grpc.UnaryServerInterceptor) grpc.UnaryServerInterceptor { return nil },
		func(ics []grpc.StreamServerInterceptor) grpc.StreamServerInterceptor { return nil },
	)
	if len(opts) != 0 {
		t.Fatalf("expected no server options, got %d", len(opts))
	}
}
