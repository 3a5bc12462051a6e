package client_test

import (
	"errors"
	"net"
	"testing"
	"time"

	gorawrstash "github.com/Keksclan/goRawrStash"
	"github.com/Keksclan/goRawrStash/breaker"
	"github.com/Keksclan/goRawrStash/client"
	"github.com/Keksclan/goRawrStash/retry"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// startServer boots a stash server on loopback and returns a connection.
func startServer(t *testing.T, opts ...gorawrstash.Option) *grpc.ClientConn {
	t.Helper()

	srv := gorawrstash.NewServer(opts...)
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestClient_RoundTrip(t *testing.T) {
	c := client.New(startServer(t))

	if err := c.Set(t.Context(), "acorn", []byte("buried"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}

	val, found, err := c.Get(t.Context(), "acorn")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !found {
		t.Fatal("expected hit")
	}
	if string(val) != "buried" {
		t.Fatalf("got %q, want %q", val, "buried")
	}

	removed, err := c.Remove(t.Context(), "acorn")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !removed {
		t.Fatal("expected removal of existing key")
	}

	_, found, err = c.Get(t.Context(), "acorn")
	if err != nil {
		t.Fatalf("get after remove: %v", err)
	}
	if found {
		t.Fatal("expected miss after remove")
	}
}

func TestClient_MetadataAndCount(t *testing.T) {
	c := client.New(startServer(t))

	if err := c.Set(t.Context(), "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, _, err := c.Get(t.Context(), "k"); err != nil {
		t.Fatalf("get: %v", err)
	}

	md, err := c.GetMetadata(t.Context(), "k")
	if err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if !md.Found {
		t.Fatal("expected metadata for live entry")
	}
	if md.Hits != 1 {
		t.Fatalf("hits: got %d, want 1", md.Hits)
	}
	if md.ExpiresAtUnixMilli <= md.CreatedAtUnixMilli {
		t.Fatalf("expiry %d not after creation %d", md.ExpiresAtUnixMilli, md.CreatedAtUnixMilli)
	}

	n, err := c.Count(t.Context())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("count: got %d, want 1", n)
	}

	if err := c.Clear(t.Context()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	n, err = c.Count(t.Context())
	if err != nil {
		t.Fatalf("count after clear: %v", err)
	}
	if n != 0 {
		t.Fatalf("count after clear: got %d, want 0", n)
	}
}

func TestClient_Stats(t *testing.T) {
	c := client.New(startServer(t))

	if err := c.Set(t.Context(), "k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, _, err := c.Get(t.Context(), "k"); err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, _, err := c.Get(t.Context(), "missing"); err != nil {
		t.Fatalf("get: %v", err)
	}

	stats, err := c.Stats(t.Context())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Sets != 1 {
		t.Fatalf("sets: got %d, want 1", stats.Sets)
	}
	if stats.Gets != 2 {
		t.Fatalf("gets: got %d, want 2", stats.Gets)
	}
	if stats.Hits != 1 {
		t.Fatalf("hits: got %d, want 1", stats.Hits)
	}
	if stats.Entries != 1 {
		t.Fatalf("entries: got %d, want 1", stats.Entries)
	}
}

func TestClient_BreakerFailsFast(t *testing.T) {
	// Point at a port with nothing listening.
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := lis.Addr().String()
	_ = lis.Close()

	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	c := client.New(conn, client.WithBreaker(breaker.Config{
		FailureThreshold:   2,
		OpenTimeout:        time.Minute,
		HalfOpenMaxSuccess: 1,
	}))

	for range 2 {
		if _, _, err := c.Get(t.Context(), "k"); err == nil {
			t.Fatal("expected transport error against dead server")
		}
	}

	// Breaker is open now; the next call must not touch the transport.
	_, _, err = c.Get(t.Context(), "k")
	if !errors.Is(err, breaker.ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}
}

func TestClient_RetryRecoversTransientFailure(t *testing.T) {
	c := client.New(startServer(t), client.WithRetry(retry.DefaultConfig()))

	// A healthy server exercises the single-attempt fast path.
	if err := c.Set(t.Context(), "k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	if _, found, err := c.Get(t.Context(), "k"); err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
}
