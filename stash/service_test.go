package stash

import (
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Keksclan/goRawrStash/engine"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	eng := engine.New(engine.WithSweepInterval(0))
	t.Cleanup(func() { _ = eng.Close() })
	return NewService(eng, nil)
}

func TestServiceSetGetRoundTrip(t *testing.T) {
	s := newTestService(t)
	ctx := t.Context()

	if _, err := s.Set(ctx, &SetRequest{Key: "k", Value: []byte("v")}); err != nil {
		t.Fatalf("Set: %v", err)
	}

	resp, err := s.Get(ctx, &GetRequest{Key: "k"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !resp.Found || string(resp.Value) != "v" {
		t.Fatalf("Get = %q, found=%v", resp.Value, resp.Found)
	}
}

func TestServiceRejectsEmptyKey(t *testing.T) {
	s := newTestService(t)
	ctx := t.Context()

	calls := []func() error{
		func() error { _, err := s.Get(ctx, &GetRequest{}); return err },
		func() error { _, err := s.GetMetadata(ctx, &GetMetadataRequest{}); return err },
		func() error { _, err := s.Set(ctx, &SetRequest{Value: []byte("v")}); return err },
		func() error { _, err := s.Remove(ctx, &RemoveRequest{}); return err },
	}
	for i, call := range calls {
		err := call()
		if st, ok := status.FromError(err); !ok || st.Code() != codes.InvalidArgument {
			t.Fatalf("call %d: expected InvalidArgument, got %v", i, err)
		}
	}
}

func TestServiceRejectsNegativeTTL(t *testing.T) {
	s := newTestService(t)

	_, err := s.Set(t.Context(), &SetRequest{Key: "k", Value: []byte("v"), TTLMillis: -1})
	if st, ok := status.FromError(err); !ok || st.Code() != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestServiceTTLExpiry(t *testing.T) {
	s := newTestService(t)
	ctx := t.Context()

	_, _ = s.Set(ctx, &SetRequest{Key: "k", Value: []byte("v"), TTLMillis: 30})
	time.Sleep(60 * time.Millisecond)

	resp, err := s.Get(ctx, &GetRequest{Key: "k"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.Found {
		t.Fatal("expected miss after TTL")
	}

	md, err := s.GetMetadata(ctx, &GetMetadataRequest{Key: "k"})
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if md.Found {
		t.Fatal("expected metadata miss after TTL")
	}
}

func TestServiceMetadataAccounting(t *testing.T) {
	s := newTestService(t)
	ctx := t.Context()

	_, _ = s.Set(ctx, &SetRequest{Key: "k", Value: []byte("v"), TTLMillis: 60_000})

	md, _ := s.GetMetadata(ctx, &GetMetadataRequest{Key: "k"})
	if !md.Found {
		t.Fatal("expected metadata hit")
	}
	if md.Hits != 0 {
		t.Fatalf("fresh entry Hits = %d", md.Hits)
	}
	if md.ExpiresAtUnixMilli == 0 {
		t.Fatal("expected an expiration deadline")
	}
	if md.ExpiresAtUnixMilli < md.CreatedAtUnixMilli {
		t.Fatalf("expires %d before created %d", md.ExpiresAtUnixMilli, md.CreatedAtUnixMilli)
	}

	// A Get counts a hit; GetMetadata does not.
	_, _ = s.Get(ctx, &GetRequest{Key: "k"})
	md, _ = s.GetMetadata(ctx, &GetMetadataRequest{Key: "k"})
	if md.Hits != 1 {
		t.Fatalf("Hits = %d after one Get, want 1", md.Hits)
	}
}

func TestServiceRemoveAndClear(t *testing.T) {
	s := newTestService(t)
	ctx := t.Context()

	_, _ = s.Set(ctx, &SetRequest{Key: "a", Value: []byte("1")})
	_, _ = s.Set(ctx, &SetRequest{Key: "b", Value: []byte("2")})

	rm, _ := s.Remove(ctx, &RemoveRequest{Key: "a"})
	if !rm.Removed {
		t.Fatal("Remove of existing key reported false")
	}
	rm, _ = s.Remove(ctx, &RemoveRequest{Key: "a"})
	if rm.Removed {
		t.Fatal("second Remove reported true")
	}

	_, _ = s.Clear(ctx, &ClearRequest{})
	cnt, _ := s.Count(ctx, &CountRequest{})
	if cnt.Count != 0 {
		t.Fatalf("Count = %d after Clear", cnt.Count)
	}
}

func TestServiceStats(t *testing.T) {
	s := newTestService(t)
	ctx := t.Context()

	_, _ = s.Set(ctx, &SetRequest{Key: "k", Value: []byte("v")})
	_, _ = s.Get(ctx, &GetRequest{Key: "k"})      // hit
	_, _ = s.Get(ctx, &GetRequest{Key: "absent"}) // miss

	st, err := s.Stats(ctx, &StatsRequest{})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Sets != 1 || st.Gets != 2 || st.Hits != 1 {
		t.Fatalf("stats = %+v", st)
	}
	if st.Entries != 1 {
		t.Fatalf("Entries = %d, want 1", st.Entries)
	}
}
