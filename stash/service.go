package stash

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/apex/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Keksclan/goRawrStash/engine"
)

// Sentinel status errors, allocated once to avoid per-request allocations on
// the hot path.
var (
	errEmptyKey    = status.Error(codes.InvalidArgument, "key must not be empty")
	errNegativeTTL = status.Error(codes.InvalidArgument, "ttl_millis must not be negative")
)

// Service is the canonical rawr.Stash implementation: it validates requests,
// drives the cache engine, logs each operation, and annotates the active
// trace span with the cache outcome.
//
// Validation note: the engine itself accepts any key; the non-empty-key rule
// is enforced here, at the trust boundary.
type Service struct {
	eng *engine.Cache
	log log.Interface

	gets    atomic.Uint64
	hits    atomic.Uint64
	sets    atomic.Uint64
	removes atomic.Uint64
	clears  atomic.Uint64
}

var _ Handler = (*Service)(nil)

// NewService creates a Service over eng. logger may be nil, in which case
// the apex/log default logger is used.
func NewService(eng *engine.Cache, logger log.Interface) *Service {
	if logger == nil {
		logger = log.Log
	}
	return &Service{eng: eng, log: logger}
}

// Get looks up a key. Absent and expired keys both yield Found=false.
func (s *Service) Get(ctx context.Context, req *GetRequest) (*GetResponse, error) {
	if req.Key == "" {
		return nil, errEmptyKey
	}
	start := time.Now()
	s.gets.Add(1)

	val, found := s.eng.TryGet(req.Key)
	if found {
		s.hits.Add(1)
	}
	annotate(ctx, "get", found)

	s.log.WithFields(log.Fields{
		"op":       "get",
		"key":      req.Key,
		"hit":      found,
		"duration": time.Since(start),
	}).Debug("cache get")

	return &GetResponse{Found: found, Value: val}, nil
}

// GetMetadata returns the accounting snapshot for a key without counting a
// hit against it.
func (s *Service) GetMetadata(ctx context.Context, req *GetMetadataRequest) (*GetMetadataResponse, error) {
	if req.Key == "" {
		return nil, errEmptyKey
	}

	md, found := s.eng.TryGetMetadata(req.Key)
	annotate(ctx, "get_metadata", found)
	if !found {
		return &GetMetadataResponse{}, nil
	}

	resp := &GetMetadataResponse{
		Found:              true,
		CreatedAtUnixMilli: md.CreatedAt.UnixMilli(),
		Hits:               md.Hits,
	}
	if md.HasTTL() {
		resp.ExpiresAtUnixMilli = md.ExpiresAt.UnixMilli()
	}
	return resp, nil
}

// Set upserts a value. A TTLMillis of 0 stores the entry without a deadline.
func (s *Service) Set(ctx context.Context, req *SetRequest) (*SetResponse, error) {
	if req.Key == "" {
		return nil, errEmptyKey
	}
	if req.TTLMillis < 0 {
		return nil, errNegativeTTL
	}
	start := time.Now()
	s.sets.Add(1)

	s.eng.Set(req.Key, req.Value, time.Duration(req.TTLMillis)*time.Millisecond)
	annotate(ctx, "set", true)

	s.log.WithFields(log.Fields{
		"op":       "set",
		"key":      req.Key,
		"bytes":    len(req.Value),
		"ttl_ms":   req.TTLMillis,
		"duration": time.Since(start),
	}).Debug("cache set")

	return &SetResponse{}, nil
}

// Remove deletes a key, reporting whether a removal occurred.
func (s *Service) Remove(ctx context.Context, req *RemoveRequest) (*RemoveResponse, error) {
	if req.Key == "" {
		return nil, errEmptyKey
	}
	s.removes.Add(1)

	removed := s.eng.Remove(req.Key)
	annotate(ctx, "remove", removed)

	s.log.WithFields(log.Fields{
		"op":      "remove",
		"key":     req.Key,
		"removed": removed,
	}).Debug("cache remove")

	return &RemoveResponse{Removed: removed}, nil
}

// Clear drops every current entry.
func (s *Service) Clear(ctx context.Context, _ *ClearRequest) (*ClearResponse, error) {
	start := time.Now()
	s.clears.Add(1)

	before := s.eng.Count()
	s.eng.Clear()
	annotate(ctx, "clear", true)

	s.log.WithFields(log.Fields{
		"op":       "clear",
		"dropped":  before,
		"duration": time.Since(start),
	}).Info("cache cleared")

	return &ClearResponse{}, nil
}

// Count reports the number of stored entries.
func (s *Service) Count(_ context.Context, _ *CountRequest) (*CountResponse, error) {
	return &CountResponse{Count: s.eng.Count()}, nil
}

// Stats reports cumulative operation counters since the service started.
func (s *Service) Stats(_ context.Context, _ *StatsRequest) (*StatsResponse, error) {
	return &StatsResponse{
		Entries: s.eng.Count(),
		Gets:    s.gets.Load(),
		Hits:    s.hits.Load(),
		Sets:    s.sets.Load(),
		Removes: s.removes.Load(),
		Clears:  s.clears.Load(),
	}, nil
}

// annotate attaches the cache outcome to the active span, if any. With no
// tracing interceptor installed the span is a no-op and this costs nothing.
func annotate(ctx context.Context, op string, hit bool) {
	span := trace.SpanFromContext(ctx)
	span.SetAttributes(
		attribute.String("cache.operation", op),
		attribute.Bool("cache.hit", hit),
	)
}
