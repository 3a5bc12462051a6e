// Package stash exposes the cache engine as the rawr.Stash gRPC service.
// It uses [grpc.ServiceDesc] registration so that no protobuf code
// generation is required.
//
// Because the request/response types are plain Go structs (not generated
// protobuf messages), the package registers a thin codec wrapper that
// JSON-encodes stash types while delegating all other messages to the
// standard proto codec. Values travel as []byte, which JSON carries as
// base64. Import this package (or call [Register]) to activate the codec
// automatically.
package stash

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	grpcEncoding "google.golang.org/grpc/encoding"
	_ "google.golang.org/grpc/encoding/proto" // ensure default proto codec is registered first
	"google.golang.org/protobuf/proto"
)

// GetRequest asks for the value stored under Key.
type GetRequest struct {
	Key string `json:"key"`
}

// GetResponse carries the lookup outcome. Found is false for both absent and
// expired keys; callers never need to distinguish the two.
type GetResponse struct {
	Found bool   `json:"found"`
	Value []byte `json:"value,omitempty"`
}

// GetMetadataRequest asks for the accounting snapshot of Key.
type GetMetadataRequest struct {
	Key string `json:"key"`
}

// GetMetadataResponse carries a point-in-time snapshot of the entry's
// accounting fields. ExpiresAtUnixMilli is 0 when the entry never expires.
type GetMetadataResponse struct {
	Found              bool  `json:"found"`
	CreatedAtUnixMilli int64 `json:"created_at_unix_milli,omitempty"`
	ExpiresAtUnixMilli int64 `json:"expires_at_unix_milli,omitempty"`
	Hits               int64 `json:"hits,omitempty"`
}

// SetRequest upserts Value under Key. TTLMillis > 0 arms expiration;
// TTLMillis == 0 stores the entry without a deadline.
type SetRequest struct {
	Key       string `json:"key"`
	Value     []byte `json:"value"`
	TTLMillis int64  `json:"ttl_millis,omitempty"`
}

// ValueBytes reports the payload size. It is consumed by the
// payload-cap interceptor when a MaxValueBytes policy is configured.
func (r *SetRequest) ValueBytes() int { return len(r.Value) }

// SetResponse is empty; Set always succeeds once validated.
type SetResponse struct{}

// RemoveRequest deletes the entry under Key.
type RemoveRequest struct {
	Key string `json:"key"`
}

// RemoveResponse reports whether a removal occurred.
type RemoveResponse struct {
	Removed bool `json:"removed"`
}

// ClearRequest removes every current entry.
type ClearRequest struct{}

// ClearResponse is empty.
type ClearResponse struct{}

// CountRequest asks for the number of stored entries.
type CountRequest struct{}

// CountResponse carries the entry count, which may transiently include
// expired-but-unswept entries.
type CountResponse struct {
	Count int64 `json:"count"`
}

// StatsRequest asks for service-level operation counters.
type StatsRequest struct{}

// StatsResponse carries cumulative operation counters since the service
// started, plus the current entry count.
type StatsResponse struct {
	Entries int64  `json:"entries"`
	Gets    uint64 `json:"gets"`
	Hits    uint64 `json:"hits"`
	Sets    uint64 `json:"sets"`
	Removes uint64 `json:"removes"`
	Clears  uint64 `json:"clears"`
}

// stashMsg is a marker interface satisfied by all rawr.Stash message types.
type stashMsg interface {
	isStashMsg()
}

func (*GetRequest) isStashMsg()          {}
func (*GetResponse) isStashMsg()         {}
func (*GetMetadataRequest) isStashMsg()  {}
func (*GetMetadataResponse) isStashMsg() {}
func (*SetRequest) isStashMsg()          {}
func (*SetResponse) isStashMsg()         {}
func (*RemoveRequest) isStashMsg()       {}
func (*RemoveResponse) isStashMsg()      {}
func (*ClearRequest) isStashMsg()        {}
func (*ClearResponse) isStashMsg()       {}
func (*CountRequest) isStashMsg()        {}
func (*CountResponse) isStashMsg()       {}
func (*StatsRequest) isStashMsg()        {}
func (*StatsResponse) isStashMsg()       {}

// Handler is the interface a rawr.Stash service implementation must satisfy.
// The Service type in this package is the canonical implementation.
type Handler interface {
	Get(ctx context.Context, req *GetRequest) (*GetResponse, error)
	GetMetadata(ctx context.Context, req *GetMetadataRequest) (*GetMetadataResponse, error)
	Set(ctx context.Context, req *SetRequest) (*SetResponse, error)
	Remove(ctx context.Context, req *RemoveRequest) (*RemoveResponse, error)
	Clear(ctx context.Context, req *ClearRequest) (*ClearResponse, error)
	Count(ctx context.Context, req *CountRequest) (*CountResponse, error)
	Stats(ctx context.Context, req *StatsRequest) (*StatsResponse, error)
}

// ServiceName is the full gRPC service name.
const ServiceName = "rawr.Stash"

// ServiceDesc is the grpc.ServiceDesc for the rawr.Stash service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Handler)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Get", Handler: getHandler},
		{MethodName: "GetMetadata", Handler: getMetadataHandler},
		{MethodName: "Set", Handler: setHandler},
		{MethodName: "Remove", Handler: removeHandler},
		{MethodName: "Clear", Handler: clearHandler},
		{MethodName: "Count", Handler: countHandler},
		{MethodName: "Stats", Handler: statsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "rawr/stash.proto",
}

func getHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(GetRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Handler).Get(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Get"}
	return interceptor(ctx, req, info, func(ctx context.Context, r any) (any, error) {
		return srv.(Handler).Get(ctx, r.(*GetRequest))
	})
}

func getMetadataHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(GetMetadataRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Handler).GetMetadata(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/GetMetadata"}
	return interceptor(ctx, req, info, func(ctx context.Context, r any) (any, error) {
		return srv.(Handler).GetMetadata(ctx, r.(*GetMetadataRequest))
	})
}

func setHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(SetRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Handler).Set(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Set"}
	return interceptor(ctx, req, info, func(ctx context.Context, r any) (any, error) {
		return srv.(Handler).Set(ctx, r.(*SetRequest))
	})
}

func removeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(RemoveRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Handler).Remove(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Remove"}
	return interceptor(ctx, req, info, func(ctx context.Context, r any) (any, error) {
		return srv.(Handler).Remove(ctx, r.(*RemoveRequest))
	})
}

func clearHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(ClearRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Handler).Clear(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Clear"}
	return interceptor(ctx, req, info, func(ctx context.Context, r any) (any, error) {
		return srv.(Handler).Clear(ctx, r.(*ClearRequest))
	})
}

func countHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(CountRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Handler).Count(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Count"}
	return interceptor(ctx, req, info, func(ctx context.Context, r any) (any, error) {
		return srv.(Handler).Count(ctx, r.(*CountRequest))
	})
}

func statsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(StatsRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Handler).Stats(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/Stats"}
	return interceptor(ctx, req, info, func(ctx context.Context, r any) (any, error) {
		return srv.(Handler).Stats(ctx, r.(*StatsRequest))
	})
}

// Register registers a rawr.Stash implementation on the given gRPC server.
func Register(s *grpc.Server, h Handler) {
	s.RegisterService(&ServiceDesc, h)
}

// ---------- codec wrapper ----------

func init() {
	// Replace the default proto codec with a thin wrapper that JSON-encodes
	// stash types and delegates all other messages, including the standard
	// gRPC health service, to proto.Marshal.
	grpcEncoding.RegisterCodec(stashCodec{})
}

// stashCodec handles rawr.Stash messages via JSON and delegates everything
// else to the standard proto codec behavior.
type stashCodec struct{}

func (stashCodec) Name() string { return "proto" }

func (stashCodec) Marshal(v any) ([]byte, error) {
	if _, ok := v.(stashMsg); ok {
		return json.Marshal(v)
	}
	if m, ok := v.(proto.Message); ok {
		return proto.Marshal(m)
	}
	return nil, fmt.Errorf("stash codec: unsupported message type %T", v)
}

func (stashCodec) Unmarshal(data []byte, v any) error {
	if _, ok := v.(stashMsg); ok {
		return json.Unmarshal(data, v)
	}
	if m, ok := v.(proto.Message); ok {
		return proto.Unmarshal(data, m)
	}
	return fmt.Errorf("stash codec: unsupported message type %T", v)
}
