package gorawrstash

import (
	"net"
	"net/http"

	"github.com/Keksclan/goRawrStash/cache"
	"github.com/Keksclan/goRawrStash/engine"
	"github.com/Keksclan/goRawrStash/interceptors"
	"github.com/Keksclan/goRawrStash/internal/core"
	"github.com/Keksclan/goRawrStash/metrics"
	"github.com/Keksclan/goRawrStash/stash"
	"github.com/Keksclan/goRawrStash/tracing"
	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Server bundles the cache engine, the rawr.Stash gRPC service, the standard
// health service, and the configured middleware into one unit.
//
// The underlying gRPC server is available through [Server.GRPC] so additional
// services can be registered before calling Serve:
//
//	srv := gorawrstash.NewServer(gorawrstash.DefaultOptions()...)
//	pb.RegisterMyServiceServer(srv.GRPC(), &myImpl{})
type Server struct {
	grpcServer *grpc.Server
	eng        *engine.Cache
	svc        *stash.Service
	health     *health.Server
	cacheView  cache.Cache
	registry   handlerRegistry
}

// handlerRegistry keeps what MetricsHandler needs from the config.
type handlerRegistry struct {
	custom http.Handler
}

// NewServer creates a Server by applying the supplied functional [Option]
// values. Middleware execution order is determined by fixed priority levels,
// not by the order options are passed: recovery runs outermost, then request
// ID, tracing, rate limiting, payload caps, authentication, and finally any
// custom interceptors.
func NewServer(opts ...Option) *Server {
	var cfg config
	for _, o := range opts {
		o(&cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = log.Log
	}

	engineOpts := cfg.engineOpts
	if cfg.registry != nil {
		engineOpts = append(engineOpts, engine.WithObserver(metrics.NewObserver(cfg.registry)))
	}
	eng := engine.New(engineOpts...)
	if cfg.registry != nil {
		metrics.RegisterEntriesGauge(cfg.registry, eng)
	}

	var mw core.MiddlewareBuilder
	if cfg.enableRecovery {
		mw.Add(priorityRecovery, interceptors.RecoveryUnary(logger), interceptors.RecoveryStream(logger))
	}
	if cfg.enableRequestID {
		mw.Add(priorityRequestID, interceptors.RequestIDUnary(), interceptors.RequestIDStream())
	}
	if cfg.tracingCfg != nil {
		mw.Add(priorityTracing, tracing.UnaryServerInterceptor(cfg.tracingCfg), tracing.StreamServerInterceptor(cfg.tracingCfg))
	}
	if cfg.globalLimiter != nil || cfg.policies != nil {
		mw.Add(priorityRateLimit,
			interceptors.RateLimitUnary(cfg.globalLimiter, cfg.policies),
			interceptors.RateLimitStream(cfg.globalLimiter, cfg.policies))
	}
	if cfg.policies != nil {
		mw.Add(priorityMaxBytes, interceptors.MaxValueBytesUnary(cfg.policies), nil)
	}
	if cfg.authFn != nil {
		mw.Add(priorityAuth,
			interceptors.AuthUnary(cfg.authFn, cfg.policies),
			interceptors.AuthStream(cfg.authFn, cfg.policies))
	}
	for _, i := range cfg.extraUnary {
		mw.Add(priorityCustom, i, nil)
	}
	for _, i := range cfg.extraStream {
		mw.Add(priorityCustom, nil, i)
	}

	unary, stream := mw.Build()
	serverOpts := core.BuildServerOptions(unary, stream, interceptors.ChainUnary, interceptors.ChainStream)
	grpcServer := grpc.NewServer(serverOpts...)

	svc := stash.NewService(eng, logger)
	stash.Register(grpcServer, svc)

	hs := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, hs)
	hs.SetServingStatus(stash.ServiceName, healthpb.HealthCheckResponse_SERVING)

	local := cache.NewLocal(eng)
	var view cache.Cache = local
	if cfg.l2 != nil {
		view = cache.NewTiered(local, cfg.l2)
	}

	var reg handlerRegistry
	if cfg.registry != nil {
		reg.custom = promhttp.HandlerFor(cfg.registry, promhttp.HandlerOpts{})
	}

	return &Server{
		grpcServer: grpcServer,
		eng:        eng,
		svc:        svc,
		health:     hs,
		cacheView:  view,
		registry:   reg,
	}
}

// GRPC returns the underlying *grpc.Server so callers can register services.
func (s *Server) GRPC() *grpc.Server {
	return s.grpcServer
}

// Engine returns the cache engine serving the rawr.Stash service.
func (s *Server) Engine() *engine.Cache {
	return s.eng
}

// Cache returns the in-process cache facade. With WithCacheL2 configured it
// is a tiered local+Redis cache, otherwise a plain local view of the engine.
func (s *Server) Cache() cache.Cache {
	return s.cacheView
}

// Serve accepts connections on lis until GracefulStop or Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

// GracefulStop drains in-flight RPCs, marks the service as not serving, and
// shuts down the cache engine (stopping the background sweeper).
func (s *Server) GracefulStop() {
	s.health.SetServingStatus(stash.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	s.grpcServer.GracefulStop()
	_ = s.eng.Close()
}

// Stop shuts the server down immediately.
func (s *Server) Stop() {
	s.grpcServer.Stop()
	_ = s.eng.Close()
}

// MetricsHandler returns an http.Handler that serves Prometheus metrics.
// When WithMetrics supplied a registry, that registry is served; otherwise
// the default gatherer.
func (s *Server) MetricsHandler() http.Handler {
	if s.registry.custom != nil {
		return s.registry.custom
	}
	return promhttp.Handler()
}
