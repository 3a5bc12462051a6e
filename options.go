package gorawrstash

import (
	"time"

	"github.com/Keksclan/goRawrStash/auth"
	"github.com/Keksclan/goRawrStash/cache"
	"github.com/Keksclan/goRawrStash/engine"
	"github.com/Keksclan/goRawrStash/policy"
	"github.com/Keksclan/goRawrStash/ratelimit"
	"github.com/Keksclan/goRawrStash/tracing"
	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
)

// Option configures a Server.
type Option func(*config)

// WithLogger sets the logger used by the stash service and the recovery
// interceptor. Defaults to the apex/log package logger.
func WithLogger(logger log.Interface) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithRecovery installs panic-recovery interceptors so that a panic inside a
// handler returns codes.Internal instead of crashing the process.
func WithRecovery() Option {
	return func(c *config) {
		c.enableRecovery = true
	}
}

// WithRequestID installs the request-ID interceptor, which honors an incoming
// x-request-id header and generates one otherwise.
func WithRequestID() Option {
	return func(c *config) {
		c.enableRequestID = true
	}
}

// WithOpenTelemetry installs tracing interceptors backed by the supplied
// configuration. A nil cfg uses the global tracer provider and propagators.
func WithOpenTelemetry(cfg *tracing.Config) Option {
	return func(c *config) {
		if cfg == nil {
			cfg = &tracing.Config{}
		}
		c.tracingCfg = cfg
	}
}

// WithRateLimitGlobal installs a server-wide token-bucket rate limiter
// permitting rps requests per second with the given burst.
func WithRateLimitGlobal(rps float64, burst int) Option {
	return func(c *config) {
		c.globalLimiter = ratelimit.NewLimiter(rps, burst)
	}
}

// WithPolicies attaches method-group policies. Policies drive per-group rate
// limits, payload size caps, and selective authentication.
func WithPolicies(groups ...*policy.GroupBuilder) Option {
	return func(c *config) {
		c.policies = policy.NewResolver(groups...)
	}
}

// WithAuth installs the authentication interceptor backed by fn. Combined
// with WithPolicies, only methods whose policy sets AuthRequired are gated;
// without policies every method requires authentication.
func WithAuth(fn auth.AuthFunc) Option {
	return func(c *config) {
		c.authFn = fn
	}
}

// WithUnaryInterceptor appends a custom unary interceptor. Custom
// interceptors run after the built-in middleware.
func WithUnaryInterceptor(i grpc.UnaryServerInterceptor) Option {
	return func(c *config) {
		c.extraUnary = append(c.extraUnary, i)
	}
}

// WithStreamInterceptor appends a custom stream interceptor.
func WithStreamInterceptor(i grpc.StreamServerInterceptor) Option {
	return func(c *config) {
		c.extraStream = append(c.extraStream, i)
	}
}

// WithSweepInterval sets how often the cache engine scans for expired
// entries. Non-positive values disable the background sweeper.
func WithSweepInterval(d time.Duration) Option {
	return func(c *config) {
		c.engineOpts = append(c.engineOpts, engine.WithSweepInterval(d))
	}
}

// WithEngineOptions passes additional options straight to the cache engine.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(c *config) {
		c.engineOpts = append(c.engineOpts, opts...)
	}
}

// WithMetrics registers cache counters and the entries gauge with reg, and
// makes MetricsHandler serve that registry.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(c *config) {
		c.registry = reg
	}
}

// WithCacheL2 mirrors the cache into a Redis instance. The Server's Cache()
// facade becomes a tiered local+Redis cache; the gRPC service continues to
// serve the local engine.
func WithCacheL2(addr, password string, db int) Option {
	return func(c *config) {
		c.l2 = cache.NewL2(addr, password, db)
	}
}
