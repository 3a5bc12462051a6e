package gorawrstash

import (
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

// Middleware priority levels. Lower values run earlier in the interceptor
// chain. Recovery runs outermost so it catches panics from everything below.
const (
	priorityRecovery  = 10
	priorityRequestID = 20
	priorityTracing   = 30
	priorityRateLimit = 40
	priorityMaxBytes  = 50
	priorityAuth      = 60
	priorityCustom    = 100
)

// config holds the internal configuration assembled via functional options.
type config struct {
	logger log.Interface

	enableRecovery  bool
	enableRequestID bool

	tracingCfg    *tracing.Config
	globalLimiter *ratelimit.Limiter
	policies      *policy.Resolver
	authFn        auth.AuthFunc

	extraUnary  []grpc.UnaryServerInterceptor
	extraStream []grpc.StreamServerInterceptor

	engineOpts []engine.Option
	registry   *prometheus.Registry

	l2 *cache.L2
}
