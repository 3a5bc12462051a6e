// Package metrics exposes the cache engine's lifecycle events as Prometheus
// metrics. Wire it in with engine.WithObserver and serve the registry
// through the root server's MetricsHandler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Keksclan/goRawrStash/engine"
)

// Observer is a Prometheus-backed engine.Observer. All counters are
// pre-bound at construction so the hot path only does atomic adds.
type Observer struct {
	hits        prometheus.Counter
	misses      prometheus.Counter
	writes      prometheus.Counter
	expirations prometheus.Counter
	removals    prometheus.Counter
	sweeps      prometheus.Counter
	swept       prometheus.Counter
}

var _ engine.Observer = (*Observer)(nil)

// NewObserver creates an Observer and registers its collectors with reg.
// Pass prometheus.DefaultRegisterer to use the default registry (which the
// promhttp handler serves).
func NewObserver(reg prometheus.Registerer) *Observer {
	o := &Observer{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rawrstash",
			Name:      "cache_hits_total",
			Help:      "Lookups that found a live entry.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rawrstash",
			Name:      "cache_misses_total",
			Help:      "Lookups that found nothing, or found an expired entry.",
		}),
		writes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rawrstash",
			Name:      "cache_writes_total",
			Help:      "Set operations applied.",
		}),
		expirations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rawrstash",
			Name:      "cache_expirations_total",
			Help:      "Entries evicted because their TTL passed (lazy or swept).",
		}),
		removals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rawrstash",
			Name:      "cache_removals_total",
			Help:      "Entries removed via Remove or Clear.",
		}),
		sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rawrstash",
			Name:      "cache_sweeps_total",
			Help:      "Background sweep passes completed.",
		}),
		swept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rawrstash",
			Name:      "cache_sweep_evictions_total",
			Help:      "Entries evicted by background sweep passes.",
		}),
	}
	reg.MustRegister(o.hits, o.misses, o.writes, o.expirations, o.removals, o.sweeps, o.swept)
	return o
}

// RegisterEntriesGauge adds a gauge that reports the live entry count of c.
// It is separate from NewObserver because the gauge needs the engine, while
// the observer is handed to the engine at construction.
func RegisterEntriesGauge(reg prometheus.Registerer, c *engine.Cache) {
	reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "rawrstash",
		Name:      "cache_entries",
		Help:      "Current number of stored entries, including not-yet-swept expired ones.",
	}, func() float64 {
		return float64(c.Count())
	}))
}

func (o *Observer) Hit()    { o.hits.Inc() }
func (o *Observer) Miss()   { o.misses.Inc() }
func (o *Observer) Write()  { o.writes.Inc() }
func (o *Observer) Expire() { o.expirations.Inc() }
func (o *Observer) Remove() { o.removals.Inc() }

func (o *Observer) Sweep(evicted int) {
	o.sweeps.Inc()
	o.swept.Add(float64(evicted))
}
