package engine

// Observer receives cache lifecycle events. The engine calls these methods
// inline on the hot path, so implementations must be cheap and must not
// block. A nil-safe no-op implementation is installed by default; a
// Prometheus-backed one lives in the metrics package.
type Observer interface {
	// Hit is called when TryGet or TryGetMetadata finds a live entry.
	Hit()

	// Miss is called when a lookup finds nothing, or finds an expired entry.
	Miss()

	// Write is called on every Set that applies.
	Write()

	// Expire is called when an expired entry is evicted, whether lazily on a
	// read or proactively by the sweeper.
	Expire()

	// Remove is called when an entry is removed via Remove or Clear.
	Remove()

	// Sweep is called after each sweeper pass with the number of entries it
	// evicted.
	Sweep(evicted int)
}

// NopObserver discards all events. It exists so the engine never has to
// nil-check its observer on the hot path.
type NopObserver struct{}

func (NopObserver) Hit()       {}
func (NopObserver) Miss()      {}
func (NopObserver) Write()     {}
func (NopObserver) Expire()    {}
func (NopObserver) Remove()    {}
func (NopObserver) Sweep(int) {}
