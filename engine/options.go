package engine

import "time"

// DefaultSweepInterval is the period of the background sweeper when no
// WithSweepInterval option is supplied.
const DefaultSweepInterval = 60 * time.Second

// Option configures a Cache at construction time.
type Option func(*Cache)

// WithSweepInterval sets the period of the background expiration sweep.
// A non-positive interval disables the sweeper; lazy expiration on reads
// still applies, but keys that are written with a TTL and never read again
// are not reclaimed.
func WithSweepInterval(d time.Duration) Option {
	return func(c *Cache) {
		c.sweepEvery = d
	}
}

// WithStore replaces the default sync.Map-backed store. See NewShardedStore
// for the alternative shipped with this package.
func WithStore(s Store) Option {
	return func(c *Cache) {
		if s != nil {
			c.store = s
		}
	}
}

// WithObserver installs an Observer that receives cache lifecycle events.
func WithObserver(o Observer) Option {
	return func(c *Cache) {
		if o != nil {
			c.obs = o
		}
	}
}

// WithClock overrides the engine's time source. Intended for tests; the
// default is time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}
