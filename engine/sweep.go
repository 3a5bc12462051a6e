package engine

import "time"

// sweepLoop drives the periodic expiration sweep until Close cancels it.
//
// The sweep exists for keys that are written with a TTL and never read
// again: lazy expiration only fires on access, so without the sweep those
// entries would sit in the store forever.
func (c *Cache) sweepLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case now := <-ticker.C:
			c.sweep(now)
		}
	}
}

// sweep walks the store once and evicts every entry whose deadline has
// passed as of the scan instant. Order is unspecified. Eviction goes through
// the same re-validated path as lazy expiry, so a key that is concurrently
// rewritten keeps its new entry.
func (c *Cache) sweep(now time.Time) int {
	evicted := 0
	c.store.Range(func(key string, e *entry) bool {
		rec := e.rec.Load()
		if rec == nil || rec.key != key {
			return true // being retired or already recycled; nothing to do
		}
		if rec.expired(now) && c.evict(key, e, rec) {
			c.obs.Expire()
			evicted++
		}
		return true
	})
	c.obs.Sweep(evicted)
	return evicted
}
