package cache

import (
	"github.com/Voskan/slabcache/internal/platform"
	"go.uber.org/zap"
)

// reaper.go implements reap_now's three-step policy, driven either by an
// external memory-pressure notification (registry.go's shrinker entry
// point, one per process) or by direct housekeeping invocation.

// ReapResult reports what one reap_now call accomplished. A legacy
// shrinker contract returns the constant 1 rather than a remaining-work
// count; this repository exposes the real counts here and a
// compatibility shim (Cache.Reap, below) that collapses them to 0 or 1.
type ReapResult struct {
	MagazinesFlushed int
	SlabsFreed       int
}

// ReapNow runs the three-step reclamation policy against this cache
// alone (as opposed to the process-wide Reap, which walks the
// registry).
func (c *Cache[T]) ReapNow() ReapResult {
	if c.destroyed.Load() {
		return ReapResult{}
	}
	var result ReapResult

	// Step 1: advisory reclaim callback, outside any lock — it is user
	// code and may itself call Alloc/Free.
	if c.reclaim != nil {
		c.reclaim(c.priv)
	}

	// Step 2: flush idle per-CPU magazines. "Idle" means last-touch is
	// older than reapDelayTicks; flushing drains `refill` entries, the
	// same quantum Free's overflow flush uses.
	now := c.jiffies.Now()
	for _, mag := range c.magazines {
		mag.mu.Lock()
		idle := mag.avail > 0 && platform.ElapsedSince(now, mag.lastTouch, c.reapDelayTicks)
		mag.mu.Unlock()
		if !idle {
			continue
		}
		c.flush(mag, mag.refill)
		result.MagazinesFlushed++
	}

	// Step 3: scan the partial list from the tail forward, freeing
	// stale empty slabs. List ordering guarantees no further reclaim
	// candidates lie past the first slab that fails either condition.
	c.mu.Lock()
	for s := c.partialTail; s != nil; {
		prev := s.prev
		if !s.empty() || !platform.ElapsedSince(now, s.lastTouch, c.reapDelayTicks) {
			break
		}
		c.unlinkPartial(s)
		teardownSlab(c, s)
		c.slabTotal--
		c.stats.slabsDestroyed.Add(1)
		c.metrics.incSlabsDestroyed(c.name)
		c.metrics.addReapFreed(c.name, 1)
		result.SlabsFreed++
		s = prev
	}
	c.updateSlabTotalLocked()
	c.mu.Unlock()

	if result.SlabsFreed > 0 || result.MagazinesFlushed > 0 {
		c.logger.Debug("cache: reap cycle",
			zap.String("cache", c.name),
			zap.Int("magazines_flushed", result.MagazinesFlushed),
			zap.Int("slabs_freed", result.SlabsFreed))
	}
	return result
}

// Reap is a compatibility shim preserving a literal shrinker contract:
// it returns 1 when the ReapNow call it wraps flushed a magazine or
// freed a slab, and 0 when that call did nothing, regardless of how much
// was reclaimed or remains reclaimable later. New code should call
// ReapNow directly and use its real counts.
func (c *Cache[T]) Reap() int {
	res := c.ReapNow()
	if res.MagazinesFlushed > 0 || res.SlabsFreed > 0 {
		return 1
	}
	return 0
}

// Name returns the cache's identifying name, used by the registry and
// by metrics labels.
func (c *Cache[T]) Name() string { return c.name }
