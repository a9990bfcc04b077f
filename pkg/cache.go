package cache

// cache.go contains the top-level Cache[T]: the object carrying name,
// object size, ctor/dtor/reclaim, the partial and complete slab lists,
// the in-use hash, the per-CPU magazine array, statistics, and reap
// delay. Cache is split from slab.go/magazine.go/hash.go purely for
// file-size hygiene — all four are one tightly coupled unit guarded by
// Cache.mu.
//
// The code relies on the standard library, go.uber.org/zap for logging,
// and the internal packages declared in this repository; there is no cgo
// and everything is safe for cross-compilation.
//
// © 2025 slabcache authors. MIT License.

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/Voskan/slabcache/internal/byteback"
	"github.com/Voskan/slabcache/internal/platform"
	"go.uber.org/zap"
)

// cacheStats are the atomic counters a slab cache tracks: slabs
// created/destroyed/max-concurrent, objects allocated/total/max, and
// ctor/dtor calls. Snapshot reads them without the cache lock; the slab
// total and the hash count/depth live outside this struct and Snapshot
// takes the cache lock to read those.
type cacheStats struct {
	slabsCreated   atomic.Int64
	slabsDestroyed atomic.Int64
	slabMax        atomic.Int64
	objAlloc       atomic.Int64
	objTotal       atomic.Int64
	objMax         atomic.Int64
	ctorCalls      atomic.Int64
	dtorCalls      atomic.Int64
}

// Stats is a point-in-time snapshot of a cache's bookkeeping counters.
type Stats struct {
	Name           string
	SlabTotal      int64
	SlabsCreated   int64
	SlabsDestroyed int64
	SlabMax        int64
	ObjAlloc       int64
	ObjTotal       int64
	ObjMax         int64
	HashCount      int64
	HashDepth      int64
}

// Cache is the top-level object-cache engine. T is the cell's body type;
// its size is derived via unsafe.Sizeof rather than taken as an explicit
// object_size parameter the way the C API does,
// since Go generics make that redundant.
type Cache[T any] struct {
	mu sync.Mutex // spin-lock analogue: guards everything below except magazines

	name         string
	cellsPerSlab int

	ctor    Ctor[T]
	dtor    Dtor[T]
	reclaim ReclaimFunc
	priv    any

	partialHead, partialTail   *slab[T]
	completeHead, completeTail *slab[T]
	slabTotal                  int

	hash inUseHash[T]

	magazines []*magazine[T]
	magSize   int
	magRefill int

	growers growGroup[T]

	allocator      byteback.Allocator
	jiffies        *platform.Jiffies
	ownsJiffies    bool
	reapDelayTicks uint64

	logger  *zap.Logger
	metrics metricsSink

	stats     cacheStats
	destroyed atomic.Bool
}

// New constructs a cache, mirroring cache_create. It grows no slab up
// front (the first Alloc does), so the only errors it returns are the
// validation errors ErrInvalidName, ErrInvalidCellsPerSlab and
// ErrInvalidReapDelay.
func New[T any](name string, opts ...Option[T]) (*Cache[T], error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	cfg := applyOptions(opts)
	if cfg.cellsPerSlab <= 0 {
		return nil, ErrInvalidCellsPerSlab
	}
	if cfg.reapDelay < 0 {
		return nil, ErrInvalidReapDelay
	}

	var zero T
	objectSize := int(unsafe.Sizeof(zero))
	magSize := cfg.magazineSizeOverride
	if magSize <= 0 {
		magSize = magazineSize(objectSize, byteback.PageSize)
	}

	jiffies := cfg.jiffies
	ownsJiffies := false
	if jiffies == nil {
		jiffies = platform.NewJiffies()
		ownsJiffies = true
	}

	c := &Cache[T]{
		name:           name,
		cellsPerSlab:   cfg.cellsPerSlab,
		ctor:           cfg.ctor,
		dtor:           cfg.dtor,
		reclaim:        cfg.reclaim,
		priv:           cfg.priv,
		magazines:      make([]*magazine[T], platform.NumCPU()),
		magSize:        magSize,
		magRefill:      (magSize + 1) / 2,
		allocator:      cfg.allocator,
		jiffies:        jiffies,
		ownsJiffies:    ownsJiffies,
		reapDelayTicks: platform.SecondsToTicks(cfg.reapDelay.Seconds()),
		logger:         cfg.logger,
		metrics:        cfg.metrics,
	}
	for i := range c.magazines {
		c.magazines[i] = newMagazine[T](magSize)
	}

	defaultRegistry.register(c)
	return c, nil
}

func (c *Cache[T]) magazineFor(cpu int) *magazine[T] {
	return c.magazines[cpu%len(c.magazines)]
}

// Alloc allocates one cell, growing a slab if needed. sleep reports
// whether the caller may block through the underlying allocator during a
// grow; the no-sleep path does not attempt to make allocation succeed
// without a slab already available — it simply returns ErrOutOfMemory
// rather than growing when sleep is false and refill cannot be satisfied
// from existing partial slabs.
func (c *Cache[T]) Alloc(sleep bool) (*T, error) {
	if c.destroyed.Load() {
		return nil, ErrCacheDestroyed
	}
	for {
		// Step 1+2: "disable preemption" has no Go equivalent; CurrentCPU
		// is re-read after every point that could have let the calling
		// goroutine migrate, and the slot lookup restarts if it moved.
		cpu := platform.CurrentCPU()
		mag := c.magazineFor(cpu)

		mag.mu.Lock()
		if mag.avail > 0 {
			ptr := mag.pop(c.jiffies.Now())
			mag.mu.Unlock()
			c.metrics.incMagazineHit(c.name)
			return ptr, nil
		}
		mag.mu.Unlock()

		c.metrics.incMagazineMiss(c.name)
		if err := c.refill(mag, sleep); err != nil {
			return nil, err
		}
		// Restart: the CPU (and therefore the correct magazine) may have
		// changed while refill held no lock during grow.
	}
}

// refill draws cells from the head of the partial list under the cache
// lock; if the partial list is empty it releases the lock, grows a new
// slab (which may sleep), and
// continues.
func (c *Cache[T]) refill(mag *magazine[T], sleep bool) error {
	c.mu.Lock()

	want := c.magRefill
	filled := 0

	for filled < want {
		s := c.partialHead
		if s == nil {
			if !sleep {
				c.mu.Unlock()
				return ErrOutOfMemory
			}
			c.mu.Unlock()
			newSlab, shared, err := c.growers.growOnce(c, sleep)
			if err != nil {
				c.logger.Warn("cache: slab grow failed",
					zap.String("cache", c.name), zap.Error(err))
				return fmt.Errorf("%w: %v", ErrOutOfMemory, err)
			}
			c.mu.Lock()
			if !shared {
				c.linkPartialTail(newSlab)
				c.slabTotal++
				c.stats.slabsCreated.Add(1)
				c.stats.objTotal.Add(int64(newSlab.nCells))
				c.metrics.incSlabsCreated(c.name)
				c.updateSlabTotalLocked()
			}
			continue
		}

		for filled < want && s.freeList != nil {
			mag.mu.Lock()
			if mag.avail == mag.size {
				// Frees on the same slot filled the magazine meanwhile.
				mag.mu.Unlock()
				want = filled
				break
			}
			h := s.freeList
			s.freeList = h.freeNext
			h.freeNext = nil

			c.hash.insert(h)
			s.ref++
			c.stats.objAlloc.Add(1)
			c.metrics.setObjAlloc(c.name, c.stats.objAlloc.Load())
			c.metrics.setHashDepth(c.name, int64(c.hash.depth))

			mag.push(h.body, c.jiffies.Now())
			mag.mu.Unlock()
			filled++
		}

		if s.full() {
			c.unlinkPartial(s)
			c.linkComplete(s)
		}
	}

	if c.stats.objAlloc.Load() > c.stats.objMax.Load() {
		c.stats.objMax.Store(c.stats.objAlloc.Load())
	}
	c.mu.Unlock()
	return nil
}

// Free returns a cell to its owning CPU's magazine.
func (c *Cache[T]) Free(body *T) {
	if c.destroyed.Load() {
		panic("cache: free on destroyed cache — invariant violation")
	}
	cpu := platform.CurrentCPU()
	mag := c.magazineFor(cpu)

	mag.mu.Lock()
	if mag.avail == mag.size {
		mag.mu.Unlock()
		c.flush(mag, mag.refill)
		mag.mu.Lock()
	}
	mag.push(body, c.jiffies.Now())
	mag.mu.Unlock()
}

// flush drains count entries from the bottom of the magazine under the
// cache lock, returns each to its owning slab, and adjusts that slab's
// position in the partial/complete ordering.
func (c *Cache[T]) flush(mag *magazine[T], count int) {
	mag.mu.Lock()
	drained := mag.drainOldest(count)
	mag.mu.Unlock()
	if len(drained) == 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, body := range drained {
		h := c.hash.lookup(body)
		c.hash.remove(h)
		s := h.slab

		wasFull := s.full()
		h.freeNext = s.freeList
		s.freeList = h
		s.ref--
		s.lastTouch = c.jiffies.Now()

		c.stats.objAlloc.Add(-1)
		c.metrics.setObjAlloc(c.name, c.stats.objAlloc.Load())

		if wasFull {
			c.unlinkComplete(s)
			c.linkPartialHead(s)
		} else if s.empty() {
			c.moveToPartialTail(s)
		}
	}
}

// Destroy mirrors cache_destroy: asserts complete_list is empty and
// hash_count == 0, tears down every remaining partial slab, and
// deregisters the cache.
func (c *Cache[T]) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.completeHead != nil {
		panic("cache: destroy with non-empty complete list — invariant violation")
	}
	if c.hash.count != 0 {
		panic("cache: destroy with outstanding allocations — invariant violation")
	}

	for s := c.partialHead; s != nil; {
		next := s.next
		teardownSlab(c, s)
		c.slabTotal--
		c.stats.slabsDestroyed.Add(1)
		c.metrics.incSlabsDestroyed(c.name)
		s = next
	}
	c.partialHead, c.partialTail = nil, nil
	c.updateSlabTotalLocked()

	c.destroyed.Store(true)
	if c.ownsJiffies {
		c.jiffies.Stop()
	}
	defaultRegistry.unregister(c)
}

func (c *Cache[T]) updateSlabTotalLocked() {
	c.metrics.setSlabTotal(c.name, int64(c.slabTotal))
	if int64(c.slabTotal) > c.stats.slabMax.Load() {
		c.stats.slabMax.Store(int64(c.slabTotal))
	}
}

// Snapshot returns a point-in-time copy of this cache's statistics.
func (c *Cache[T]) Snapshot() Stats {
	c.mu.Lock()
	hashCount, hashDepth := c.hash.count, c.hash.depth
	slabTotal := c.slabTotal
	c.mu.Unlock()
	return Stats{
		Name:           c.name,
		SlabTotal:      int64(slabTotal),
		SlabsCreated:   c.stats.slabsCreated.Load(),
		SlabsDestroyed: c.stats.slabsDestroyed.Load(),
		SlabMax:        c.stats.slabMax.Load(),
		ObjAlloc:       c.stats.objAlloc.Load(),
		ObjTotal:       c.stats.objTotal.Load(),
		ObjMax:         c.stats.objMax.Load(),
		HashCount:      int64(hashCount),
		HashDepth:      int64(hashDepth),
	}
}

/* -------------------------------------------------------------------------
   Partial/complete list management. Caller must hold c.mu.
   ------------------------------------------------------------------------- */

func (c *Cache[T]) linkPartialHead(s *slab[T]) {
	s.prev = nil
	s.next = c.partialHead
	if c.partialHead != nil {
		c.partialHead.prev = s
	}
	c.partialHead = s
	if c.partialTail == nil {
		c.partialTail = s
	}
}

func (c *Cache[T]) linkPartialTail(s *slab[T]) {
	s.next = nil
	s.prev = c.partialTail
	if c.partialTail != nil {
		c.partialTail.next = s
	}
	c.partialTail = s
	if c.partialHead == nil {
		c.partialHead = s
	}
}

func (c *Cache[T]) unlinkPartial(s *slab[T]) {
	if s.prev != nil {
		s.prev.next = s.next
	} else {
		c.partialHead = s.next
	}
	if s.next != nil {
		s.next.prev = s.prev
	} else {
		c.partialTail = s.prev
	}
	s.prev, s.next = nil, nil
}

// moveToPartialTail relocates a slab that just became empty (ref == 0)
// to the tail, per §4.1: "On free when a slab reaches ref == 0, it is
// moved to the tail."
func (c *Cache[T]) moveToPartialTail(s *slab[T]) {
	if s == c.partialTail {
		return
	}
	c.unlinkPartial(s)
	c.linkPartialTail(s)
}

func (c *Cache[T]) linkComplete(s *slab[T]) {
	s.prev = c.completeTail
	s.next = nil
	if c.completeTail != nil {
		c.completeTail.next = s
	}
	c.completeTail = s
	if c.completeHead == nil {
		c.completeHead = s
	}
}

func (c *Cache[T]) unlinkComplete(s *slab[T]) {
	if s.prev != nil {
		s.prev.next = s.next
	} else {
		c.completeHead = s.next
	}
	if s.next != nil {
		s.next.prev = s.prev
	} else {
		c.completeTail = s.prev
	}
	s.prev, s.next = nil, nil
}
