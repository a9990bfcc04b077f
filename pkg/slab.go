package cache

import (
	"fmt"
	"unsafe"

	"github.com/Voskan/slabcache/internal/byteback"
	"github.com/Voskan/slabcache/internal/unsafehelpers"
)

const slabMagic uint32 = 0x534c4142 // "SLAB"

// slab is the backing region for a fixed number of equal-sized cells
// plus per-object headers, a free list, a reference count, and a
// last-touch tick. It is linked into exactly one of its cache's
// partial_list or complete_list via prev/next.
type slab[T any] struct {
	magic     uint32
	cache     *Cache[T]
	nCells    int
	freeList  *objHeader[T]
	ref       int
	lastTouch uint64

	prev, next *slab[T]

	headers []objHeader[T]
	bodies  []T

	// backing holds the raw byte regions so they can be handed back to
	// the allocator at teardown. For a small slab these are two
	// independent kmem regions (headers, bodies); for a large slab it is
	// the single vmem region both were carved from.
	headerBacking []byte
	bodyBacking   []byte
	large         bool
}

func (s *slab[T]) checkMagic() {
	if s.magic != slabMagic {
		panic("cache: slab magic mismatch — corruption")
	}
}

// full reports whether every cell is handed out.
func (s *slab[T]) full() bool { return s.ref == s.nCells }

// empty reports whether every cell is free.
func (s *slab[T]) empty() bool { return s.ref == 0 }

// growSlab allocates, initializes, links, and constructs a new slab. It
// runs unconstrained by the cache lock — callers hold the lock neither
// while this executes nor while the constructor runs — and may sleep
// through the underlying allocator.
func growSlab[T any](c *Cache[T], sleep bool) (*slab[T], error) {
	var zero T
	objectSize := int(unsafe.Sizeof(zero))
	headerSize := int(unsafe.Sizeof(objHeader[T]{}))

	s := &slab[T]{
		magic:  slabMagic,
		cache:  c,
		nCells: c.cellsPerSlab,
		large:  objectSize > byteback.PageSize,
	}

	if s.large {
		if err := s.allocLarge(c, objectSize, headerSize, sleep); err != nil {
			return nil, err
		}
	} else {
		if err := s.allocSmall(c, objectSize, headerSize, sleep); err != nil {
			return nil, err
		}
		defaultRegistry.noteBootstrapAlloc(1, int64(s.nCells))
	}

	// Link every header into the free list, body-first so freeList ends
	// up pointing at cell 0 after the loop (order does not matter for
	// correctness, only for which cell alloc hands out first).
	for i := s.nCells - 1; i >= 0; i-- {
		h := &s.headers[i]
		h.magic = objHeaderMagic
		h.slab = s
		h.body = &s.bodies[i]
		h.freeNext = s.freeList
		s.freeList = h
	}

	// Construct every body while the slab is not yet published to the
	// cache: nothing else can observe these cells yet, so the
	// constructor is free to sleep or fail without any rollback concern
	// beyond this slab's own cells.
	if c.ctor != nil {
		for i := range s.bodies {
			if err := c.ctor(&s.bodies[i], c.priv); err != nil {
				s.unwind(c, i)
				return nil, fmt.Errorf("cache: slab allocation failed: constructor: %w", err)
			}
		}
		c.stats.ctorCalls.Add(int64(s.nCells))
	}

	return s, nil
}

// unwind runs the destructor over the first n already-constructed
// cells and releases backing storage, for a constructor that failed
// partway through a slab.
func (s *slab[T]) unwind(c *Cache[T], n int) {
	if c.dtor != nil {
		for i := 0; i < n; i++ {
			c.dtor(&s.bodies[i], c.priv)
		}
	}
	s.release(c)
}

func (s *slab[T]) allocSmall(c *Cache[T], objectSize, headerSize int, sleep bool) error {
	hb, err := c.allocator.KmemAlloc(s.nCells*headerSize, sleep)
	if err != nil {
		return fmt.Errorf("cache: slab allocation failed: headers: %w", err)
	}
	bb, err := c.allocator.KmemAlloc(s.nCells*objectSize, sleep)
	if err != nil {
		c.allocator.KmemFree(hb)
		return fmt.Errorf("cache: slab allocation failed: bodies: %w", err)
	}
	s.headerBacking = hb
	s.bodyBacking = bb
	s.headers = unsafehelpers.PtrSlice((*objHeader[T])(unsafe.Pointer(&hb[0])), s.nCells)
	s.bodies = unsafehelpers.PtrSlice((*T)(unsafe.Pointer(&bb[0])), s.nCells)
	return nil
}

// allocLarge performs one vmem_alloc call sized to hold nCells headers
// followed by nCells bodies, with the body region aligned to the
// object's own alignment requirement so field access inside T never
// touches unaligned memory.
func (s *slab[T]) allocLarge(c *Cache[T], objectSize, headerSize int, sleep bool) error {
	var zero T
	align := unsafe.Alignof(zero)

	headersBytes := uintptr(s.nCells * headerSize)
	bodyOffset := unsafehelpers.AlignUp(headersBytes, align)
	total := int(bodyOffset) + s.nCells*objectSize

	region, err := c.allocator.VmemAlloc(total, sleep)
	if err != nil {
		return fmt.Errorf("cache: slab allocation failed: vmem region: %w", err)
	}
	s.bodyBacking = region
	s.headers = unsafehelpers.PtrSlice((*objHeader[T])(unsafe.Pointer(&region[0])), s.nCells)
	s.bodies = unsafehelpers.PtrSlice((*T)(unsafe.Pointer(&region[bodyOffset])), s.nCells)
	return nil
}

// release hands the slab's backing storage back to the allocator. It
// does not invoke the destructor — callers that need that must do so
// before calling release (see teardownSlab).
func (s *slab[T]) release(c *Cache[T]) {
	if s.large {
		c.allocator.VmemFree(s.bodyBacking)
		return
	}
	c.allocator.KmemFree(s.headerBacking)
	c.allocator.KmemFree(s.bodyBacking)
}

// teardownSlab runs the destructor over every cell (all cells must be
// free — enforced by the caller, which only calls this on ref == 0
// slabs) and releases the backing storage. Runs under the cache lock.
func teardownSlab[T any](c *Cache[T], s *slab[T]) {
	s.checkMagic()
	if s.ref != 0 {
		panic("cache: slab teardown with outstanding references — invariant violation")
	}
	if c.dtor != nil {
		for i := range s.bodies {
			c.dtor(&s.bodies[i], c.priv)
		}
		c.stats.dtorCalls.Add(int64(s.nCells))
	}
	s.release(c)
}
