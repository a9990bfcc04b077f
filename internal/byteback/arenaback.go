//go:build goexperiment.arenas

package byteback

// arenaback.go provides an Allocator whose VmemAlloc is backed by Go's
// experimental arena package (see internal/arena) instead of the plain Go
// heap. Large slabs allocated this way are released in O(1) and never
// scanned by the GC, which is the whole point of routing large,
// long-lived, non-pointer-free slab regions outside managed memory: it is
// the same reason vmem_alloc is preferred for objects over a page.
//
// Small (kmem-style) allocations still go through the heap: arenas only pay
// for themselves when a single allocation is large and long-lived, which is
// exactly the large-slab case and not the per-cell small-slab case.

import (
	"sync"

	iarena "github.com/Voskan/slabcache/internal/arena"
)

// ArenaBackedAllocator satisfies Allocator, delegating small allocations to
// a HeapAllocator and backing each large (Vmem) allocation with its own
// experimental Arena so that freeing it is a single O(1) operation.
type ArenaBackedAllocator struct {
	heap *HeapAllocator

	mu      sync.Mutex
	regions map[*byte]*iarena.Arena
}

// NewArenaBackedAllocator constructs an Allocator that routes vmem-style
// allocations through Go's experimental arena package.
func NewArenaBackedAllocator() *ArenaBackedAllocator {
	return &ArenaBackedAllocator{
		heap:    NewHeapAllocator(),
		regions: make(map[*byte]*iarena.Arena),
	}
}

func (a *ArenaBackedAllocator) KmemAlloc(size int, sleep bool) ([]byte, error) {
	return a.heap.KmemAlloc(size, sleep)
}

func (a *ArenaBackedAllocator) KmemFree(b []byte) {
	a.heap.KmemFree(b)
}

func (a *ArenaBackedAllocator) VmemAlloc(size int, sleep bool) ([]byte, error) {
	ar := iarena.New()
	buf := ar.MakeBytes(size)

	a.mu.Lock()
	if len(buf) > 0 {
		a.regions[&buf[0]] = ar
	}
	a.mu.Unlock()

	return buf, nil
}

func (a *ArenaBackedAllocator) VmemFree(b []byte) {
	if len(b) == 0 {
		return
	}
	key := &b[0]

	a.mu.Lock()
	ar, ok := a.regions[key]
	if ok {
		delete(a.regions, key)
	}
	a.mu.Unlock()

	if ok {
		ar.Free()
	}
}
