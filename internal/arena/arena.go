//go:build goexperiment.arenas
// +build goexperiment.arenas

// Package arena wraps Go's experimental `arena` package behind a tiny,
// stable surface so the rest of slabcache never touches the experimental
// API directly. It exists to back large (vmem-style) slab regions: a slab
// whose object size exceeds a page is allocated as one arena, and the
// entire region — slab header, object header array, and all object bodies
// — is freed in O(1) when the slab is torn down, without the GC ever having
// to scan it. One big vmem_alloc call beats N_cells+1 small ones because
// the virtual mapping primitive serializes on a global mutex.
//
// Concurrency
// -----------
// arena.Arena is not thread-safe. In slabcache each Arena backs exactly one
// slab and is only ever touched during that slab's (unlocked) construction
// or during its single-threaded teardown, so no locking is added here.
//
// ⚠️  DISCLAIMER  ----------------------------------------------
// Using arenas bypasses the garbage collector; objects allocated inside an
// Arena must never be referenced after Free() is called on it. In
// slabcache this is safe because an Arena's lifetime is exactly one slab's
// lifetime: it is freed precisely when that slab is torn down, at which
// point the cache has already run every destructor over the slab's bodies
// and removed every object header from the in-use hash.
// -------------------------------------------------------------
//
// © 2025 slabcache authors. MIT License.
package arena

import (
	"arena" // standard library experimental package
)

// Arena is a thin new-type wrapper that keeps the experimental arena.Arena
// type from leaking into the rest of the module.
type Arena struct{ ar *arena.Arena }

// New constructs an empty arena ready for allocations.
func New() *Arena {
	return &Arena{ar: arena.NewArena()}
}

// Free releases all memory allocated in the arena. After the call, any
// slice previously returned from MakeBytes becomes invalid.
func (a *Arena) Free() {
	a.ar.Free()
}

// MakeBytes allocates a []byte of length n inside the arena. The backing
// array is owned by the arena and released on Free().
func (a *Arena) MakeBytes(n int) []byte {
	return arena.MakeSlice[byte](a.ar, n, n)
}
