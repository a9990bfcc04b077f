// Package byteback provides the raw byte-allocation primitives the slab
// cache engine treats as external collaborators, deliberately out of
// scope for the engine itself: kmem-style small allocation and
// vmem-style large/virtual
// allocation, plus their free counterparts. The engine in package cache
// never allocates bytes directly — it always goes through an Allocator.
//
// © 2025 slabcache authors. MIT License.
package byteback

import "errors"

// ErrOutOfMemory is returned by Kmem/Vmem allocation methods on failure.
// It is the only error kind this package produces; corruption and misuse
// are the caller's responsibility to catch (see package cache's fatal
// assertions) and are never surfaced here.
var ErrOutOfMemory = errors.New("byteback: out of memory")

// Allocator is the byte-allocator contract consumed by the slab cache core.
// KmemAlloc backs small (<= page size) per-cell allocations; VmemAlloc backs
// the single large region used for slabs whose object size exceeds a page,
// since the virtual-mapping primitive serializes globally and one large
// call beats many small ones.
//
// sleep reports whether the caller may block waiting for memory. A false
// value must never be escalated internally to a blocking wait.
type Allocator interface {
	KmemAlloc(size int, sleep bool) ([]byte, error)
	KmemFree(b []byte)
	VmemAlloc(size int, sleep bool) ([]byte, error)
	VmemFree(b []byte)
}

// PageSize is the page-size constant the slab cache uses to decide between
// small- and large-slab backing strategies. It does not need to
// match the host's true page size — only to be a stable, shared constant
// between the "is this object large" decision and the chunking math.
const PageSize = 4096
