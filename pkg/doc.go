// Package cache implements a slab-style object cache allocator with
// per-CPU magazines. It amortizes the cost of constructing expensive,
// fixed-size objects by batching construction into page-sized backing
// "slabs," interposing a small per-CPU cache ("magazine") between callers
// and the globally-locked slab machinery, and reclaiming empty slabs on a
// time-delayed basis driven by an external memory-pressure signal.
//
// The design is a direct, idiomatic-Go port of the Solaris-style slab
// allocator popularized by the SPL (Solaris Porting Layer) kmem cache: one
// cache per object type, a partial/complete slab list kept in
// quasi-sorted order, an in-use object hash addressed by body pointer, and
// a reaper that walks the process-wide cache registry on external memory
// pressure.
//
// © 2025 slabcache authors. MIT License.
package cache
