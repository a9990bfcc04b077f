package cache

import "errors"

// errors.go enumerates the error values this cache returns: configuration
// validation errors from New, OutOfMemory, and use of a destroyed cache
// from Alloc. Everything else (invariant violations, misuse from the
// wrong context) is fatal and surfaces as a panic rather than an error
// value — see slab.go / cache.go for the panic call sites, each with a
// descriptive message naming the violated invariant.

var (
	// ErrInvalidName is returned by New when name is empty.
	ErrInvalidName = errors.New("cache: name must not be empty")

	// ErrInvalidCellsPerSlab is returned by New when WithCellsPerSlab is
	// given a non-positive value.
	ErrInvalidCellsPerSlab = errors.New("cache: cells per slab must be > 0")

	// ErrInvalidReapDelay is returned by New when WithReapDelay is given a
	// negative duration.
	ErrInvalidReapDelay = errors.New("cache: reap delay must be >= 0")

	// ErrOutOfMemory is returned by Alloc when flags forbid sleeping and
	// the magazine is empty with no partial slab to refill from, or
	// (wrapped) when growing a slab fails.
	ErrOutOfMemory = errors.New("cache: out of memory")

	// ErrCacheDestroyed is returned by Alloc called after Destroy. Free
	// on a destroyed cache panics instead.
	ErrCacheDestroyed = errors.New("cache: use of destroyed cache")
)
