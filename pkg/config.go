package cache

// config.go defines the internal configuration object and the set of
// functional options that can be passed to New[T]. A generic Option is
// used so that callbacks retain full type-safety with respect to the
// concrete cell type T chosen by the user.
//
// Design notes
// ------------
// • All fields are initialised with sensible defaults in defaultCacheConfig().
// • Options never allocate unless strictly necessary — they just capture
//   pointers to external objects (allocator, logger, tick source …).
// • The struct itself is unexported: users can only influence behaviour via
//   Option[T]. This guarantees forward compatibility.
//
// © 2025 slabcache authors. MIT License.

import (
	"time"

	"github.com/Voskan/slabcache/internal/byteback"
	"github.com/Voskan/slabcache/internal/platform"
	"go.uber.org/zap"
)

// Ctor initializes a freshly grown cell's body. It runs once per cell at
// slab birth, never on the alloc/free hot path.
type Ctor[T any] func(body *T, priv any) error

// Dtor releases whatever Ctor acquired. It runs once per cell at slab
// death, mirroring Ctor's one-shot contract.
type Dtor[T any] func(body *T, priv any)

// ReclaimFunc is the advisory reclaim callback: invited to return freeable
// objects to the cache before the reaper
// inspects idle magazines and stale slabs. Its return value is purely
// informational — reap_now's own policy does not branch on it.
type ReclaimFunc func(priv any) bool

// cacheConfig bundles every knob that influences cache behaviour. All
// fields are immutable once the Cache is constructed.
type cacheConfig[T any] struct {
	ctor    Ctor[T]
	dtor    Dtor[T]
	reclaim ReclaimFunc
	priv    any

	cellsPerSlab int
	reapDelay    time.Duration

	// magazineSizeOverride, when > 0, replaces the step-function result
	// from magazineSize. It exists for deterministic tests that pin a
	// fixed magazine capacity — adaptive magazine sizing itself is out of
	// scope, this is a fixed test-time override only.
	magazineSizeOverride int

	allocator byteback.Allocator
	jiffies   *platform.Jiffies
	logger    *zap.Logger
	metrics   metricsSink
}

func defaultCacheConfig[T any]() cacheConfig[T] {
	return cacheConfig[T]{
		cellsPerSlab: 32,
		reapDelay:    5 * time.Second,
		allocator:    byteback.NewHeapAllocator(),
		logger:       zap.NewNop(),
		metrics:      noopMetrics{},
	}
}

// Option configures a Cache at construction time.
type Option[T any] func(*cacheConfig[T])

// WithCtor sets the per-cell constructor.
func WithCtor[T any](ctor Ctor[T]) Option[T] {
	return func(c *cacheConfig[T]) { c.ctor = ctor }
}

// WithDtor sets the per-cell destructor.
func WithDtor[T any](dtor Dtor[T]) Option[T] {
	return func(c *cacheConfig[T]) { c.dtor = dtor }
}

// WithReclaim sets the advisory reclaim callback invoked first in
// reap_now.
func WithReclaim[T any](reclaim ReclaimFunc) Option[T] {
	return func(c *cacheConfig[T]) { c.reclaim = reclaim }
}

// WithPriv sets the opaque value passed to Ctor/Dtor/Reclaim.
func WithPriv[T any](priv any) Option[T] {
	return func(c *cacheConfig[T]) { c.priv = priv }
}

// WithCellsPerSlab overrides the default 32-cells-per-slab build-time
// constant ("N_cells, typically ~32").
func WithCellsPerSlab[T any](n int) Option[T] {
	return func(c *cacheConfig[T]) { c.cellsPerSlab = n }
}

// WithReapDelay overrides the default reap delay ("a few seconds").
func WithReapDelay[T any](d time.Duration) Option[T] {
	return func(c *cacheConfig[T]) { c.reapDelay = d }
}

// WithMagazineSize forces a fixed magazine capacity instead of deriving
// one from object size via the step function in magazine.go.
func WithMagazineSize[T any](n int) Option[T] {
	return func(c *cacheConfig[T]) { c.magazineSizeOverride = n }
}

// WithAllocator swaps the byte-allocator backend — e.g. a
// badgerbacked.Allocator for persistent-growth slabs, or a
// byteback.LeakTracker-wrapped allocator for leak assertions in tests.
func WithAllocator[T any](a byteback.Allocator) Option[T] {
	return func(c *cacheConfig[T]) {
		if a != nil {
			c.allocator = a
		}
	}
}

// WithJiffies injects an existing tick source instead of letting the cache
// start its own background ticker goroutine via platform.NewJiffies,
// useful when several caches in a process should share one ticker.
func WithJiffies[T any](j *platform.Jiffies) Option[T] {
	return func(c *cacheConfig[T]) { c.jiffies = j }
}

// WithLogger plugs an external zap.Logger. The cache never logs on the
// hot path — only slow events (slab grow failures, reap cycles) are
// emitted; Destroy with outstanding allocations panics rather than logs.
func WithLogger[T any](l *zap.Logger) Option[T] {
	return func(c *cacheConfig[T]) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics activates Prometheus-backed statistics in place of the
// no-op default sink.
func WithMetrics[T any](m metricsSink) Option[T] {
	return func(c *cacheConfig[T]) {
		if m != nil {
			c.metrics = m
		}
	}
}

func applyOptions[T any](opts []Option[T]) cacheConfig[T] {
	cfg := defaultCacheConfig[T]()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
