package cache

// loader.go implements a singleflight-based de-duplication layer: when
// multiple CPUs discover an empty partial list at the same time, only one
// of them actually performs the underlying vmem_alloc/kmem_alloc calls and
// runs the constructor over every cell; the rest wait on the shared result
// and then proceed to their own refill loop exactly as if they had grown
// the slab themselves.
//
// © 2025 slabcache authors. MIT License.

import "golang.org/x/sync/singleflight"

// growGroup deduplicates concurrent growSlab calls for one cache. All
// callers racing to grow receive the same freshly built slab; the caller
// whose fn ran links it into the partial list, the others simply see the
// partial list non-empty on their next lock acquisition and proceed
// normally.
type growGroup[T any] struct {
	g singleflight.Group
}

// growOnce runs growSlab at most once per overlapping wave of callers.
// The singleflight key is constant because a cache only ever grows one
// slab shape — there is no key-space here to partition on.
//
// shared reports whether this caller's fn actually ran (false) or it
// received another goroutine's in-flight result (true). Callers must
// only link the returned slab into the partial list when shared is
// false — linking it twice would double-count slabTotal/objTotal and
// corrupt the free list.
func (gg *growGroup[T]) growOnce(c *Cache[T], sleep bool) (s *slab[T], shared bool, err error) {
	// singleflight's own shared flag is true for every caller (including
	// the one that ran fn) whenever duplicates joined, so track who ran fn.
	ran := false
	v, err, _ := gg.g.Do("grow", func() (any, error) {
		ran = true
		return growSlab(c, sleep)
	})
	if err != nil {
		return nil, !ran, err
	}
	return v.(*slab[T]), !ran, nil
}
