package cache

import "unsafe"

// hash.go implements the in-use object hash, addressed by object-body
// pointer: the pointer is shifted right by the page-size exponent
// (bodies are usually at least page-aligned near their slab, so the low
// bits carry no information and would collide), then reduced to
// hashBits with a Fibonacci/Knuth multiplicative hash, 0x9e3779b97f4a7c15
// (the 64-bit widening of the classic 32-bit constant 0x9e3779b9).

const (
	hashBits     = 10
	hashBuckets  = 1 << hashBits
	pageShiftExp = 12 // log2(byteback.PageSize)
)

// inUseHash is the fixed-size chaining table tracking every live cell.
// All operations run under the owning cache's lock.
type inUseHash[T any] struct {
	buckets [hashBuckets]*objHeader[T]
	count   int
	depth   int // high-water chain length, for diagnostics
}

// splHashPtr implements the shift-then-multiply strategy above. It is a
// free function (not a method) so it has no type parameter of its own,
// letting hash.go's table stay generic over T while the hashing math
// stays identical across instantiations.
func splHashPtr(p unsafe.Pointer) uintptr {
	v := uintptr(p) >> pageShiftExp
	v *= 0x9e3779b97f4a7c15
	return v >> (64 - hashBits)
}

func (h *inUseHash[T]) insert(hdr *objHeader[T]) {
	idx := splHashPtr(unsafe.Pointer(hdr.body))
	hdr.hashNext = h.buckets[idx]
	hdr.inHash = true
	h.buckets[idx] = hdr
	h.count++

	depth := 0
	for n := h.buckets[idx]; n != nil; n = n.hashNext {
		depth++
	}
	if depth > h.depth {
		h.depth = depth
	}
}

// lookup finds the header owning body. It panics if not found: per spec
// §4.2 a lookup miss means the pointer did not come from this cache, or
// came from it but was already freed — both are caller misuse or
// corruption, and §7 classifies this as a fatal InvariantViolation.
func (h *inUseHash[T]) lookup(body *T) *objHeader[T] {
	idx := splHashPtr(unsafe.Pointer(body))
	for n := h.buckets[idx]; n != nil; n = n.hashNext {
		if n.body == body {
			return n
		}
	}
	panic("cache: in-use hash miss — double free or foreign pointer")
}

func (h *inUseHash[T]) remove(hdr *objHeader[T]) {
	idx := splHashPtr(unsafe.Pointer(hdr.body))
	prev := (*objHeader[T])(nil)
	for n := h.buckets[idx]; n != nil; n = n.hashNext {
		if n == hdr {
			if prev == nil {
				h.buckets[idx] = n.hashNext
			} else {
				prev.hashNext = n.hashNext
			}
			hdr.hashNext = nil
			hdr.inHash = false
			h.count--
			return
		}
		prev = n
	}
	panic("cache: in-use hash remove of header not present — invariant violation")
}
