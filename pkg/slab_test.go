package cache

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/Voskan/slabcache/internal/byteback"
)

type smallCell struct {
	a, b int64
}

type largeCell struct {
	data [3 * 4096]byte
}

func newGrowTestCache[T any](t *testing.T, opts ...Option[T]) *Cache[T] {
	t.Helper()
	c, err := New[T]("grow-test", opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(c.Destroy)
	return c
}

func TestGrowSlabSmallLinksFreeList(t *testing.T) {
	c := newGrowTestCache[smallCell](t, WithCellsPerSlab[smallCell](8))

	s, err := growSlab(c, true)
	if err != nil {
		t.Fatalf("growSlab failed: %v", err)
	}
	if s.large {
		t.Fatal("expected small-slab backing for an 16-byte object")
	}
	if s.nCells != 8 {
		t.Fatalf("expected nCells=8, got %d", s.nCells)
	}
	if s.ref != 0 {
		t.Fatalf("expected freshly grown slab to have ref=0, got %d", s.ref)
	}

	count := 0
	for h := s.freeList; h != nil; h = h.freeNext {
		h.checkMagic()
		if h.slab != s {
			t.Fatal("header's slab backpointer does not match owner")
		}
		count++
	}
	if count != 8 {
		t.Fatalf("expected 8 headers linked into free list, got %d", count)
	}

	teardownSlab(c, s)
}

func TestGrowSlabLargeSingleVmemRegion(t *testing.T) {
	c := newGrowTestCache[largeCell](t, WithCellsPerSlab[largeCell](4))

	s, err := growSlab(c, true)
	if err != nil {
		t.Fatalf("growSlab failed: %v", err)
	}
	if !s.large {
		t.Fatal("expected large-slab backing for a 3*page-size object")
	}
	if s.bodyBacking == nil || s.headerBacking != nil {
		t.Fatal("expected large slab to carry one region in bodyBacking and none in headerBacking")
	}

	var zero largeCell
	headerSize := int(unsafe.Sizeof(objHeader[largeCell]{}))
	objectSize := int(unsafe.Sizeof(zero))
	wantHeaderBytes := uintptr(s.nCells * headerSize)
	wantOffset := unsafehelpersAlignUpForTest(wantHeaderBytes, unsafe.Alignof(zero))
	wantTotal := int(wantOffset) + s.nCells*objectSize
	if len(s.bodyBacking) != wantTotal {
		t.Fatalf("expected single vmem_alloc of %d bytes, got %d", wantTotal, len(s.bodyBacking))
	}

	// Bodies must start at the aligned offset, not immediately after the
	// raw header bytes.
	bodyAddr := uintptr(unsafe.Pointer(&s.bodies[0]))
	headerAddr := uintptr(unsafe.Pointer(&s.bodyBacking[0]))
	if bodyAddr-headerAddr != wantOffset {
		t.Fatalf("expected body offset %d, got %d", wantOffset, bodyAddr-headerAddr)
	}

	teardownSlab(c, s)
}

// unsafehelpersAlignUpForTest mirrors internal/unsafehelpers.AlignUp so this
// test does not need to import an internal package from outside its module
// boundary (it already lives in package cache, same repository, but keeping
// the arithmetic local avoids coupling the test to that package's name).
func unsafehelpersAlignUpForTest(n uintptr, align uintptr) uintptr {
	return (n + align - 1) &^ (align - 1)
}

func TestGrowSlabCtorFailureUnwinds(t *testing.T) {
	var constructed, destructed int
	failAt := 3

	c, err := New[smallCell]("ctor-fail",
		WithCellsPerSlab[smallCell](8),
		WithCtor[smallCell](func(body *smallCell, priv any) error {
			constructed++
			if constructed == failAt {
				return errors.New("boom")
			}
			return nil
		}),
		WithDtor[smallCell](func(body *smallCell, priv any) {
			destructed++
		}),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(c.Destroy)

	_, err = growSlab(c, true)
	if err == nil {
		t.Fatal("expected growSlab to surface the constructor's error")
	}
	// unwind runs dtor over cells 0..n-1 where n is the count already
	// constructed *before* the failing call (see slab.go's unwind call
	// site: s.unwind(c, i), i being the failing index).
	if destructed != failAt-1 {
		t.Fatalf("expected %d cells torn down, got %d", failAt-1, destructed)
	}
}

func TestGrowSlabAllocFailureSurfacesError(t *testing.T) {
	// WithFailAfter(0) disables the budget; with 1 the header KmemAlloc
	// succeeds and the body KmemAlloc fails.
	failing := byteback.NewHeapAllocator().WithFailAfter(1)
	c, err := New[smallCell]("alloc-fail",
		WithCellsPerSlab[smallCell](8),
		WithAllocator[smallCell](failing),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(c.Destroy)

	if _, err := growSlab(c, true); !errors.Is(err, byteback.ErrOutOfMemory) {
		t.Fatalf("expected growSlab to wrap byteback.ErrOutOfMemory, got %v", err)
	}
}

func TestTeardownSlabPanicsOnOutstandingRef(t *testing.T) {
	c := newGrowTestCache[smallCell](t, WithCellsPerSlab[smallCell](4))
	s, err := growSlab(c, true)
	if err != nil {
		t.Fatalf("growSlab failed: %v", err)
	}
	s.ref = 1

	defer func() {
		if recover() == nil {
			t.Fatal("expected teardownSlab to panic with ref != 0")
		}
	}()
	teardownSlab(c, s)
}

func TestSlabFullAndEmpty(t *testing.T) {
	c := newGrowTestCache[smallCell](t, WithCellsPerSlab[smallCell](2))
	s, err := growSlab(c, true)
	if err != nil {
		t.Fatalf("growSlab failed: %v", err)
	}
	if !s.empty() {
		t.Fatal("freshly grown slab should be empty")
	}
	s.ref = 2
	if !s.full() {
		t.Fatal("slab with ref == nCells should be full")
	}
	s.ref = 0
	teardownSlab(c, s)
}
