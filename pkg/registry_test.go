package cache

import (
	"testing"
	"time"
)

type regProbeA struct{ x [32]byte }
type regProbeB struct{ y [96]byte }

func TestGlobalReapWalksRegistry(t *testing.T) {
	a, err := New[regProbeA]("registry-probe-a",
		WithCellsPerSlab[regProbeA](16),
		WithReapDelay[regProbeA](10*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New(a) failed: %v", err)
	}
	t.Cleanup(a.Destroy)

	b, err := New[regProbeB]("registry-probe-b",
		WithCellsPerSlab[regProbeB](16),
		WithReapDelay[regProbeB](10*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New(b) failed: %v", err)
	}
	t.Cleanup(b.Destroy)

	pa, err := a.Alloc(true)
	if err != nil {
		t.Fatalf("alloc(a) failed: %v", err)
	}
	a.Free(pa)

	pb, err := b.Alloc(true)
	if err != nil {
		t.Fatalf("alloc(b) failed: %v", err)
	}
	b.Free(pb)

	time.Sleep(30 * time.Millisecond)

	results := Reap()
	ra, ok := results["registry-probe-a"]
	if !ok {
		t.Fatal("expected global Reap to include registry-probe-a")
	}
	rb, ok := results["registry-probe-b"]
	if !ok {
		t.Fatal("expected global Reap to include registry-probe-b")
	}
	if ra.SlabsFreed == 0 && ra.MagazinesFlushed == 0 {
		t.Fatal("expected registry-probe-a to have reclaimed something")
	}
	if rb.SlabsFreed == 0 && rb.MagazinesFlushed == 0 {
		t.Fatal("expected registry-probe-b to have reclaimed something")
	}
}

func TestSnapshotIncludesRegisteredCaches(t *testing.T) {
	c, err := New[regProbeA]("registry-snapshot-probe",
		WithCellsPerSlab[regProbeA](16),
		WithReapDelay[regProbeA](10*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(c.Destroy)

	p, err := c.Alloc(true)
	if err != nil {
		t.Fatalf("alloc failed: %v", err)
	}
	// Destroy panics with outstanding allocations; drain first (cleanups
	// run last-registered first).
	t.Cleanup(func() { freeAndQuiesce(t, c, []*regProbeA{p}, 10*time.Millisecond) })

	snap := Snapshot()
	entry, ok := snap.Caches["registry-snapshot-probe"]
	if !ok {
		t.Fatal("expected Snapshot to include the registered cache by name")
	}
	stats, ok := entry.(Stats)
	if !ok {
		t.Fatalf("expected snapshot entry to be of type Stats, got %T", entry)
	}
	// The first Alloc refills a whole quantum into the magazine: a 32-byte
	// cell gets a 512-deep magazine, refill (512+1)/2 = 256, and obj_alloc
	// counts every cell moved out of a slab, magazine-held ones included.
	if stats.ObjAlloc != 256 {
		t.Fatalf("expected obj_alloc=256 in the snapshot, got %d", stats.ObjAlloc)
	}
}

func TestUnregisterOnDestroyRemovesFromSnapshot(t *testing.T) {
	c, err := New[regProbeB]("registry-unregister-probe", WithCellsPerSlab[regProbeB](16))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	c.Destroy()

	snap := Snapshot()
	if _, ok := snap.Caches["registry-unregister-probe"]; ok {
		t.Fatal("expected a destroyed cache to be removed from the registry snapshot")
	}
}

func TestBootstrapCountersAdvanceOnSmallSlabGrowth(t *testing.T) {
	before := Snapshot().Bootstrap.SlabHeaderAllocs

	c, err := New[regProbeA]("registry-bootstrap-probe",
		WithCellsPerSlab[regProbeA](8),
		WithReapDelay[regProbeA](10*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(c.Destroy)

	p, err := c.Alloc(true)
	if err != nil {
		t.Fatalf("alloc failed: %v", err)
	}
	t.Cleanup(func() { freeAndQuiesce(t, c, []*regProbeA{p}, 10*time.Millisecond) })

	after := Snapshot().Bootstrap.SlabHeaderAllocs
	if after <= before {
		t.Fatalf("expected bootstrap slab-header allocation count to advance, before=%d after=%d", before, after)
	}
}
