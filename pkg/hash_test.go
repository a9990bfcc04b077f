package cache

import "testing"

func TestInUseHashInsertLookupRemove(t *testing.T) {
	var h inUseHash[int]
	bodies := make([]int, 8)
	headers := make([]*objHeader[int], len(bodies))

	for i := range bodies {
		headers[i] = &objHeader[int]{magic: objHeaderMagic, body: &bodies[i]}
		h.insert(headers[i])
	}
	if h.count != len(bodies) {
		t.Fatalf("expected count=%d, got %d", len(bodies), h.count)
	}

	for i := range bodies {
		got := h.lookup(&bodies[i])
		if got != headers[i] {
			t.Fatalf("lookup mismatch at %d", i)
		}
	}

	h.remove(headers[3])
	if h.count != len(bodies)-1 {
		t.Fatalf("expected count=%d after remove, got %d", len(bodies)-1, h.count)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic looking up a removed header")
		}
	}()
	h.lookup(&bodies[3])
}

func TestInUseHashRemoveMissingPanics(t *testing.T) {
	var h inUseHash[int]
	var x int
	hdr := &objHeader[int]{magic: objHeaderMagic, body: &x}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic removing a header never inserted")
		}
	}()
	h.remove(hdr)
}
