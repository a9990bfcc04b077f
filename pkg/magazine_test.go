package cache

import "testing"

func TestMagazineSizeStepFunction(t *testing.T) {
	const page = 4096
	cases := []struct {
		objectSize int
		want       int
	}{
		{300 * page, 4},
		{64 * page, 16},
		{2 * page, 64},
		{page / 2, 128},
		{16, 512},
	}
	for _, c := range cases {
		if got := magazineSize(c.objectSize, page); got != c.want {
			t.Errorf("magazineSize(%d) = %d, want %d", c.objectSize, got, c.want)
		}
	}
}

func TestMagazinePushPop(t *testing.T) {
	m := newMagazine[int](4)
	a, b, c := 1, 2, 3

	m.push(&a, 1)
	m.push(&b, 2)
	if m.avail != 2 {
		t.Fatalf("expected avail=2, got %d", m.avail)
	}

	if got := m.pop(3); got != &b {
		t.Fatalf("expected LIFO pop to return b")
	}
	if got := m.pop(4); got != &a {
		t.Fatalf("expected LIFO pop to return a")
	}
	if m.avail != 0 {
		t.Fatalf("expected avail=0, got %d", m.avail)
	}

	m.push(&a, 5)
	m.push(&b, 6)
	m.push(&c, 7)
	_ = c
}

func TestMagazinePushFullPanics(t *testing.T) {
	m := newMagazine[int](1)
	a, b := 1, 2
	m.push(&a, 1)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic pushing onto a full magazine")
		}
	}()
	m.push(&b, 2)
}

func TestMagazinePopEmptyPanics(t *testing.T) {
	m := newMagazine[int](1)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic popping an empty magazine")
		}
	}()
	m.pop(1)
}

func TestMagazineDrainOldestFIFO(t *testing.T) {
	m := newMagazine[int](4)
	a, b, c, d := 1, 2, 3, 4
	m.push(&a, 1) // bottom, oldest
	m.push(&b, 2)
	m.push(&c, 3)
	m.push(&d, 4) // top, newest

	drained := m.drainOldest(2)
	if len(drained) != 2 || drained[0] != &a || drained[1] != &b {
		t.Fatalf("expected [a,b] drained oldest-first, got %v", drained)
	}
	if m.avail != 2 {
		t.Fatalf("expected avail=2 after draining 2 of 4, got %d", m.avail)
	}
	// Remaining items should have compacted down: c then d.
	if got := m.pop(5); got != &d {
		t.Fatalf("expected top of compacted stack to be d")
	}
	if got := m.pop(6); got != &c {
		t.Fatalf("expected next to be c")
	}
}
