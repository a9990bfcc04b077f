package unsafehelpers

import (
	"testing"
	"unsafe"
)

func TestAlignUp(t *testing.T) {
	cases := []struct{ x, align, want uintptr }{
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{9, 8, 16},
		{15, 16, 16},
	}
	for _, c := range cases {
		if got := AlignUp(c.x, c.align); got != c.want {
			t.Errorf("AlignUp(%d,%d) = %d, want %d", c.x, c.align, got, c.want)
		}
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	for _, n := range []uintptr{1, 2, 4, 1024} {
		if !IsPowerOfTwo(n) {
			t.Errorf("expected %d to be a power of two", n)
		}
	}
	for _, n := range []uintptr{0, 3, 6, 100} {
		if IsPowerOfTwo(n) {
			t.Errorf("expected %d not to be a power of two", n)
		}
	}
}

func TestPtrSliceAndByteSliceFrom(t *testing.T) {
	arr := [4]int32{10, 20, 30, 40}
	s := PtrSlice(&arr[0], len(arr))
	if len(s) != 4 || s[2] != 30 {
		t.Fatalf("unexpected slice view: %v", s)
	}

	b := ByteSliceFrom(unsafe.Pointer(&arr[0]), unsafe.Sizeof(arr))
	if len(b) != int(unsafe.Sizeof(arr)) {
		t.Fatalf("expected %d bytes, got %d", unsafe.Sizeof(arr), len(b))
	}

	if PtrSlice[int32](nil, 0) != nil {
		t.Fatal("expected nil slice for n=0")
	}
}
