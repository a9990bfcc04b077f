package platform

import "runtime"

// NumCPU returns the number of logical CPU slots the cache should size its
// per-CPU magazine array to. We use GOMAXPROCS rather than NumCPU so the
// slot count tracks however many Ps the runtime actually schedules onto,
// which is what bounds concurrent magazine access in practice.
func NumCPU() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		return 1
	}
	return n
}

// CurrentCPU returns the calling goroutine's current logical CPU slot, in
// [0, NumCPU()). It is intentionally cheap and approximate: Go provides no
// portable, public way to read the true OS CPU id or to pin a goroutine to
// one for the duration of a critical section. The allocator does not rely
// on CurrentCPU being stable across a blocking call — Alloc/Free re-read it
// after anything that can sleep (slab grow) and restart if it changed, the
// same way a preemptible kernel allocator must re-check its CPU slot after
// re-enabling interrupts around a refill.
func CurrentCPU() int {
	return currentCPU() % NumCPU()
}
