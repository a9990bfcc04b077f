package byteback

import (
	"fmt"
	"sync"
)

// leak.go is the Go equivalent of spl-kmem.c's DEBUG_KMEM/DEBUG_KMEM_TRACKING
// accounting: an optional decorator that records every outstanding
// allocation so leaks can be reported at shutdown, without imposing any
// cost on the default build. It is an auxiliary diagnostic feature, not
// part of the allocator's engineering core — it lives here, outside
// package cache, for exactly that reason.

// LeakTracker wraps an Allocator and records every live allocation's size,
// keyed by its backing array's first-byte address. Used == 0 after every
// cell has been freed means nothing leaked.
type LeakTracker struct {
	next Allocator

	mu        sync.Mutex
	kmemLive  map[*byte]int
	vmemLive  map[*byte]int
	kmemUsed  int64
	vmemUsed  int64
	kmemPeak  int64
	vmemPeak  int64
}

// WrapWithLeakTracking decorates an existing Allocator with accounting.
func WrapWithLeakTracking(next Allocator) *LeakTracker {
	return &LeakTracker{
		next:     next,
		kmemLive: make(map[*byte]int),
		vmemLive: make(map[*byte]int),
	}
}

func (l *LeakTracker) KmemAlloc(size int, sleep bool) ([]byte, error) {
	b, err := l.next.KmemAlloc(size, sleep)
	if err != nil {
		return nil, err
	}
	l.track(l.kmemLive, &l.kmemUsed, &l.kmemPeak, b, size)
	return b, nil
}

func (l *LeakTracker) KmemFree(b []byte) {
	l.untrack(l.kmemLive, &l.kmemUsed, b)
	l.next.KmemFree(b)
}

func (l *LeakTracker) VmemAlloc(size int, sleep bool) ([]byte, error) {
	b, err := l.next.VmemAlloc(size, sleep)
	if err != nil {
		return nil, err
	}
	l.track(l.vmemLive, &l.vmemUsed, &l.vmemPeak, b, size)
	return b, nil
}

func (l *LeakTracker) VmemFree(b []byte) {
	l.untrack(l.vmemLive, &l.vmemUsed, b)
	l.next.VmemFree(b)
}

func (l *LeakTracker) track(live map[*byte]int, used, peak *int64, b []byte, size int) {
	if len(b) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	live[&b[0]] = size
	*used += int64(size)
	if *used > *peak {
		*peak = *used
	}
}

func (l *LeakTracker) untrack(live map[*byte]int, used *int64, b []byte) {
	if len(b) == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	key := &b[0]
	if size, ok := live[key]; ok {
		delete(live, key)
		*used -= int64(size)
	}
}

// Outstanding reports the number of bytes currently tracked as allocated
// and not yet freed, for kmem and vmem allocations respectively.
func (l *LeakTracker) Outstanding() (kmemUsed, vmemUsed int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.kmemUsed, l.vmemUsed
}

// Peak reports the high-water mark of outstanding bytes for each class.
func (l *LeakTracker) Peak() (kmemPeak, vmemPeak int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.kmemPeak, l.vmemPeak
}

// Report returns a human-readable summary of any outstanding allocations,
// analogous to spl-kmem.c's "kmem leaked %ld/%ld bytes" warning emitted at
// module unload.
func (l *LeakTracker) Report() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.kmemUsed == 0 && l.vmemUsed == 0 {
		return ""
	}
	return fmt.Sprintf("byteback: leaked kmem=%d/%d vmem=%d/%d bytes",
		l.kmemUsed, l.kmemPeak, l.vmemUsed, l.vmemPeak)
}
