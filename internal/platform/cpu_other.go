//go:build !linux

package platform

import "sync/atomic"

// rrCounter provides the non-Linux fallback for currentCPU: a simple atomic
// round-robin. It does not track any real per-goroutine affinity, but it
// distributes magazine access across slots the same way a true per-CPU id
// would, and correctness never depends on the mapping being stable (see
// CurrentCPU's doc comment).
var rrCounter atomic.Uint64

func currentCPU() int {
	return int(rrCounter.Add(1))
}
