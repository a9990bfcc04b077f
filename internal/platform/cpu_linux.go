//go:build linux

package platform

import "golang.org/x/sys/unix"

// currentCPU on Linux uses the kernel thread id of the OS thread the calling
// goroutine happens to be running on as a cheap, real-OS-identity stand-in
// for "current CPU". It is not a true CPU id (a thread can migrate between
// cores, and a goroutine can migrate between threads), but it is a live
// property of the executing context rather than a pure software fiction,
// which is the closest approximation available without cgo or runtime
// internals.
func currentCPU() int {
	tid := unix.Gettid()
	if tid < 0 {
		tid = -tid
	}
	return tid
}
