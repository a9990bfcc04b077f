// Package badgerbacked provides an alternate byteback.Allocator whose
// large (Vmem) regions are mirrored into an embedded Badger store, the
// same pattern examples/disk_eject/main.go used for treating Badger as an
// L2 store for cache values. Here Badger backs slab memory itself instead
// of individual cache entries: a process using this allocator can
// Checkpoint a live large-slab region before shutdown and Restore it in a
// later process, giving slab memory an optional persistent-growth path
// that survives restarts.
//
// Small (kmem-style) allocations are never persisted — they still go
// through a plain heap allocator, mirroring internal/byteback's
// ArenaBackedAllocator split between cheap small allocations and
// specially-handled large ones.
//
// © 2025 slabcache authors. MIT License.
package badgerbacked

import (
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Voskan/slabcache/internal/byteback"
	badger "github.com/dgraph-io/badger/v4"
)

const keyPrefix = "slabcache/vmem-region/"

// Allocator satisfies byteback.Allocator. KmemAlloc/KmemFree delegate to a
// plain heap allocator; VmemAlloc/VmemFree additionally mirror the region
// into Badger under a generated key so it can be checkpointed and restored
// across process restarts.
type Allocator struct {
	heap *byteback.HeapAllocator
	db   *badger.DB

	mu      sync.Mutex
	regions map[*byte]uint64 // first-byte address -> region id

	nextID atomic.Uint64
}

// Open starts (or resumes) an embedded Badger instance rooted at dir and
// returns an Allocator backed by it.
func Open(dir string) (*Allocator, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("badgerbacked: open: %w", err)
	}
	return &Allocator{
		heap:    byteback.NewHeapAllocator(),
		db:      db,
		regions: make(map[*byte]uint64),
	}, nil
}

// Close closes the underlying Badger instance. It does not free or
// checkpoint any outstanding regions first — callers that want durable
// state across a restart must Checkpoint before Close.
func (a *Allocator) Close() error {
	return a.db.Close()
}

func (a *Allocator) KmemAlloc(size int, sleep bool) ([]byte, error) {
	return a.heap.KmemAlloc(size, sleep)
}

func (a *Allocator) KmemFree(b []byte) {
	a.heap.KmemFree(b)
}

// VmemAlloc allocates a fresh in-memory region and mirrors it into Badger
// under a new region id so it survives a later Checkpoint/Restore cycle.
func (a *Allocator) VmemAlloc(size int, sleep bool) ([]byte, error) {
	buf := make([]byte, size)
	if len(buf) == 0 {
		return buf, nil
	}

	id := a.nextID.Add(1)
	if err := a.db.Update(func(txn *badger.Txn) error {
		return txn.Set(regionKey(id), buf)
	}); err != nil {
		return nil, fmt.Errorf("badgerbacked: persist region: %w", err)
	}

	a.mu.Lock()
	a.regions[&buf[0]] = id
	a.mu.Unlock()
	return buf, nil
}

// VmemFree drops the region's Badger entry along with the in-memory
// buffer. A region that was never Checkpointed after a write simply loses
// those writes, same as any other VmemFree.
func (a *Allocator) VmemFree(b []byte) {
	if len(b) == 0 {
		return
	}
	a.mu.Lock()
	id, ok := a.regions[&b[0]]
	if ok {
		delete(a.regions, &b[0])
	}
	a.mu.Unlock()
	if !ok {
		return
	}
	_ = a.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(regionKey(id))
	})
}

// RegionID reports the Badger-backed region id for a buffer previously
// returned by VmemAlloc, for passing to Restore in a later process.
func (a *Allocator) RegionID(b []byte) (uint64, bool) {
	if len(b) == 0 {
		return 0, false
	}
	a.mu.Lock()
	id, ok := a.regions[&b[0]]
	a.mu.Unlock()
	return id, ok
}

// Checkpoint persists a live region's current contents to Badger, so a
// region mutated in place after VmemAlloc (as slab headers/bodies are)
// can be recovered even if the process exits without calling VmemFree.
func (a *Allocator) Checkpoint(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	a.mu.Lock()
	id, ok := a.regions[&b[0]]
	a.mu.Unlock()
	if !ok {
		return fmt.Errorf("badgerbacked: checkpoint: unknown region")
	}
	return a.db.Update(func(txn *badger.Txn) error {
		return txn.Set(regionKey(id), b)
	})
}

// Restore loads a previously checkpointed region back into a freshly
// allocated buffer with the same contents, registering it under the same
// id so it can be Checkpointed or freed again.
func (a *Allocator) Restore(id uint64) ([]byte, error) {
	var out []byte
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(regionKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("badgerbacked: restore region %d: %w", id, err)
	}
	if len(out) > 0 {
		a.mu.Lock()
		a.regions[&out[0]] = id
		a.mu.Unlock()
	}
	return out, nil
}

func regionKey(id uint64) []byte {
	key := make([]byte, len(keyPrefix)+8)
	copy(key, keyPrefix)
	binary.BigEndian.PutUint64(key[len(keyPrefix):], id)
	return key
}
