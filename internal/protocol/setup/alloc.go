package setup

import (
	"fmt"
	"sync"
)

// Buffer is one independently allocated byte buffer handed across the
// foreign boundary. ID is assigned by the allocator that issued it.
type Buffer struct {
	ID   uint64
	Data []byte
}

// Allocator issues and reclaims owned buffers.
type Allocator interface {
	Alloc(n int) Buffer
	Free(b Buffer) error
}

// HeapAllocator backs buffers with Go heap memory; Free only drops the
// reference.
type HeapAllocator struct{}

func (HeapAllocator) Alloc(n int) Buffer { return Buffer{Data: make([]byte, n)} }

func (HeapAllocator) Free(Buffer) error { return nil }

// TrackingAllocator accounts for every buffer it issues. Freed buffers are
// zeroed so a view that outlived its release reads garbage instead of stale
// data, and a second Free of the same buffer fails with ErrDoubleFree.
type TrackingAllocator struct {
	mu     sync.Mutex
	nextID uint64
	live   map[uint64][]byte
	allocs int
	frees  int
}

func NewTrackingAllocator() *TrackingAllocator {
	return &TrackingAllocator{live: make(map[uint64][]byte)}
}

func (a *TrackingAllocator) Alloc(n int) Buffer {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextID++
	data := make([]byte, n)
	a.live[a.nextID] = data
	a.allocs++
	return Buffer{ID: a.nextID, Data: data}
}

func (a *TrackingAllocator) Free(b Buffer) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	data, ok := a.live[b.ID]
	if !ok {
		return fmt.Errorf("%w: buffer %d", ErrDoubleFree, b.ID)
	}
	clear(data)
	delete(a.live, b.ID)
	a.frees++
	return nil
}

// Outstanding is the number of issued buffers not yet freed.
func (a *TrackingAllocator) Outstanding() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

// Counts returns the total allocations and frees performed.
func (a *TrackingAllocator) Counts() (allocs, frees int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocs, a.frees
}
