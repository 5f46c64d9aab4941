package postprocess

import (
	"fmt"
	"sync"
)

// bufferPool holds a set of named buffer pools used to avoid allocation
// contention when decoding masks for many candidates
type bufferPool struct {
	mu    sync.Mutex
	pools map[string]*bufferEntry
}

// bufferEntry defines a single buffer
type bufferEntry struct {
	pool    sync.Pool
	maxSize int
}

// NewBufferPool returns an empty bufferPool
func NewBufferPool() *bufferPool {
	return &bufferPool{
		pools: make(map[string]*bufferEntry),
	}
}

// Create registers a new pool under 'name' that will produce buffers up to
// maxSize.  Calling it twice with the same name returns an error.
func (b *bufferPool) Create(name string, maxSize int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.pools[name]; exists {
		return fmt.Errorf("buffer pool %q already exists", name)
	}

	entry := &bufferEntry{maxSize: maxSize}

	entry.pool.New = func() any {
		return make([]uint8, maxSize)
	}

	b.pools[name] = entry
	return nil
}

// Get returns a zeroed []uint8 slice of length 'size' from the named pool.
// If size exceeds the pool's maxSize a new slice of exactly size is
// allocated.  Panics if the pool name is unknown.
func (b *bufferPool) Get(name string, size int) []uint8 {
	b.mu.Lock()
	entry, ok := b.pools[name]
	b.mu.Unlock()

	if !ok {
		panic(fmt.Sprintf("buffer pool %q not registered", name))
	}

	buf := entry.pool.Get().([]uint8)

	if cap(buf) < size {
		return make([]uint8, size)
	}

	buf = buf[:size]

	// zero out the buffer
	for i := range buf {
		buf[i] = 0
	}

	return buf
}

// Put returns a buffer back into it's named pool.  You must only call Put on
// a buffer you previously got via Get with the same name.
func (b *bufferPool) Put(name string, buf []uint8) {
	b.mu.Lock()
	entry, ok := b.pools[name]
	b.mu.Unlock()

	if !ok {
		panic(fmt.Sprintf("buffer pool %q not registered", name))
	}

	if cap(buf) < entry.maxSize {
		// undersized buffer from an oversize Get, let it be collected
		return
	}

	// restore to full capacity so it matches entry.New next time
	entry.pool.Put(buf[:entry.maxSize])
}
