package result

import "sync"

// IDGenerator hands out incremental detection result IDs.  It is safe for
// concurrent use.
type IDGenerator struct {
	mu sync.Mutex
	id int64
}

// NewIDGenerator returns an IDGenerator whose first ID is 1
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

// GetNext returns the next incremental ID number
func (g *IDGenerator) GetNext() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.id++
	return g.id
}
