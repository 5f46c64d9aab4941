package qrdet

import (
	"sync"
)

// Pool is a simple pool holding multiple instances of the same Model so
// independent images can be processed concurrently
type Pool struct {
	// pool of models
	models chan Model
	// size of pool
	size  int
	close sync.Once
}

// NewPool creates a new model pool.  The factory is called once per pool slot
// to open a model instance.
func NewPool(size int, factory func() (Model, error)) (*Pool, error) {
	p := &Pool{
		models: make(chan Model, size),
		size:   size,
	}

	for i := 0; i < size; i++ {
		m, err := factory()

		if err != nil {
			// close any instances that may have been created before receiving
			// the error
			p.Close()
			return nil, err
		}

		// attach to pool
		p.Return(m)
	}

	return p, nil
}

// Gets a model from the pool
func (p *Pool) Get() Model {
	return <-p.models
}

// Return a model to the pool
func (p *Pool) Return(m Model) {
	select {
	case p.models <- m:
	default:
		// pool is full or closed
	}
}

// Close the pool and all models in it
func (p *Pool) Close() {
	p.close.Do(func() {
		// close channel
		close(p.models)

		// close all models
		for next := range p.models {
			_ = next.Close()
		}
	})
}
