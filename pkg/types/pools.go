// Package types provides object pools for performance optimization
package types

import (
	"sync"
)

// SlicePool manages reusable []T buffers to reduce GC pressure on hot drain paths
type SlicePool[T any] struct {
	pool sync.Pool
}

// NewSlicePool creates a new slice pool whose fresh slices have capacity size
func NewSlicePool[T any](size int) *SlicePool[T] {
	return &SlicePool[T]{
		pool: sync.Pool{
			New: func() interface{} {
				s := make([]T, 0, size)
				return &s
			},
		},
	}
}

// Get retrieves an empty slice from the pool or creates a new one
func (sp *SlicePool[T]) Get() []T {
	return (*sp.pool.Get().(*[]T))[:0]
}

// Put returns a slice to the pool after resetting it
func (sp *SlicePool[T]) Put(s []T) {
	if s == nil {
		return
	}
	// Reset the elements to prevent memory leaks
	var zero T
	for i := range s {
		s[i] = zero
	}
	s = s[:0]
	sp.pool.Put(&s)
}
