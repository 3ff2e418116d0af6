package ring

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sys/cpu"

	"github.com/jzx17/inputrec/pkg/types"
)

// Ensure compile-time interface compliance.
var _ types.Buffer[any] = (*RingBuffer[any])(nil)

// RingBuffer is a bounded circular queue for one producer and one consumer.
//
// read and write are logical, unbounded counters; the physical slot is the
// counter modulo capacity. write-read never exceeds capacity.
type RingBuffer[T any] struct {
	// consumer side
	read        atomic.Uint64
	cachedWrite uint64
	_           cpu.CacheLinePad

	// producer side
	write      atomic.Uint64
	cachedRead uint64
	_          cpu.CacheLinePad

	// read-only after construction
	slots    []T
	capacity uint64
	mask     uint64
	pow2     bool
}

// New allocates a ring buffer holding exactly capacity elements.
// A power-of-two capacity indexes slots by masking instead of modulo.
func New[T any](capacity int) (*RingBuffer[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w, got %d", types.ErrInvalidCapacity, capacity)
	}
	c := uint64(capacity)
	return &RingBuffer[T]{
		slots:    make([]T, c),
		capacity: c,
		mask:     c - 1,
		pow2:     c&(c-1) == 0,
	}, nil
}

// MustNew is like New but panics on an invalid capacity.
func MustNew[T any](capacity int) *RingBuffer[T] {
	rb, err := New[T](capacity)
	if err != nil {
		panic(err)
	}
	return rb
}

func (r *RingBuffer[T]) slot(i uint64) uint64 {
	if r.pow2 {
		return i & r.mask
	}
	return i % r.capacity
}

// Push stores v at the tail. Producer only.
// It returns false, leaving the buffer untouched, when the buffer is full.
func (r *RingBuffer[T]) Push(v T) bool {
	w := r.write.Load()
	if w-r.cachedRead >= r.capacity {
		// looks full through the cached index, refresh it
		r.cachedRead = r.read.Load()
		if w-r.cachedRead >= r.capacity {
			return false
		}
	}
	r.slots[r.slot(w)] = v
	r.write.Store(w + 1) // publish the slot
	return true
}

// Pop removes the element at the head. Consumer only.
// It returns false, leaving the buffer untouched, when the buffer is empty.
func (r *RingBuffer[T]) Pop() (T, bool) {
	var zero T
	rd := r.read.Load()
	if rd == r.cachedWrite {
		r.cachedWrite = r.write.Load()
		if rd == r.cachedWrite {
			return zero, false
		}
	}
	i := r.slot(rd)
	v := r.slots[i]
	r.slots[i] = zero
	r.read.Store(rd + 1) // release the slot
	return v, true
}

// DrainTo pops every element visible to the consumer and appends it to dst.
// Consumer only. Elements pushed while draining may or may not be included.
func (r *RingBuffer[T]) DrainTo(dst []T) []T {
	for {
		v, ok := r.Pop()
		if !ok {
			return dst
		}
		dst = append(dst, v)
	}
}

// Size returns the number of unconsumed elements as seen at the moment of
// the call. It may be stale by the time the caller acts on it, so treat it
// as a hint for whether a drain is worth attempting, never as an exact count.
func (r *RingBuffer[T]) Size() int {
	// read first: read <= write holds at every instant and write only grows
	rd := r.read.Load()
	w := r.write.Load()
	n := w - rd
	if n > r.capacity {
		// the consumer popped and the producer refilled between the loads
		n = r.capacity
	}
	return int(n)
}

// Cap returns the fixed buffer capacity.
func (r *RingBuffer[T]) Cap() int {
	return int(r.capacity)
}
