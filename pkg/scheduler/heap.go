package scheduler

import (
	"time"

	"github.com/jzx17/inputrec/pkg/types"
)

// entry is a pending task with its due time
type entry struct {
	due  time.Time
	seq  uint64 // submission order, breaks ties between equal due times
	task types.TaskFunc
}

// entryHeap is a min-heap on (due, seq)
type entryHeap []*entry

// Len implements heap.Interface
func (h entryHeap) Len() int { return len(h) }

// Less implements heap.Interface - earliest due first, FIFO for equal due
func (h entryHeap) Less(i, j int) bool {
	if !h[i].due.Equal(h[j].due) {
		return h[i].due.Before(h[j].due)
	}
	return h[i].seq < h[j].seq
}

// Swap implements heap.Interface
func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

// Push implements heap.Interface
func (h *entryHeap) Push(x interface{}) {
	*h = append(*h, x.(*entry))
}

// Pop implements heap.Interface
func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return item
}
