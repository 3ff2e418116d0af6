// Package scheduler holds tasks until their due time.
//
// DelayScheduler only orders pending work; it never executes anything and has
// no notion of periodic tasks. A driver polls PopReady and hands released
// tasks to whatever runs them. A task that wants to repeat schedules itself
// again as its final action.
package scheduler

import (
	"container/heap"
	"sync"
	"time"

	"github.com/jzx17/inputrec/pkg/types"
)

// DelayScheduler is a set of pending tasks retrieved in ascending due-time
// order, with submission order breaking ties. It is safe for concurrent use.
type DelayScheduler struct {
	mu     sync.Mutex
	heap   entryHeap
	seq    uint64
	closed bool

	clock  types.Clock
	notify chan struct{}
}

// NewDelayScheduler creates a delay scheduler reading time from clock
func NewDelayScheduler(clock types.Clock) *DelayScheduler {
	return &DelayScheduler{
		heap:   make(entryHeap, 0),
		clock:  types.OrRealClock(clock),
		notify: make(chan struct{}, 1),
	}
}

// Schedule registers task to become ready delay from now.
// A non-positive delay makes the task ready immediately.
func (s *DelayScheduler) Schedule(delay time.Duration, task types.TaskFunc) error {
	if delay < 0 {
		delay = 0
	}
	return s.ScheduleAt(s.clock.Now().Add(delay), task)
}

// ScheduleAt registers task to become ready at due
func (s *DelayScheduler) ScheduleAt(due time.Time, task types.TaskFunc) error {
	if task == nil {
		return types.ErrNilTask
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return types.ErrSchedulerClosed
	}
	s.seq++
	e := &entry{due: due, seq: s.seq, task: task}
	heap.Push(&s.heap, e)
	earliest := s.heap[0] == e
	s.mu.Unlock()

	// only a new head can shorten the driver's wait
	if earliest {
		s.signal()
	}
	return nil
}

// PopReady removes and returns the earliest task whose due time is not after
// now. Entries that are not yet due are left untouched.
func (s *DelayScheduler) PopReady(now time.Time) (types.TaskFunc, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.heap) == 0 || s.heap[0].due.After(now) {
		return nil, false
	}
	e := heap.Pop(&s.heap).(*entry)
	return e.task, true
}

// PeekNextDue returns the earliest due time among pending entries
func (s *DelayScheduler) PeekNextDue() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.heap) == 0 {
		return time.Time{}, false
	}
	return s.heap[0].due, true
}

// Len returns the number of pending entries
func (s *DelayScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.heap)
}

// Notify returns a channel that receives a value whenever the earliest due
// time moves earlier, or when the scheduler is closed
func (s *DelayScheduler) Notify() <-chan struct{} {
	return s.notify
}

// Close drops all pending entries without running them and rejects further
// scheduling. It returns the number of dropped entries and is idempotent.
func (s *DelayScheduler) Close() int {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0
	}
	s.closed = true
	dropped := len(s.heap)
	for i := range s.heap {
		s.heap[i] = nil
	}
	s.heap = s.heap[:0]
	s.mu.Unlock()

	s.signal()
	return dropped
}

// IsClosed reports whether Close has been called
func (s *DelayScheduler) IsClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *DelayScheduler) signal() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}
