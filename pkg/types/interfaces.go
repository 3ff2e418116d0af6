// Package types defines core interfaces and types shared by the ring buffer,
// the delay scheduler and the thread pool
package types

import (
	"time"
)

// TaskFunc is a zero-argument, side-effecting unit of work.
// Nothing is returned to the submitter; a panic counts as a task failure.
type TaskFunc func()

// Buffer is a bounded, non-blocking queue of T
type Buffer[T any] interface {
	// Push appends v, returning false when the buffer is full
	Push(v T) bool

	// Pop removes the oldest element, returning false when empty
	Pop() (T, bool)

	// Size returns an occupancy hint
	Size() int

	// Cap returns the fixed capacity
	Cap() int
}

// Submitter accepts immediate work
type Submitter interface {
	// Submit enqueues task for execution as soon as a worker is free
	Submit(task TaskFunc) error
}

// DelaySubmitter accepts work that becomes ready after a delay
type DelaySubmitter interface {
	// AddDelayTask enqueues task once delay has elapsed
	AddDelayTask(delay time.Duration, task TaskFunc) error
}

// Pool defines the thread pool interface
type Pool interface {
	Submitter
	DelaySubmitter

	// Shutdown stops accepting work and wakes all workers; it does not block
	Shutdown()

	// Close shuts the pool down and waits for every worker to exit
	Close() error

	// State returns the pool lifecycle state
	State() PoolState

	// Size returns the number of workers
	Size() int

	// Stats returns pool statistics
	Stats() PoolStats
}

// PoolState defines the lifecycle state of a Pool
type PoolState int32

const (
	// PoolCreated pool has been created but not started
	PoolCreated PoolState = iota
	// PoolRunning pool accepts and dispatches work
	PoolRunning
	// PoolDraining pool rejects work while in-flight tasks finish
	PoolDraining
	// PoolStopped all workers have exited
	PoolStopped
)

// String returns the string representation of PoolState
func (ps PoolState) String() string {
	switch ps {
	case PoolCreated:
		return "Created"
	case PoolRunning:
		return "Running"
	case PoolDraining:
		return "Draining"
	case PoolStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// PoolStats defines statistics for a Pool
type PoolStats struct {
	// PoolSize is the number of workers
	PoolSize int

	// ActiveWorkers is the number of workers currently executing a task
	ActiveWorkers int

	// QueueSize is the number of ready tasks waiting for a worker
	QueueSize int

	// DelayedTasks is the number of entries not yet due
	DelayedTasks int

	// Submitted counts accepted immediate and delayed tasks
	Submitted int64

	// Completed counts tasks that returned normally
	Completed int64

	// Failed counts tasks that panicked
	Failed int64

	// Dropped counts accepted tasks discarded by shutdown without running
	Dropped int64
}

// ErrorHandler defines an error handling function
type ErrorHandler func(error) error
