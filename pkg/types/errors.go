// Package types defines error types
package types

import (
	"errors"
	"fmt"
)

// Predefined errors
var (
	// ErrPoolClosed indicates the pool is draining or stopped and rejects work
	ErrPoolClosed = errors.New("thread pool is closed")

	// ErrPoolNotStarted indicates the pool has not been started yet
	ErrPoolNotStarted = errors.New("thread pool is not started")

	// ErrPoolAlreadyStarted indicates Start was called more than once
	ErrPoolAlreadyStarted = errors.New("thread pool is already started")

	// ErrNilTask indicates a nil task was submitted
	ErrNilTask = errors.New("task cannot be nil")

	// ErrInvalidCapacity indicates a non-positive buffer capacity
	ErrInvalidCapacity = errors.New("capacity must be positive")

	// ErrSchedulerClosed indicates the delay scheduler no longer accepts entries
	ErrSchedulerClosed = errors.New("delay scheduler is closed")

	// ErrTaskGoexit indicates a task ended its goroutine with runtime.Goexit
	ErrTaskGoexit = errors.New("task called runtime.Goexit")

	// ErrTimeout indicates operation timeout
	ErrTimeout = errors.New("operation timeout")
)

// TaskPanicError is produced when a task panics on a worker
type TaskPanicError struct {
	// TaskID is the pool-assigned sequence number of the task
	TaskID uint64

	// Value is the recovered panic value
	Value interface{}

	// Stack is the goroutine stack captured at recovery
	Stack []byte
}

// Error implements the error interface
func (e *TaskPanicError) Error() string {
	return fmt.Sprintf("task %d panicked: %v", e.TaskID, e.Value)
}

// Unwrap returns the panic value when it is an error
func (e *TaskPanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// NewTaskPanicError creates a new task panic error
func NewTaskPanicError(taskID uint64, value interface{}, stack []byte) *TaskPanicError {
	return &TaskPanicError{
		TaskID: taskID,
		Value:  value,
		Stack:  stack,
	}
}

// IsTaskPanic reports whether err wraps a TaskPanicError
func IsTaskPanic(err error) bool {
	var panicErr *TaskPanicError
	return errors.As(err, &panicErr)
}
