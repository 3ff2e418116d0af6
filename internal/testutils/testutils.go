// Package testutils provides simplified testing utilities and helper functions
package testutils

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Defaults for AssertEventually style waits
const (
	DefaultWait = 2 * time.Second
	DefaultTick = time.Millisecond
)

// Counter is a mutex-guarded call recorder for tasks running on other goroutines
type Counter struct {
	mu    sync.Mutex
	calls []time.Time
}

// Mark records one call at t
func (c *Counter) Mark(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, t)
}

// Count returns the number of recorded calls
func (c *Counter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// Calls returns a copy of the recorded call times
func (c *Counter) Calls() []time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Time, len(c.calls))
	copy(out, c.calls)
	return out
}

// Recorder collects values in arrival order across goroutines
type Recorder[T any] struct {
	mu     sync.Mutex
	values []T
}

// Add appends v
func (r *Recorder[T]) Add(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

// Values returns a copy of the collected values
func (r *Recorder[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.values))
	copy(out, r.values)
	return out
}

// Len returns the number of collected values
func (r *Recorder[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}

// AssertEventually waits for condition to be true using the default wait and tick
func AssertEventually(t testing.TB, condition func() bool, msgAndArgs ...interface{}) bool {
	t.Helper()
	return assert.Eventually(t, condition, DefaultWait, DefaultTick, msgAndArgs...)
}

// WaitClosed reports whether ch is closed within timeout
func WaitClosed(ch <-chan struct{}, timeout time.Duration) bool {
	select {
	case <-ch:
		return true
	case <-time.After(timeout):
		return false
	}
}
