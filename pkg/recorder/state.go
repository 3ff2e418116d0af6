package recorder

import (
	"sync/atomic"
	"time"
)

// State holds the liveness and recording flags shared between the input
// producer, the periodic poll and the control surface.
type State struct {
	running   atomic.Bool
	recording atomic.Bool
	start     atomic.Pointer[time.Time]
}

// NewState creates a stopped, non-recording state
func NewState(now time.Time) *State {
	s := &State{}
	s.start.Store(&now)
	return s
}

// Running reports whether the periodic poll should keep resubmitting
func (s *State) Running() bool {
	return s.running.Load()
}

// Recording reports whether producers should capture events
func (s *State) Recording() bool {
	return s.recording.Load()
}

// BeginRecording resets the recording start time and enables capture
func (s *State) BeginRecording(now time.Time) {
	s.start.Store(&now)
	s.recording.Store(true)
}

// StopRecording disables capture; events already buffered are still polled
func (s *State) StopRecording() {
	s.recording.Store(false)
}

// StartTime returns the time the current recording began
func (s *State) StartTime() time.Time {
	return *s.start.Load()
}

// liveness exposes the running flag to worker.Repeat
func (s *State) liveness() *atomic.Bool {
	return &s.running
}
