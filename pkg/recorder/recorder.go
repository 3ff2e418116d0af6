// Package recorder connects an input-event producer to a periodic consumer.
//
// A single producer, typically an OS input hook, calls RecordMouse and
// RecordKeyboard. Each event class has its own lock-free SPSC ring so the
// producer never blocks. A periodic poll running on a worker.ThreadPool
// drains the rings, converts events to times relative to the recording
// start and hands the result to a Sink.
package recorder

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/jzx17/inputrec/pkg/ring"
	"github.com/jzx17/inputrec/pkg/types"
	"github.com/jzx17/inputrec/pkg/worker"
)

var (
	// ErrPollInProgress is returned when Poll is called while another poll runs
	ErrPollInProgress = errors.New("recorder: poll already in progress")

	// ErrAlreadyStarted is returned when Start is called twice
	ErrAlreadyStarted = errors.New("recorder: already started")

	// ErrClosed is returned when the recorder has been closed
	ErrClosed = errors.New("recorder: closed")
)

// Config defines configuration for a Recorder
type Config struct {
	// MouseCapacity is the mouse ring capacity
	MouseCapacity int

	// KeyboardCapacity is the keyboard ring capacity
	KeyboardCapacity int

	// PollInterval is the delay between the end of one poll and the next
	PollInterval time.Duration

	// Heartbeat delivers a batch on every poll, even when nothing was recorded
	Heartbeat bool

	// DropLogInterval throttles ring overflow warnings
	DropLogInterval time.Duration

	// Sink receives polled batches (optional, defaults to DiscardSink)
	Sink Sink

	// Clock for time operations (optional, defaults to real clock)
	Clock types.Clock

	Logger zerolog.Logger
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		MouseCapacity:    64,
		KeyboardCapacity: 64,
		PollInterval:     250 * time.Microsecond,
		DropLogInterval:  time.Second,
		Clock:            types.NewRealClock(),
		Logger:           zerolog.Nop(),
	}
}

// Stats defines Recorder statistics
type Stats struct {
	MouseRecorded     int64
	MouseDropped      int64
	MouseDelivered    int64
	KeyboardRecorded  int64
	KeyboardDropped   int64
	KeyboardDelivered int64
	Batches           int64
	SinkErrors        int64
}

// Recorder buffers input events and delivers them in batches
type Recorder struct {
	config   *Config
	clock    types.Clock
	logger   zerolog.Logger
	state    *State
	sink     Sink
	mouse    *ring.RingBuffer[MouseEvent]
	keyboard *ring.RingBuffer[KeyboardEvent]

	mouseSlices    *types.SlicePool[MouseRecord]
	keyboardSlices *types.SlicePool[KeyboardRecord]

	polling atomic.Bool
	started atomic.Bool
	closed  atomic.Bool

	dropLog rate.Sometimes
	sinkLog rate.Sometimes

	mouseRecorded     atomic.Int64
	mouseDropped      atomic.Int64
	mouseDelivered    atomic.Int64
	keyboardRecorded  atomic.Int64
	keyboardDropped   atomic.Int64
	keyboardDelivered atomic.Int64
	batches           atomic.Int64
	sinkErrors        atomic.Int64
}

// New creates a Recorder. It does not poll until Start is called.
func New(config *Config) (*Recorder, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.PollInterval < 0 {
		return nil, fmt.Errorf("poll interval must not be negative, got %v", config.PollInterval)
	}

	mouse, err := ring.New[MouseEvent](config.MouseCapacity)
	if err != nil {
		return nil, fmt.Errorf("mouse ring: %w", err)
	}
	keyboard, err := ring.New[KeyboardEvent](config.KeyboardCapacity)
	if err != nil {
		return nil, fmt.Errorf("keyboard ring: %w", err)
	}

	clock := types.OrRealClock(config.Clock)
	sink := config.Sink
	if sink == nil {
		sink = DiscardSink{}
	}
	dropInterval := config.DropLogInterval
	if dropInterval <= 0 {
		dropInterval = time.Second
	}

	return &Recorder{
		config:         config,
		clock:          clock,
		logger:         config.Logger.With().Str("component", "recorder").Logger(),
		state:          NewState(clock.Now()),
		sink:           sink,
		mouse:          mouse,
		keyboard:       keyboard,
		mouseSlices:    types.NewSlicePool[MouseRecord](config.MouseCapacity),
		keyboardSlices: types.NewSlicePool[KeyboardRecord](config.KeyboardCapacity),
		dropLog:        rate.Sometimes{First: 1, Interval: dropInterval},
		sinkLog:        rate.Sometimes{First: 1, Interval: dropInterval},
	}, nil
}

// State returns the shared flags
func (r *Recorder) State() *State {
	return r.state
}

// BeginRecording starts capturing events, measuring times from now
func (r *Recorder) BeginRecording() {
	r.state.BeginRecording(r.clock.Now())
	r.logger.Info().Msg("recording started")
}

// StopRecording stops capturing events. Buffered events are still delivered.
func (r *Recorder) StopRecording() {
	r.state.StopRecording()
	r.logger.Info().Msg("recording stopped")
}

// RecordMouse captures a mouse event. It must only be called from the single
// producer goroutine. It never blocks and returns false when not recording or
// when the mouse ring is full, in which case the event is dropped.
func (r *Recorder) RecordMouse(action MouseAction, x, y int32) bool {
	if !r.state.Recording() {
		return false
	}
	if !r.mouse.Push(MouseEvent{Time: r.clock.Now(), Action: action, X: x, Y: y}) {
		r.mouseDropped.Add(1)
		r.logDrop("mouse", r.mouse.Cap())
		return false
	}
	r.mouseRecorded.Add(1)
	return true
}

// RecordKeyboard captures a keyboard event. The same single-producer rule as
// RecordMouse applies.
func (r *Recorder) RecordKeyboard(action KeyAction, code uint32) bool {
	if !r.state.Recording() {
		return false
	}
	if !r.keyboard.Push(KeyboardEvent{Time: r.clock.Now(), Action: action, Code: code}) {
		r.keyboardDropped.Add(1)
		r.logDrop("keyboard", r.keyboard.Cap())
		return false
	}
	r.keyboardRecorded.Add(1)
	return true
}

func (r *Recorder) logDrop(class string, capacity int) {
	r.dropLog.Do(func() {
		r.logger.Warn().
			Str("class", class).
			Int("capacity", capacity).
			Int64("mouse_dropped", r.mouseDropped.Load()).
			Int64("keyboard_dropped", r.keyboardDropped.Load()).
			Msg("ring full, dropping input events")
	})
}

// Poll drains both rings and delivers one batch to the sink. It is the only
// consumer of the rings; a call that overlaps another Poll returns
// ErrPollInProgress without touching them. Poll returns the number of records
// drained.
func (r *Recorder) Poll() (int, error) {
	if !r.polling.CompareAndSwap(false, true) {
		return 0, ErrPollInProgress
	}
	defer r.polling.Store(false)

	start := r.state.StartTime()
	batch := Batch{At: r.clock.Now()}

	if r.mouse.Size() > 0 {
		batch.Mouse = r.mouseSlices.Get()
		defer func() { r.mouseSlices.Put(batch.Mouse) }()
		for {
			ev, ok := r.mouse.Pop()
			if !ok {
				break
			}
			batch.Mouse = append(batch.Mouse, MouseRecord{
				Type: ev.Action,
				X:    ev.X,
				Y:    ev.Y,
				Time: ev.Time.Sub(start).Milliseconds(),
			})
		}
	}

	if r.keyboard.Size() > 0 {
		batch.Keyboard = r.keyboardSlices.Get()
		defer func() { r.keyboardSlices.Put(batch.Keyboard) }()
		for {
			ev, ok := r.keyboard.Pop()
			if !ok {
				break
			}
			batch.Keyboard = append(batch.Keyboard, KeyboardRecord{
				Type: ev.Action,
				Code: ev.Code,
				Time: ev.Time.Sub(start).Milliseconds(),
			})
		}
	}

	n := len(batch.Mouse) + len(batch.Keyboard)
	if n == 0 && !r.config.Heartbeat {
		return 0, nil
	}

	if err := r.sink.Deliver(batch); err != nil {
		r.sinkErrors.Add(1)
		return n, fmt.Errorf("deliver batch: %w", err)
	}
	r.batches.Add(1)
	r.mouseDelivered.Add(int64(len(batch.Mouse)))
	r.keyboardDelivered.Add(int64(len(batch.Keyboard)))
	return n, nil
}

// poll is the periodic task body
func (r *Recorder) poll() {
	if _, err := r.Poll(); err != nil && !errors.Is(err, ErrPollInProgress) {
		r.sinkLog.Do(func() {
			r.logger.Warn().Err(err).Int64("sink_errors", r.sinkErrors.Load()).Msg("poll failed")
		})
	}
}

// Start installs the periodic poll on pool. The poll re-enqueues itself every
// PollInterval until Close is called or the pool stops accepting work, at
// which point State().Running reports false. A failed Start may be retried.
func (r *Recorder) Start(pool types.DelaySubmitter) error {
	if r.closed.Load() {
		return ErrClosed
	}
	if !r.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	r.state.running.Store(true)
	if err := worker.Repeat(pool, r.config.PollInterval, r.state.liveness(), r.poll); err != nil {
		r.state.running.Store(false)
		r.started.Store(false)
		return fmt.Errorf("schedule poll: %w", err)
	}

	r.logger.Debug().Dur("interval", r.config.PollInterval).Msg("poll started")
	return nil
}

// Close stops recording and clears the running flag, so the periodic poll
// runs at most once more. Events still buffered can be collected with a
// final Poll. Close is idempotent.
func (r *Recorder) Close() {
	if !r.closed.CompareAndSwap(false, true) {
		return
	}
	r.state.StopRecording()
	r.state.running.Store(false)
	r.logger.Debug().Msg("recorder closed")
}

// Stats gets recorder statistics
func (r *Recorder) Stats() Stats {
	return Stats{
		MouseRecorded:     r.mouseRecorded.Load(),
		MouseDropped:      r.mouseDropped.Load(),
		MouseDelivered:    r.mouseDelivered.Load(),
		KeyboardRecorded:  r.keyboardRecorded.Load(),
		KeyboardDropped:   r.keyboardDropped.Load(),
		KeyboardDelivered: r.keyboardDelivered.Load(),
		Batches:           r.batches.Load(),
		SinkErrors:        r.sinkErrors.Load(),
	}
}
