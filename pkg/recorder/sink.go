package recorder

import (
	"io"
	"sync"

	"github.com/rs/zerolog"
)

// HeartbeatFormat is the layout of the "at" field written for each batch
const HeartbeatFormat = "2006-01-02 15:04:05"

// Sink receives polled batches. Implementations must not retain the
// batch slices after Deliver returns.
type Sink interface {
	Deliver(b Batch) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(b Batch) error

// Deliver implements Sink
func (f SinkFunc) Deliver(b Batch) error {
	return f(b)
}

// DiscardSink drops every batch
type DiscardSink struct{}

// Deliver implements Sink
func (DiscardSink) Deliver(Batch) error {
	return nil
}

// WriterSink writes each batch as one JSON object per line:
//
//	{"at":"2024-01-02 15:04:05","mouse":[{"type":4,"x":10,"y":20,"time":153}],"keyboard":[{"type":0,"code":65,"time":160}]}
//
// Empty classes are omitted.
type WriterSink struct {
	mu  sync.Mutex
	w   *errWriter
	out zerolog.Logger
}

// NewWriterSink creates a sink writing to w. Concurrent Deliver calls are
// serialized.
func NewWriterSink(w io.Writer) *WriterSink {
	ew := &errWriter{w: w}
	return &WriterSink{w: ew, out: zerolog.New(ew)}
}

// Deliver implements Sink, returning the underlying write error if any
func (s *WriterSink) Deliver(b Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	event := s.out.Log()
	if !b.At.IsZero() {
		event = event.Str("at", b.At.Format(HeartbeatFormat))
	}
	if len(b.Mouse) > 0 {
		event = event.Array("mouse", mouseRecords(b.Mouse))
	}
	if len(b.Keyboard) > 0 {
		event = event.Array("keyboard", keyboardRecords(b.Keyboard))
	}
	event.Send()

	err := s.w.err
	s.w.err = nil
	return err
}

// errWriter keeps the last write error, which zerolog would otherwise
// report only to its global handler
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) Write(p []byte) (int, error) {
	n, err := ew.w.Write(p)
	if err != nil {
		ew.err = err
	}
	return n, err
}
