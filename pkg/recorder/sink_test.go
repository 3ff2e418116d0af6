package recorder

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct{ err error }

func (w failingWriter) Write([]byte) (int, error) { return 0, w.err }

func TestWriterSink_Deliver(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriterSink(&buf)

	at := time.Date(2024, 3, 9, 8, 30, 15, 0, time.UTC)
	err := sink.Deliver(Batch{
		At:       at,
		Mouse:    []MouseRecord{{Type: MouseLeftDown, X: 10, Y: 20, Time: 153}},
		Keyboard: []KeyboardRecord{{Type: KeyUp, Code: 65, Time: 160}},
	})
	require.NoError(t, err)

	line := strings.TrimSpace(buf.String())
	assert.Equal(t,
		`{"at":"2024-03-09 08:30:15","mouse":[{"type":0,"x":10,"y":20,"time":153}],"keyboard":[{"type":1,"code":65,"time":160}]}`,
		line)

	// the records round-trip through their json tags
	var decoded struct {
		Mouse    []MouseRecord    `json:"mouse"`
		Keyboard []KeyboardRecord `json:"keyboard"`
	}
	require.NoError(t, json.Unmarshal([]byte(line), &decoded))
	assert.Equal(t, []MouseRecord{{Type: MouseLeftDown, X: 10, Y: 20, Time: 153}}, decoded.Mouse)
	assert.Equal(t, []KeyboardRecord{{Type: KeyUp, Code: 65, Time: 160}}, decoded.Keyboard)
}

func TestWriterSink_OmitsEmptyClasses(t *testing.T) {
	var buf bytes.Buffer
	sink := NewWriterSink(&buf)

	require.NoError(t, sink.Deliver(Batch{Keyboard: []KeyboardRecord{{Type: KeyDown, Code: 13, Time: 1}}}))
	require.NoError(t, sink.Deliver(Batch{}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `{"keyboard":[{"type":0,"code":13,"time":1}]}`, lines[0])
	assert.Equal(t, `{}`, lines[1])
}

func TestWriterSink_WriteError(t *testing.T) {
	writeErr := errors.New("pipe closed")
	sink := NewWriterSink(failingWriter{err: writeErr})

	err := sink.Deliver(Batch{Mouse: []MouseRecord{{Type: MouseMove}}})
	assert.ErrorIs(t, err, writeErr)
}

func TestSinkFuncAndDiscard(t *testing.T) {
	called := false
	var s Sink = SinkFunc(func(b Batch) error {
		called = true
		return nil
	})
	require.NoError(t, s.Deliver(Batch{}))
	assert.True(t, called)

	assert.NoError(t, DiscardSink{}.Deliver(Batch{Mouse: []MouseRecord{{}}}))
}
