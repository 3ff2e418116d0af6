package recorder

import (
	"time"

	"github.com/rs/zerolog"
)

// MouseAction identifies a mouse event kind
type MouseAction uint8

const (
	MouseLeftDown MouseAction = iota
	MouseLeftUp
	MouseRightDown
	MouseRightUp
	MouseMove
)

// String returns the string representation of MouseAction
func (a MouseAction) String() string {
	switch a {
	case MouseLeftDown:
		return "left-down"
	case MouseLeftUp:
		return "left-up"
	case MouseRightDown:
		return "right-down"
	case MouseRightUp:
		return "right-up"
	case MouseMove:
		return "move"
	default:
		return "unknown"
	}
}

// KeyAction identifies a keyboard event kind
type KeyAction uint8

const (
	KeyDown KeyAction = iota
	KeyUp
)

// String returns the string representation of KeyAction
func (a KeyAction) String() string {
	switch a {
	case KeyDown:
		return "down"
	case KeyUp:
		return "up"
	default:
		return "unknown"
	}
}

// MouseEvent is a raw mouse record as captured by the producer
type MouseEvent struct {
	Time   time.Time
	Action MouseAction
	X, Y   int32
}

// KeyboardEvent is a raw keyboard record as captured by the producer
type KeyboardEvent struct {
	Time   time.Time
	Action KeyAction
	Code   uint32
}

// MouseRecord is a mouse event relative to the recording start
type MouseRecord struct {
	Type MouseAction `json:"type"`
	X    int32       `json:"x"`
	Y    int32       `json:"y"`
	// Time is milliseconds since recording began
	Time int64 `json:"time"`
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler
func (m MouseRecord) MarshalZerologObject(e *zerolog.Event) {
	e.Uint8("type", uint8(m.Type)).
		Int32("x", m.X).
		Int32("y", m.Y).
		Int64("time", m.Time)
}

// KeyboardRecord is a keyboard event relative to the recording start
type KeyboardRecord struct {
	Type KeyAction `json:"type"`
	Code uint32    `json:"code"`
	// Time is milliseconds since recording began
	Time int64 `json:"time"`
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler
func (k KeyboardRecord) MarshalZerologObject(e *zerolog.Event) {
	e.Uint8("type", uint8(k.Type)).
		Uint32("code", k.Code).
		Int64("time", k.Time)
}

// Batch is everything one poll drained from the rings.
// Its slices are reused after Deliver returns.
type Batch struct {
	// At is when the poll ran
	At       time.Time
	Mouse    []MouseRecord
	Keyboard []KeyboardRecord
}

// Empty reports whether the batch carries no records
func (b Batch) Empty() bool {
	return len(b.Mouse) == 0 && len(b.Keyboard) == 0
}

type mouseRecords []MouseRecord

func (rs mouseRecords) MarshalZerologArray(a *zerolog.Array) {
	for _, r := range rs {
		a.Object(r)
	}
}

type keyboardRecords []KeyboardRecord

func (rs keyboardRecords) MarshalZerologArray(a *zerolog.Array) {
	for _, r := range rs {
		a.Object(r)
	}
}
