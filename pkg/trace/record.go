package trace

import (
	"strings"
	"time"
)

// Direction tells whether a record was received from or sent to the panel.
type Direction uint8

const (
	// DirectionIn is a status line read from the module.
	DirectionIn Direction = iota + 1
	// DirectionOut is a command written to the module.
	DirectionOut
)

// String returns "in" or "out".
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "in"
	case DirectionOut:
		return "out"
	default:
		return "unknown"
	}
}

// ParseDirection converts "in" or "out" into a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(s) {
	case "in":
		return DirectionIn, true
	case "out":
		return DirectionOut, true
	}
	return 0, false
}

// Record is one line of serial traffic.
type Record struct {
	Timestamp time.Time `cbor:"1,keyasint"`
	Session   string    `cbor:"2,keyasint,omitempty"`
	Direction Direction `cbor:"3,keyasint"`
	Data      string    `cbor:"4,keyasint"`
}

// Recorder receives serial traffic records.
type Recorder interface {
	Record(rec Record)
}

// Redact hides user codes (4 or 6 digit strings) so they never end up in a capture.
func Redact(data string) string {
	if len(data) != 4 && len(data) != 6 {
		return data
	}
	for i := 0; i < len(data); i++ {
		if data[i] < '0' || data[i] > '9' {
			return data
		}
	}
	return strings.Repeat("*", len(data))
}
