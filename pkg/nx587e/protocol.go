package nx587e

import (
	"fmt"
	"strconv"

	"github.com/urmzd/nxbridge/pkg/device"
)

// Wire tags of the status messages the module emits.
const (
	tagZone      = "ZN"
	tagPartition = "PA"
)

// Addressing limits of the module's direct query space.
// Zones use Q001-Q192, partitions Q193-Q200.
const (
	MaxZones           = 192
	MaxPartitions      = 8
	partitionQueryBase = 192
)

// Attribute names in the order they appear on the wire.
var (
	zoneAttributes = []string{
		"fault", "tamper", "trouble", "bypass", "alarmMemory",
		"inhibit", "lowBattery", "lost", "memoryBypass",
	}
	partitionAttributes = []string{
		"ready", "armed", "stay", "chime", "entryDelay",
		"exitPeriod", "previousAlarm", "siren",
	}
)

// Attributes returns the ordered attribute names for kind.
func Attributes(kind device.Kind) ([]string, error) {
	switch kind {
	case device.KindZone:
		return zoneAttributes, nil
	case device.KindPartition:
		return partitionAttributes, nil
	}
	return nil, fmt.Errorf("%w: %q", device.ErrUnknownKind, kind)
}

func kindForTag(tag string) (device.Kind, bool) {
	switch tag {
	case tagZone:
		return device.KindZone, true
	case tagPartition:
		return device.KindPartition, true
	}
	return "", false
}

// Limits is the highest zone and partition id tracked.
type Limits struct {
	MaxZone      int
	MaxPartition int
}

// Validate checks the limits fit the module's address space.
func (l Limits) Validate() error {
	if l.MaxZone < 0 || l.MaxZone > MaxZones {
		return fmt.Errorf("%w: max zone %d not in 0..%d", ErrInvalidLimits, l.MaxZone, MaxZones)
	}
	if l.MaxPartition < 0 || l.MaxPartition > MaxPartitions {
		return fmt.Errorf("%w: max partition %d not in 0..%d", ErrInvalidLimits, l.MaxPartition, MaxPartitions)
	}
	return nil
}

// Max returns the highest id tracked for kind.
func (l Limits) Max(kind device.Kind) (int, error) {
	switch kind {
	case device.KindZone:
		return l.MaxZone, nil
	case device.KindPartition:
		return l.MaxPartition, nil
	}
	return 0, fmt.Errorf("%w: %q", device.ErrUnknownKind, kind)
}

// Check reports whether id is a tracked device of kind.
func (l Limits) Check(kind device.Kind, id int) error {
	highest, err := l.Max(kind)
	if err != nil {
		return err
	}
	if id < 1 || id > highest {
		return fmt.Errorf("%w: %s %d (max %d)", device.ErrOutOfRange, kind, id, highest)
	}
	return nil
}

// Field is one decoded attribute of a status message.
type Field struct {
	Name  string
	Value bool
}

// Message is a decoded zone or partition status line.
type Message struct {
	Kind   device.Kind
	ID     int
	Fields []Field
}

// Decode parses a status line such as "ZN001Fttbaillb".
//
// The first two characters select the message kind, the digits that follow
// are the device id, and each remaining letter up to the final terminator
// character is one attribute: upper case for true, lower case for false.
// Lines for ids outside limits are rejected with device.ErrOutOfRange.
func Decode(line string, limits Limits) (Message, error) {
	if len(line) < 3 {
		return Message{}, fmt.Errorf("%w: %q", ErrMalformed, line)
	}

	kind, ok := kindForTag(line[:2])
	if !ok {
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownTag, line[:2])
	}

	end := 2
	for end < len(line) && line[end] >= '0' && line[end] <= '9' {
		end++
	}
	if end == 2 {
		return Message{}, fmt.Errorf("%w: missing id in %q", ErrMalformed, line)
	}
	id, err := strconv.Atoi(line[2:end])
	if err != nil {
		return Message{}, fmt.Errorf("%w: bad id in %q", ErrMalformed, line)
	}

	body := line[end:]
	if len(body) > 0 {
		body = body[:len(body)-1]
	}

	names, _ := Attributes(kind)
	if len(body) > len(names) {
		return Message{}, fmt.Errorf("%w: %d attributes for %s in %q", ErrMalformed, len(body), kind, line)
	}

	fields := make([]Field, len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c >= 'A' && c <= 'Z':
			fields[i] = Field{Name: names[i], Value: true}
		case c >= 'a' && c <= 'z':
			fields[i] = Field{Name: names[i], Value: false}
		default:
			return Message{}, fmt.Errorf("%w: attribute %q in %q", ErrMalformed, c, line)
		}
	}

	if err := limits.Check(kind, id); err != nil {
		return Message{}, err
	}

	return Message{Kind: kind, ID: id, Fields: fields}, nil
}

// DirectQuery builds the status request for a single device.
// Zones are addressed as "Q" plus a three digit id, partitions as "Q" plus 192+id.
func DirectQuery(kind device.Kind, id int) ([]byte, error) {
	switch kind {
	case device.KindZone:
		return []byte(fmt.Sprintf("Q%03d", id)), nil
	case device.KindPartition:
		return []byte("Q" + strconv.Itoa(partitionQueryBase+id)), nil
	}
	return nil, fmt.Errorf("%w: %q", device.ErrUnknownKind, kind)
}
