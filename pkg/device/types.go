package device

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies a class of panel device.
type Kind string

// Kind constants
const (
	KindZone      Kind = "zone"      // Monitored sensor point
	KindPartition Kind = "partition" // Independently armable group of zones
)

// Kinds lists every supported kind in reporting order.
var Kinds = []Kind{KindZone, KindPartition}

// ParseKind converts a user supplied kind name into a Kind.
// Plural forms ("zones") are accepted.
func ParseKind(s string) (Kind, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case string(KindZone):
		return KindZone, nil
	case string(KindPartition):
		return KindPartition, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Attribute is the last observed value of one boolean status flag.
// Known is false until the panel has reported the attribute at least once.
type Attribute struct {
	Name    string    `json:"name"`
	Known   bool      `json:"known"`
	Value   bool      `json:"value"`
	Changed time.Time `json:"changed,omitempty"` // When Value was last written
}

// Device is a point-in-time view of a zone or partition.
type Device struct {
	Kind       Kind        `json:"kind"`
	ID         int         `json:"id"`
	Name       string      `json:"name,omitempty"` // User-assigned label
	Attributes []Attribute `json:"attributes"`
}

// Attribute returns the named attribute and whether it exists on the device.
func (d *Device) Attribute(name string) (Attribute, bool) {
	for _, a := range d.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// Event reports a single attribute transition on a device.
type Event struct {
	Kind      Kind      `json:"kind"`
	ID        int       `json:"id"`
	Attribute string    `json:"attribute"`
	Value     bool      `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// String renders the event for console and log output.
func (e Event) String() string {
	return fmt.Sprintf("%s %d %s=%t", e.Kind, e.ID, e.Attribute, e.Value)
}
