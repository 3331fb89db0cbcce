package nx587e

import (
	"fmt"
	"sync"
	"time"

	"github.com/urmzd/nxbridge/pkg/device"
)

type slot struct {
	known   bool
	value   bool
	changed time.Time
}

// entry holds the attribute slots of one device. Value and timestamp are
// only read or written together under mu.
type entry struct {
	mu    sync.RWMutex
	kind  device.Kind
	id    int
	names []string
	slots []slot
}

func (e *entry) index(name string) int {
	for i, n := range e.names {
		if n == name {
			return i
		}
	}
	return -1
}

func (e *entry) snapshot() device.Device {
	e.mu.RLock()
	defer e.mu.RUnlock()

	d := device.Device{
		Kind:       e.kind,
		ID:         e.id,
		Attributes: make([]device.Attribute, len(e.names)),
	}
	for i, name := range e.names {
		d.Attributes[i] = device.Attribute{
			Name:    name,
			Known:   e.slots[i].known,
			Value:   e.slots[i].value,
			Changed: e.slots[i].changed,
		}
	}
	return d
}

// Bank tracks the last known state of every configured zone and partition.
//
// Apply is expected to be called from a single goroutine; Get, Snapshot and
// Devices may be called concurrently with it.
type Bank struct {
	limits  Limits
	devices map[device.Kind][]*entry
}

// NewBank allocates a bank with every attribute unknown.
func NewBank(limits Limits) *Bank {
	b := &Bank{
		limits:  limits,
		devices: make(map[device.Kind][]*entry, len(device.Kinds)),
	}
	for _, kind := range device.Kinds {
		names, _ := Attributes(kind)
		highest, _ := limits.Max(kind)
		entries := make([]*entry, highest)
		for i := range entries {
			entries[i] = &entry{
				kind:  kind,
				id:    i + 1,
				names: names,
				slots: make([]slot, len(names)),
			}
		}
		b.devices[kind] = entries
	}
	return b
}

// Limits returns the configured id limits.
func (b *Bank) Limits() Limits {
	return b.limits
}

func (b *Bank) lookup(kind device.Kind, id int) (*entry, error) {
	if err := b.limits.Check(kind, id); err != nil {
		return nil, err
	}
	return b.devices[kind][id-1], nil
}

// Get returns the stored value of one attribute.
// The result has Known set to false until the panel has reported it.
func (b *Bank) Get(kind device.Kind, id int, attribute string) (device.Attribute, error) {
	e, err := b.lookup(kind, id)
	if err != nil {
		return device.Attribute{}, err
	}

	i := e.index(attribute)
	if i < 0 {
		return device.Attribute{}, fmt.Errorf("%w: %s has no %q", device.ErrUnknownAttribute, kind, attribute)
	}

	e.mu.RLock()
	s := e.slots[i]
	e.mu.RUnlock()

	return device.Attribute{Name: attribute, Known: s.known, Value: s.value, Changed: s.changed}, nil
}

// Apply merges a decoded message and returns the resulting change events in
// attribute order. The first value seen for an attribute is stored without
// an event; afterwards every change produces exactly one event.
func (b *Bank) Apply(msg Message, now time.Time) []device.Event {
	e, err := b.lookup(msg.Kind, msg.ID)
	if err != nil {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var events []device.Event
	for _, f := range msg.Fields {
		i := e.index(f.Name)
		if i < 0 {
			continue
		}
		s := &e.slots[i]
		switch {
		case !s.known:
			*s = slot{known: true, value: f.Value, changed: now}
		case s.value != f.Value:
			*s = slot{known: true, value: f.Value, changed: now}
			events = append(events, device.Event{
				Kind:      msg.Kind,
				ID:        msg.ID,
				Attribute: f.Name,
				Value:     f.Value,
				Timestamp: now,
			})
		}
	}
	return events
}

// Snapshot returns a copy of one device.
func (b *Bank) Snapshot(kind device.Kind, id int) (device.Device, error) {
	e, err := b.lookup(kind, id)
	if err != nil {
		return device.Device{}, err
	}
	return e.snapshot(), nil
}

// Devices returns copies of every device of kind, or of all kinds when kind is empty.
func (b *Bank) Devices(kind device.Kind) ([]device.Device, error) {
	kinds := device.Kinds
	if kind != "" {
		if _, err := b.limits.Max(kind); err != nil {
			return nil, err
		}
		kinds = []device.Kind{kind}
	}

	var out []device.Device
	for _, k := range kinds {
		for _, e := range b.devices[k] {
			out = append(out, e.snapshot())
		}
	}
	return out, nil
}
