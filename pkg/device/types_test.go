package device

import (
	"errors"
	"testing"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"zone", KindZone},
		{"Zones", KindZone},
		{" partition ", KindPartition},
		{"PARTITIONS", KindPartition},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if err != nil {
			t.Errorf("ParseKind(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseKind_Unknown(t *testing.T) {
	_, err := ParseKind("door")
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestDeviceAttribute(t *testing.T) {
	d := Device{
		Kind: KindZone,
		ID:   1,
		Attributes: []Attribute{
			{Name: "fault", Known: true, Value: true},
			{Name: "tamper"},
		},
	}

	a, ok := d.Attribute("fault")
	if !ok || !a.Known || !a.Value {
		t.Errorf("unexpected fault attribute: %+v ok=%v", a, ok)
	}
	if _, ok := d.Attribute("siren"); ok {
		t.Error("zone should not have a siren attribute")
	}
}

func TestNullController(t *testing.T) {
	c := NewNullController()
	if c.IsConnected() {
		t.Error("null controller must report disconnected")
	}
	if err := c.SendCommand(t.Context(), "stay"); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
	if _, err := c.GetDevice(t.Context(), KindZone, 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
