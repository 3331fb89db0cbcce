package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/urmzd/nxbridge/pkg/device"
)

func TestValidateCommand_Name(t *testing.T) {
	v := NewValidator()

	cmd, err := v.ValidateCommand(map[string]any{"command": "stay"})
	if err != nil {
		t.Fatalf("expected valid payload, got: %v", err)
	}
	if cmd != "stay" {
		t.Errorf("command = %q, want stay", cmd)
	}
}

func TestValidateCommand_UserCodes(t *testing.T) {
	v := NewValidator()

	for _, code := range []string{"1234", "123456"} {
		if _, err := v.ValidateCommand(map[string]any{"command": code}); err != nil {
			t.Errorf("code %s should be valid, got: %v", code, err)
		}
	}
}

func TestValidateCommand_BadCodeLength(t *testing.T) {
	v := NewValidator()

	for _, code := range []string{"123", "12345", "1234567"} {
		if _, err := v.ValidateCommand(map[string]any{"command": code}); err == nil {
			t.Errorf("code %s should be rejected", code)
		}
	}
}

func TestValidateCommand_Missing(t *testing.T) {
	v := NewValidator()

	_, err := v.ValidateCommand(map[string]any{})
	if !errors.Is(err, device.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestValidateCommand_WrongType(t *testing.T) {
	v := NewValidator()

	if _, err := v.ValidateCommand(map[string]any{"command": float64(1234)}); err == nil {
		t.Error("expected validation error for numeric command")
	}
}

func TestValidateCommand_UnknownProperty(t *testing.T) {
	v := NewValidator()

	_, err := v.ValidateCommand(map[string]any{
		"command":   "exit",
		"partition": float64(1),
	})
	if err == nil {
		t.Error("expected validation error for unknown property")
	}
}

func TestValidate_EmptySchema(t *testing.T) {
	v := NewValidator()

	err := v.Validate(json.RawMessage(`{}`), map[string]any{
		"anything": "goes",
	})
	if err != nil {
		t.Errorf("empty schema should skip validation, got: %v", err)
	}
}

func TestValidate_NilSchema(t *testing.T) {
	v := NewValidator()

	if err := v.Validate(nil, map[string]any{"anything": "goes"}); err != nil {
		t.Errorf("nil schema should skip validation, got: %v", err)
	}
}

func TestValidateCommand_TrimsWhitespace(t *testing.T) {
	v := NewValidator()

	cmd, err := v.ValidateCommand(map[string]any{"command": "  1234 "})
	if err != nil {
		t.Fatal(err)
	}
	if cmd != "1234" {
		t.Errorf("command = %q, want 1234", cmd)
	}
}

func TestValidate_CachesSchema(t *testing.T) {
	v := NewValidator()
	doc := json.RawMessage(`{"type": "object", "required": ["name"]}`)

	if err := v.Validate(doc, map[string]any{"name": "hall"}); err != nil {
		t.Fatal(err)
	}
	if err := v.Validate(doc, map[string]any{}); !errors.Is(err, device.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}

	// The command schema plus doc.
	n := 0
	v.cache.Range(func(_, _ any) bool {
		n++
		return true
	})
	if n != 2 {
		t.Errorf("expected 2 cached schemas, got %d", n)
	}
}

func TestValidate_BadSchema(t *testing.T) {
	v := NewValidator()

	err := v.Validate(json.RawMessage(`{"type": 5}`), map[string]any{})
	if err == nil || errors.Is(err, device.ErrValidation) {
		t.Errorf("expected a compile error, got %v", err)
	}
}
