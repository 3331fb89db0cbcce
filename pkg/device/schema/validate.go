package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/urmzd/nxbridge/pkg/device"
)

// CommandSchema describes the body accepted by the command endpoints:
// a keypad function name or a 4 or 6 digit user code.
var CommandSchema = json.RawMessage(`{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"properties": {
		"command": {
			"type": "string",
			"pattern": "^\\s*([A-Za-z_]{2,16}|[0-9]{4}|[0-9]{6})\\s*$"
		}
	},
	"required": ["command"],
	"additionalProperties": false
}`)

// Validator checks payloads against JSON Schema documents. Compiled schemas
// are cached by document text; the command schema is compiled up front.
type Validator struct {
	cache   sync.Map // string -> *jsonschema.Schema
	command *jsonschema.Schema
}

// NewValidator returns a Validator with CommandSchema compiled.
func NewValidator() *Validator {
	v := &Validator{}
	s, err := v.compile(CommandSchema)
	if err != nil {
		panic(fmt.Sprintf("schema: command schema does not compile: %v", err))
	}
	v.command = s
	return v
}

// Validate validates payload against schemaDoc. An empty or "{}" document
// accepts everything. Failures wrap device.ErrValidation.
func (v *Validator) Validate(schemaDoc json.RawMessage, payload map[string]any) error {
	switch strings.TrimSpace(string(schemaDoc)) {
	case "", "{}", "null":
		return nil
	}

	s, err := v.compile(schemaDoc)
	if err != nil {
		return err
	}
	return check(s, payload)
}

// ValidateCommand checks a command request body and returns the command
// with surrounding whitespace removed.
func (v *Validator) ValidateCommand(payload map[string]any) (string, error) {
	if err := check(v.command, payload); err != nil {
		return "", err
	}
	return strings.TrimSpace(payload["command"].(string)), nil
}

func check(s *jsonschema.Schema, payload map[string]any) error {
	if err := s.Validate(payload); err != nil {
		return fmt.Errorf("%w: %s", device.ErrValidation, firstLine(err.Error()))
	}
	return nil
}

func (v *Validator) compile(schemaDoc json.RawMessage) (*jsonschema.Schema, error) {
	key := string(schemaDoc)
	if s, ok := v.cache.Load(key); ok {
		return s.(*jsonschema.Schema), nil
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(key))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", doc); err != nil {
		return nil, fmt.Errorf("failed to add schema: %w", err)
	}
	s, err := c.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	actual, _ := v.cache.LoadOrStore(key, s)
	return actual.(*jsonschema.Schema), nil
}

// firstLine trims the indented cause tree jsonschema appends to its errors.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
