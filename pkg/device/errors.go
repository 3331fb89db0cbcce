package device

import "errors"

var (
	// ErrNotFound indicates a device was not found
	ErrNotFound = errors.New("device not found")

	// ErrNotConnected indicates the controller is not connected
	ErrNotConnected = errors.New("controller not connected")

	// ErrUnknownKind indicates a device kind the panel does not report
	ErrUnknownKind = errors.New("unknown device kind")

	// ErrOutOfRange indicates a device id outside the configured range
	ErrOutOfRange = errors.New("device id out of range")

	// ErrUnknownAttribute indicates an attribute the device kind does not have
	ErrUnknownAttribute = errors.New("unknown attribute")

	// ErrInvalidCommand indicates a command the active keymap cannot encode
	ErrInvalidCommand = errors.New("invalid command")

	// ErrValidation indicates a request payload failed schema validation
	ErrValidation = errors.New("validation error")
)
