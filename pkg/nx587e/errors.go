package nx587e

import (
	"errors"
	"fmt"

	"github.com/urmzd/nxbridge/pkg/device"
)

var (
	// ErrInvalidKeymap indicates a keymap other than USA or AUNZ
	ErrInvalidKeymap = errors.New("nx587e: keymap must be USA or AUNZ")

	// ErrInvalidLimits indicates max zone or partition counts the module cannot address
	ErrInvalidLimits = errors.New("nx587e: invalid device limits")

	// ErrUnknownTag indicates a status line with an unsupported message type
	ErrUnknownTag = errors.New("nx587e: unknown message tag")

	// ErrMalformed indicates a status line that could not be decoded
	ErrMalformed = errors.New("nx587e: malformed status line")

	// ErrStopped indicates the controller has been stopped; it matches device.ErrNotConnected
	ErrStopped = fmt.Errorf("nx587e: controller stopped: %w", device.ErrNotConnected)

	// ErrStopTimeout indicates workers did not exit within the stop timeout
	ErrStopTimeout = errors.New("nx587e: timed out waiting for workers to exit")
)

// TransportError wraps an I/O failure on the serial link.
// Transport errors are fatal: the controller stops when one occurs.
type TransportError struct {
	Op  string // open, read or write
	Err error
}

func (e *TransportError) Error() string {
	return "nx587e: transport " + e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
