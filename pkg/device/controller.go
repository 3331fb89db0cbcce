package device

import "context"

// Controller defines the interface for talking to an alarm panel.
// The API, MCP and console layers depend only on this abstraction so they
// can run against a live panel or the NullController.
type Controller interface {
	// ListDevices returns every tracked device of the given kind,
	// or all devices when kind is empty
	ListDevices(ctx context.Context, kind Kind) ([]Device, error)

	// GetDevice returns a single device
	GetDevice(ctx context.Context, kind Kind, id int) (*Device, error)

	// Query returns the current value of one attribute
	Query(ctx context.Context, kind Kind, id int, attribute string) (Attribute, error)

	// SendCommand queues a keypad command or user code for the panel
	SendCommand(ctx context.Context, command string) error

	// IsConnected returns true while the panel link is running
	IsConnected() bool

	// Close disconnects the controller
	Close()
}

// EventSubscriber defines the interface for subscribing to device events
type EventSubscriber interface {
	// Subscribe returns a channel that receives attribute change events
	Subscribe() chan Event

	// Unsubscribe removes a subscription
	Unsubscribe(ch chan Event)
}
