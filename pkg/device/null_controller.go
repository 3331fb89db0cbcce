package device

import "context"

// NullController is a no-op controller used when the panel is unavailable.
// It allows the API to run in limited mode without a serial link.
type NullController struct{}

// NewNullController creates a new NullController.
func NewNullController() *NullController {
	return &NullController{}
}

func (c *NullController) ListDevices(ctx context.Context, kind Kind) ([]Device, error) {
	return []Device{}, nil
}

func (c *NullController) GetDevice(ctx context.Context, kind Kind, id int) (*Device, error) {
	return nil, ErrNotFound
}

func (c *NullController) Query(ctx context.Context, kind Kind, id int, attribute string) (Attribute, error) {
	return Attribute{}, ErrNotConnected
}

func (c *NullController) SendCommand(ctx context.Context, command string) error {
	return ErrNotConnected
}

func (c *NullController) IsConnected() bool {
	return false
}

func (c *NullController) Close() {}

// NullEventSubscriber is a no-op event subscriber used when the panel is unavailable.
type NullEventSubscriber struct{}

// NewNullEventSubscriber creates a new NullEventSubscriber.
func NewNullEventSubscriber() *NullEventSubscriber {
	return &NullEventSubscriber{}
}

func (s *NullEventSubscriber) Subscribe() chan Event {
	// Never sent to; callers should check IsConnected() on the controller
	return make(chan Event)
}

func (s *NullEventSubscriber) Unsubscribe(ch chan Event) {
	close(ch)
}

var (
	_ Controller      = (*NullController)(nil)
	_ EventSubscriber = (*NullEventSubscriber)(nil)
)
