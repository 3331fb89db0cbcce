package nx587e

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/nxbridge/pkg/device"
	"github.com/urmzd/nxbridge/pkg/trace"
)

// State is the lifecycle stage of a Controller.
type State int32

const (
	StateInitializing State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Handler receives attribute change events. It is called from a single
// goroutine, in the order the panel reported the changes.
type Handler func(device.Event)

// Defaults applied by New when an option is left zero.
const (
	DefaultQueueSize   = 256
	DefaultStopTimeout = 2 * time.Second
)

// Options configures a Controller.
type Options struct {
	Limits

	// Keymap must be KeymapUSA or KeymapAUNZ
	Keymap Keymap

	// Setup is sent once after priming; DefaultSetup when empty
	Setup string

	// QueueSize bounds the command and raw event queues
	QueueSize int

	// StopTimeout bounds how long Stop waits for the workers
	StopTimeout time.Duration

	// Tracer, if set, receives every line read and command written
	Tracer trace.Recorder

	// Clock stamps events; time.Now when nil
	Clock func() time.Time
}

func (o *Options) normalize() error {
	km, err := ParseKeymap(string(o.Keymap))
	if err != nil {
		return err
	}
	o.Keymap = km

	if err := o.Limits.Validate(); err != nil {
		return err
	}
	if o.Setup == "" {
		o.Setup = DefaultSetup
	}
	if o.QueueSize <= 0 {
		o.QueueSize = DefaultQueueSize
	}
	if o.StopTimeout <= 0 {
		o.StopTimeout = DefaultStopTimeout
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return nil
}

// Controller implements device.Controller and device.EventSubscriber
// for an alarm panel attached through an NX-587E module.
type Controller struct {
	transport Transport
	opts      Options
	bank      *Bank
	handler   Handler
	session   string

	commands  chan []byte
	rawEvents chan string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	state    atomic.Int32
	done     chan struct{}
	stopOnce sync.Once
	stopErr  error

	errMu sync.Mutex
	err   error

	subscribers   []chan device.Event
	subscribersMu sync.Mutex
}

// Open opens the serial port and starts a Controller on it.
func Open(portPath string, baudRate int, opts Options, h Handler) (*Controller, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	log.Info().Str("port", portPath).Msg("Initializing NX-587E controller")
	s, err := OpenSerial(portPath, baudRate)
	if err != nil {
		return nil, &TransportError{Op: "open", Err: err}
	}

	c, err := New(s, opts, h)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return c, nil
}

// New starts a Controller on an open transport.
//
// It launches the writer, reader and event processor, queues a direct
// query for every configured zone and partition so the bank is primed
// without raising events, and finally queues the setup string.
func New(t Transport, opts Options, h Handler) (*Controller, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}
	if h == nil {
		h = func(device.Event) {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		transport: t,
		opts:      opts,
		bank:      NewBank(opts.Limits),
		handler:   h,
		session:   uuid.NewString(),
		commands:  make(chan []byte, opts.QueueSize),
		rawEvents: make(chan string, opts.QueueSize),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	c.state.Store(int32(StateInitializing))

	c.wg.Add(3)
	go c.writeLoop()
	go c.readLoop()
	go c.processLoop()

	if err := c.prime(); err != nil {
		_ = c.Stop()
		if terr := c.Err(); terr != nil {
			return nil, terr
		}
		return nil, fmt.Errorf("prime device bank: %w", err)
	}

	c.state.CompareAndSwap(int32(StateInitializing), int32(StateRunning))

	log.Info().
		Str("session", c.session).
		Int("zones", opts.MaxZone).
		Int("partitions", opts.MaxPartition).
		Str("keymap", string(opts.Keymap)).
		Msg("NX-587E controller running")

	return c, nil
}

// prime queues a direct query for every tracked device, then the setup string.
func (c *Controller) prime() error {
	for _, kind := range device.Kinds {
		highest, _ := c.opts.Max(kind)
		for id := 1; id <= highest; id++ {
			q, err := DirectQuery(kind, id)
			if err != nil {
				return err
			}
			if err := c.enqueue(c.ctx, q); err != nil {
				return err
			}
		}
	}
	return c.enqueue(c.ctx, []byte(c.opts.Setup))
}

func (c *Controller) enqueue(ctx context.Context, cmd []byte) error {
	if c.ctx.Err() != nil {
		return ErrStopped
	}
	select {
	case c.commands <- cmd:
		return nil
	case <-c.ctx.Done():
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendCommand encodes a function key name or user code with the configured
// keymap and queues it for the panel. It blocks while the queue is full.
func (c *Controller) SendCommand(ctx context.Context, command string) error {
	cmd, err := ParseCommand(command)
	if err != nil {
		return err
	}
	payload, err := c.opts.Keymap.Encode(cmd)
	if err != nil {
		return err
	}
	if err := c.enqueue(ctx, payload); err != nil {
		return err
	}

	log.Info().Str("command", cmd.String()).Msg("Command queued")
	return nil
}

// Query returns the current value and change time of one attribute.
func (c *Controller) Query(ctx context.Context, kind device.Kind, id int, attribute string) (device.Attribute, error) {
	return c.bank.Get(kind, id, attribute)
}

// ListDevices returns snapshots of every tracked device of kind.
func (c *Controller) ListDevices(ctx context.Context, kind device.Kind) ([]device.Device, error) {
	return c.bank.Devices(kind)
}

// GetDevice returns a snapshot of one device.
func (c *Controller) GetDevice(ctx context.Context, kind device.Kind, id int) (*device.Device, error) {
	d, err := c.bank.Snapshot(kind, id)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Limits returns the configured id limits.
func (c *Controller) Limits() Limits {
	return c.opts.Limits
}

// Keymap returns the active keymap.
func (c *Controller) Keymap() Keymap {
	return c.opts.Keymap
}

// SessionID identifies this connection in traces, history and MQTT status.
func (c *Controller) SessionID() string {
	return c.session
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// IsConnected returns true while the controller is running.
func (c *Controller) IsConnected() bool {
	return c.State() == StateRunning
}

// Done is closed once the controller has stopped.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Err returns the transport error that stopped the controller, if any.
func (c *Controller) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// fail records a fatal transport error and stops the controller.
// It is called from worker goroutines, so the stop runs asynchronously.
func (c *Controller) fail(err error) {
	c.errMu.Lock()
	first := c.err == nil
	if first {
		c.err = err
	}
	c.errMu.Unlock()

	if first {
		log.Error().Err(err).Str("session", c.session).Msg("Panel link failed, stopping controller")
	}
	go func() { _ = c.Stop() }()
}

// Stop cancels the workers, closes the transport and waits up to
// StopTimeout for the workers to exit. It is safe to call more than once.
func (c *Controller) Stop() error {
	c.stopOnce.Do(func() {
		c.cancel()

		if err := c.transport.Close(); err != nil {
			log.Debug().Err(err).Msg("Transport close")
		}

		exited := make(chan struct{})
		go func() {
			c.wg.Wait()
			close(exited)
		}()

		select {
		case <-exited:
		case <-time.After(c.opts.StopTimeout):
			c.stopErr = ErrStopTimeout
			log.Warn().Dur("timeout", c.opts.StopTimeout).Msg("Workers still running after stop timeout")
		}

		c.state.Store(int32(StateStopped))

		c.subscribersMu.Lock()
		for _, ch := range c.subscribers {
			close(ch)
		}
		c.subscribers = nil
		c.subscribersMu.Unlock()

		close(c.done)
		log.Info().Str("session", c.session).Msg("NX-587E controller stopped")
	})
	return c.stopErr
}

// Close stops the controller, discarding the stop error.
func (c *Controller) Close() {
	if err := c.Stop(); err != nil && !errors.Is(err, ErrStopTimeout) {
		log.Error().Err(err).Msg("Failed to stop controller")
	}
}

// Subscribe returns a channel receiving every change event.
// The channel is closed when the controller stops.
func (c *Controller) Subscribe() chan device.Event {
	ch := make(chan device.Event, 16)

	c.subscribersMu.Lock()
	defer c.subscribersMu.Unlock()

	if c.State() == StateStopped {
		close(ch)
		return ch
	}
	c.subscribers = append(c.subscribers, ch)
	return ch
}

// Unsubscribe removes and closes a subscription.
func (c *Controller) Unsubscribe(ch chan device.Event) {
	c.subscribersMu.Lock()
	defer c.subscribersMu.Unlock()

	for i, sub := range c.subscribers {
		if sub == ch {
			c.subscribers = append(c.subscribers[:i], c.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

// publish fans an event out to subscribers without blocking.
func (c *Controller) publish(ev device.Event) {
	c.subscribersMu.Lock()
	defer c.subscribersMu.Unlock()

	for _, ch := range c.subscribers {
		select {
		case ch <- ev:
		default:
			log.Warn().Str("event", ev.String()).Msg("Subscriber channel full, dropping event")
		}
	}
}

var (
	_ device.Controller      = (*Controller)(nil)
	_ device.EventSubscriber = (*Controller)(nil)
)
