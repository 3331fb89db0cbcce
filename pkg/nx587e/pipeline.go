package nx587e

import (
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/urmzd/nxbridge/pkg/device"
	"github.com/urmzd/nxbridge/pkg/trace"
)

// writeLoop drains the command queue, writing one command at a time.
func (c *Controller) writeLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		case cmd := <-c.commands:
			if _, err := c.transport.Write(cmd); err != nil {
				if c.ctx.Err() == nil {
					c.fail(&TransportError{Op: "write", Err: err})
				}
				return
			}
			c.record(trace.DirectionOut, string(cmd))
			log.Debug().Str("data", trace.Redact(string(cmd))).Msg("NX TX")
		}
	}
}

// readLoop reads status lines and hands non-empty ones to the processor.
func (c *Controller) readLoop() {
	defer c.wg.Done()

	for {
		line, err := c.transport.ReadLine()
		if err != nil {
			if c.ctx.Err() == nil {
				c.fail(&TransportError{Op: "read", Err: err})
			}
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		c.record(trace.DirectionIn, line)

		select {
		case c.rawEvents <- line:
		case <-c.ctx.Done():
			return
		}
	}
}

// processLoop is the only writer of the bank and the only caller of the handler.
func (c *Controller) processLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		case line := <-c.rawEvents:
			c.process(line)
		}
	}
}

func (c *Controller) process(line string) {
	msg, err := Decode(line, c.opts.Limits)
	if err != nil {
		log.Debug().Err(err).Str("line", line).Msg("Dropping status line")
		return
	}

	for _, ev := range c.bank.Apply(msg, c.opts.Clock()) {
		c.deliver(ev)
		c.publish(ev)
	}
}

// deliver runs the handler and recovers from panics.
func (c *Controller) deliver(ev device.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("event", ev.String()).Msg("Event handler panic recovered")
		}
	}()
	c.handler(ev)
}

func (c *Controller) record(dir trace.Direction, data string) {
	if c.opts.Tracer == nil {
		return
	}
	c.opts.Tracer.Record(trace.Record{
		Timestamp: c.opts.Clock(),
		Session:   c.session,
		Direction: dir,
		Data:      data,
	})
}
