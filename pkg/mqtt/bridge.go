package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/nxbridge/pkg/device"
	"github.com/urmzd/nxbridge/pkg/device/schema"
)

// commandTimeout bounds how long a received command may wait for the queue.
const commandTimeout = 5 * time.Second

type attributePayload struct {
	Value     bool   `json:"value"`
	Timestamp string `json:"timestamp"`
}

type devicePayload struct {
	Name       string          `json:"name,omitempty"`
	Attributes map[string]bool `json:"attributes"`
}

func eventPayload(ev device.Event) []byte {
	b, _ := json.Marshal(attributePayload{
		Value:     ev.Value,
		Timestamp: ev.Timestamp.UTC().Format(time.RFC3339Nano),
	})
	return b
}

// snapshotPayload includes only attributes the panel has reported.
func snapshotPayload(d device.Device) []byte {
	p := devicePayload{Name: d.Name, Attributes: make(map[string]bool, len(d.Attributes))}
	for _, a := range d.Attributes {
		if a.Known {
			p.Attributes[a.Name] = a.Value
		}
	}
	b, _ := json.Marshal(p)
	return b
}

// PublishEvent publishes one attribute change, retained.
func (c *Client) PublishEvent(ev device.Event) error {
	return c.Publish(c.topics.Attribute(ev.Kind, ev.ID, ev.Attribute), eventPayload(ev), true)
}

// PublishDevice publishes a device snapshot, retained.
func (c *Client) PublishDevice(d device.Device) error {
	return c.Publish(c.topics.Device(d.Kind, d.ID), snapshotPayload(d), true)
}

// CommandHandler receives validated commands from the broker.
type CommandHandler func(ctx context.Context, command string) error

// SubscribeCommands forwards messages on the command topic to send.
// Payloads are either a bare command ("stay", "1234") or the JSON body
// accepted by the HTTP API. The subscription is restored on reconnect.
func (c *Client) SubscribeCommands(v *schema.Validator, send CommandHandler) error {
	topic := c.topics.Command()
	handler := func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("topic", msg.Topic()).Msg("MQTT command handler panic recovered")
			}
		}()

		command, err := parseCommandPayload(v, msg.Payload())
		if err != nil {
			log.Warn().Err(err).Str("topic", msg.Topic()).Msg("Rejected MQTT command")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()
		if err := send(ctx, command); err != nil {
			log.Warn().Err(err).Str("topic", msg.Topic()).Msg("Failed to forward MQTT command")
		}
	}

	subscribe := func() error {
		token := c.client.Subscribe(topic, byte(c.cfg.QoS), handler)
		if !token.WaitTimeout(defaultPublishTimeout) {
			return fmt.Errorf("%w: timeout on %s", ErrSubscribeFailed, topic)
		}
		if err := token.Error(); err != nil {
			return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
		}
		return nil
	}

	resubscribe := func() {
		if err := subscribe(); err != nil {
			log.Warn().Err(err).Msg("MQTT resubscribe failed")
		}
	}
	c.onConnect.Store(&resubscribe)

	if err := subscribe(); err != nil {
		return err
	}
	log.Info().Str("topic", topic).Msg("Listening for MQTT commands")
	return nil
}

// parseCommandPayload accepts a bare command or {"command": "..."}.
func parseCommandPayload(v *schema.Validator, payload []byte) (string, error) {
	trimmed := strings.TrimSpace(string(payload))
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty command", device.ErrValidation)
	}

	var body map[string]any
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal([]byte(trimmed), &body); err != nil {
			return "", fmt.Errorf("%w: %s", device.ErrValidation, err)
		}
	} else {
		body = map[string]any{"command": trimmed}
	}
	return v.ValidateCommand(body)
}
