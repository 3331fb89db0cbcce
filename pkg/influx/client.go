// Package influx writes panel change events to InfluxDB as time-series points.
package influx

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/nxbridge/pkg/config"
	"github.com/urmzd/nxbridge/pkg/device"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultBatchSize      = 100
	defaultFlushInterval  = 1000 // milliseconds

	// Measurement is the name of every point written by this package.
	Measurement = "panel_event"
)

// Client batches points through the non-blocking write API.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	closed   atomic.Bool
}

// Connect pings the server and prepares a batching writer.
// Write failures are reported asynchronously to the log.
func Connect(cfg config.InfluxDBConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = defaultFlushInterval
	}

	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(uint(batchSize)).
			SetFlushInterval(uint(flushInterval)),
	)

	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()

	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	c := &Client{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
	}
	go c.logWriteErrors()

	log.Info().Str("url", cfg.URL).Str("bucket", cfg.Bucket).Msg("InfluxDB writer ready")
	return c, nil
}

func (c *Client) logWriteErrors() {
	for err := range c.writeAPI.Errors() {
		log.Warn().Err(err).Msg("InfluxDB write failed")
	}
}

// WriteEvent queues one change event. It never blocks on the network.
func (c *Client) WriteEvent(ev device.Event) {
	if c.closed.Load() {
		return
	}
	c.writeAPI.WritePoint(eventPoint(ev))
}

// Close flushes pending points and releases the client.
func (c *Client) Close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	c.writeAPI.Flush()
	c.client.Close()
}

// eventPoint renders ev with kind, id and attribute as tags. The value is
// stored both as a boolean and as 0/1 so it can be graphed.
func eventPoint(ev device.Event) *write.Point {
	state := 0
	if ev.Value {
		state = 1
	}
	return write.NewPoint(
		Measurement,
		map[string]string{
			"kind":      string(ev.Kind),
			"id":        strconv.Itoa(ev.ID),
			"attribute": ev.Attribute,
		},
		map[string]any{
			"value": ev.Value,
			"state": state,
		},
		ev.Timestamp,
	)
}
