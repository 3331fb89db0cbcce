package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/urmzd/nxbridge/pkg/api"
	"github.com/urmzd/nxbridge/pkg/config"
	"github.com/urmzd/nxbridge/pkg/device"
	"github.com/urmzd/nxbridge/pkg/device/schema"
	"github.com/urmzd/nxbridge/pkg/influx"
	"github.com/urmzd/nxbridge/pkg/mqtt"
)

const (
	shutdownTimeout = 10 * time.Second
	// The module answers the priming queries within a few seconds.
	snapshotDelay   = 5 * time.Second
)

var (
	noPanel bool

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the panel bridge with the HTTP API, MQTT and InfluxDB outputs.",
		Long: `Opens the serial link, primes the state of every configured zone and
partition, and serves the REST API. Change events are stored in the history
database and, when enabled, published to MQTT and written to InfluxDB.

With --no-panel the API runs without a serial link; reads return empty
results and commands fail with 503.`,
		Args:    cobra.NoArgs,
		PreRunE: loadConfig,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()
			return serve(ctx, cfg, noPanel)
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	serveCmd.Flags().BoolVar(&noPanel, "no-panel", false, "run the API without opening the serial port")
}

func serve(ctx context.Context, c *config.Config, withoutPanel bool) error {
	store, err := openStore(ctx, c)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	sink := &eventSink{history: store.Events()}
	go pruneHistory(ctx, store.Events(), c.Database.Retention)

	if c.MQTT.Enabled {
		client, err := mqtt.Connect(c.MQTT)
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close MQTT client")
			}
		}()
		sink.mqtt = client
	}

	influxClient, err := influx.Connect(c.InfluxDB)
	switch {
	case errors.Is(err, influx.ErrDisabled):
	case err != nil:
		return err
	default:
		defer influxClient.Close()
		sink.influx = influxClient
	}

	p, err := openPanel(c, sink, withoutPanel)
	if err != nil {
		return err
	}
	defer p.Close()

	validator := schema.NewValidator()

	if sink.mqtt != nil {
		if err := sink.mqtt.SubscribeCommands(validator, p.controller.SendCommand); err != nil {
			return err
		}
		go publishSnapshot(ctx, sink.mqtt, p.controller)
	}

	router := api.NewRouter(p.controller, p.subscriber, validator, store.Labels(), store.Events())
	server := &http.Server{
		Addr:              c.API.Address(),
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("address", server.Addr).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down...")
	case <-p.Done():
		runErr = p.Err()
		log.Error().Err(runErr).Msg("Panel controller stopped, shutting down")
	case err := <-serverErr:
		runErr = err
		log.Error().Err(err).Msg("Server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("API server shutdown")
	}
	return runErr
}

// publishSnapshot publishes every device once the bank has been primed, so
// retained topics exist even for attributes that never change.
func publishSnapshot(ctx context.Context, client *mqtt.Client, controller device.Controller) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(snapshotDelay):
	}

	devices, err := controller.ListDevices(ctx, "")
	if err != nil {
		log.Warn().Err(err).Msg("Failed to list devices for MQTT snapshot")
		return
	}
	for _, d := range devices {
		if err := client.PublishDevice(d); err != nil {
			log.Warn().Err(err).Str("kind", string(d.Kind)).Int("id", d.ID).Msg("Failed to publish device")
		}
	}
	log.Info().Int("devices", len(devices)).Msg("Published device snapshot")
}
