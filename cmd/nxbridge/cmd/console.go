package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/urmzd/nxbridge/pkg/console"
	"github.com/urmzd/nxbridge/pkg/db"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Open an interactive session with the panel.",
	Long: `Starts the panel controller and opens a prompt for listing devices,
querying attributes and sending keypad commands. Change events are printed
as they arrive.`,
	Args:    cobra.NoArgs,
	PreRunE: loadConfig,
	RunE: func(_ *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		// Labels and history are a convenience here; run without them if
		// another process holds the database.
		var labels db.LabelStore
		sink := &eventSink{}
		store, err := openStore(ctx, cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Database unavailable, labels and history disabled")
		} else {
			defer func() { _ = store.Close() }()
			labels = store.Labels()
			sink.history = store.Events()
		}

		p, err := openPanel(cfg, sink, false)
		if err != nil {
			return err
		}
		defer p.Close()

		con, err := console.New(p.controller, p.subscriber, labels)
		if err != nil {
			return err
		}

		// Keep log lines from overwriting the prompt.
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: con.Stdout()})

		con.Run(ctx, cancel)
		return p.Err()
	},
}
