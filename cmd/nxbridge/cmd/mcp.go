package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/urmzd/nxbridge/pkg/device/schema"
	nxmcp "github.com/urmzd/nxbridge/pkg/mcp"
)

var (
	mcpNoPanel bool

	mcpCmd = &cobra.Command{
		Use:   "mcp",
		Short: "Serve the panel as MCP tools over stdio.",
		Long: `Runs the panel controller and exposes it as a Model Context Protocol
server on stdin/stdout. Logs go to stderr.`,
		Args:    cobra.NoArgs,
		PreRunE: loadConfig,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer func() {
				if err := store.Close(); err != nil {
					log.Error().Err(err).Msg("Failed to close database")
				}
			}()

			sink := &eventSink{history: store.Events()}
			p, err := openPanel(cfg, sink, mcpNoPanel)
			if err != nil {
				return err
			}
			defer p.Close()

			server := nxmcp.NewServer(p.controller, schema.NewValidator(), store.Labels(), store.Events())

			serveErr := make(chan error, 1)
			go func() {
				log.Info().Msg("Starting MCP server on stdio")
				serveErr <- server.ServeStdio()
			}()

			select {
			case <-ctx.Done():
				return nil
			case <-p.Done():
				return p.Err()
			case err := <-serveErr:
				return err
			}
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	mcpCmd.Flags().BoolVar(&mcpNoPanel, "no-panel", false, "serve the tools without opening the serial port")
}
