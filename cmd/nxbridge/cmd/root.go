package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/urmzd/nxbridge/pkg/config"
	"github.com/urmzd/nxbridge/pkg/version"
)

var (
	// configPath to the YAML configuration file; empty uses defaults.
	configPath string
	// logLevel overrides logging.level when set.
	logLevel string

	// cfg is loaded before any subcommand that needs it runs.
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "nxbridge",
		Short: "Bridge an NX-587E equipped alarm panel to HTTP, MQTT and MCP.",
		Long: `nxbridge talks to a Caddx/Interlogix NetworX panel through an NX-587E
virtual keypad module on a serial port. It keeps the last known state of every
zone and partition, reports changes, and forwards keypad commands.`,
		SilenceUsage: true,
	}
)

// Execute runs the nxbridge CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd, mcpCmd, consoleCmd, traceCmd, initCmd)
}

// loadConfig reads the configuration and configures the global logger.
func loadConfig(_ *cobra.Command, _ []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if err := setupLogging(c.Logging, os.Stderr); err != nil {
		return err
	}
	cfg = c
	return nil
}

// setupLogging points the global zerolog logger at w. stdout is never used
// so the MCP stdio transport stays clean.
func setupLogging(lc config.LoggingConfig, w io.Writer) error {
	level := zerolog.InfoLevel
	if lc.Level != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(lc.Level))
		if err != nil {
			return fmt.Errorf("%w: logging.level %q", config.ErrInvalid, lc.Level)
		}
		level = l
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if strings.EqualFold(lc.Format, "json") {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: w})
	}
	return nil
}
