package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/urmzd/nxbridge/pkg/trace"
)

var (
	traceSession   string
	traceDirection string
	traceSince     string

	traceCmd = &cobra.Command{
		Use:   "trace <file>",
		Short: "Print the records of a serial trace file.",
		Long: `Prints a trace written with trace.enabled, one line per record:
timestamp, direction, session and data. User codes are stored redacted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := traceFilter(traceSession, traceDirection, traceSince)
			if err != nil {
				return err
			}
			return printTrace(cmd.OutOrStdout(), args[0], filter)
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	traceCmd.Flags().StringVar(&traceSession, "session", "", "only records of this controller session")
	traceCmd.Flags().StringVar(&traceDirection, "direction", "", "only records in this direction (in, out)")
	traceCmd.Flags().StringVar(&traceSince, "since", "", "only records at or after this RFC 3339 time")
}

func traceFilter(session, direction, since string) (trace.Filter, error) {
	filter := trace.Filter{Session: session}
	if direction != "" {
		d, ok := trace.ParseDirection(direction)
		if !ok {
			return filter, fmt.Errorf("invalid direction %q, want in or out", direction)
		}
		filter.Direction = d
	}
	if since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return filter, fmt.Errorf("invalid --since: %w", err)
		}
		filter.Since = t
	}
	return filter, nil
}

func printTrace(w io.Writer, path string, filter trace.Filter) error {
	r, err := trace.NewReader(path, filter)
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }()

	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "%s %-3s %s %q\n",
			rec.Timestamp.Format(time.RFC3339Nano), rec.Direction, rec.Session, rec.Data)
	}
}
