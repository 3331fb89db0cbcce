package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/urmzd/nxbridge/pkg/config"
)

var (
	initForce bool

	initCmd = &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default configuration file.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "nxbridge.yaml"
			switch {
			case len(args) > 0:
				path = args[0]
			case configPath != "":
				path = configPath
			}
			return writeDefaultConfig(cmd, path, initForce)
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing file")
}

func writeDefaultConfig(cmd *cobra.Command, path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists, use --force to overwrite", path)
		}
	}
	if err := config.Save(path, config.Default()); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}
