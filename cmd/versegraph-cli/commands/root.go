// Package commands holds the migration subcommands. Each one is a
// one-shot script over the graph; they share config loading and the
// connection helpers in config.go.
package commands

import (
	"context"
	"fmt"
	"os"

	"versegraph/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "versegraph-cli",
	Short: "versegraph-cli runs one-off migration and enrichment scripts against the lyrics graph.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&configPath, "config", "config.json5", "path to the config file")
	rootCmd.PersistentFlags().BoolVarP(
		&verbose, "verbose", "v", false, "enable debug logging")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
