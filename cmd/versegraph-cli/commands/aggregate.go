package commands

import (
	"context"
	"log/slog"

	"versegraph/lib/serviceutil"
	"versegraph/services/vocab"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(aggregateCmd)
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Aggregates per-song vocabulary statistics from converted lines.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := loadConfig()
		graph := openGraph(ctx, config)
		defer graph.Close(context.Background())

		svc := vocab.NewService(vocab.NewNeo4jStore(graph))
		report, err := svc.AggregateSongs(ctx)
		if err != nil {
			serviceutil.Fatal("failed to aggregate songs", err)
		}
		slog.Info("songs aggregated",
			"aggregated", report.Aggregated,
			"skipped_empty", report.SkippedEmpty)
	},
}
