package commands

import (
	"context"
	"log/slog"

	"versegraph/lib/serviceutil"
	"versegraph/services/taxonomy"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(taxonomyCmd)
}

var taxonomyCmd = &cobra.Command{
	Use:   "taxonomy",
	Short: "Scores songs along the five taxonomy dimensions.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := loadConfig()
		graph := openGraph(ctx, config)
		defer graph.Close(context.Background())

		svc, err := taxonomy.NewService(taxonomy.NewNeo4jStore(graph), config.weights())
		if err != nil {
			serviceutil.Fatal("invalid taxonomy weights", err)
		}
		report, err := svc.ScoreSongs(ctx)
		if err != nil {
			serviceutil.Fatal("failed to score songs", err)
		}
		slog.Info("songs scored",
			"scored", report.Scored,
			"skipped_missing_input", report.SkippedMissingInput)
	},
}
