package commands

import (
	"context"
	"log/slog"

	"versegraph/lib/scrapers/reddit"
	"versegraph/lib/serviceutil"
	"versegraph/services/engagement"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(engagementCmd)
}

var engagementCmd = &cobra.Command{
	Use:   "engagement",
	Short: "Collects per-artist community metrics from the discussion forum.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := loadConfig()
		graph := openGraph(ctx, config)
		defer graph.Close(context.Background())

		svc := engagement.NewService(
			engagement.NewNeo4jStore(graph),
			reddit.NewClient(config.Reddit),
		)
		report, err := svc.CollectArtistEngagement(ctx)
		if err != nil {
			serviceutil.Fatal("failed to collect engagement", err)
		}
		slog.Info("engagement collected",
			"collected", report.Collected,
			"no_subreddit", report.NoSubreddit,
			"failed", report.Failed)
	},
}
