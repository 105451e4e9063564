package commands

import (
	"context"
	"log/slog"

	"versegraph/lib/scrapers/spotify"
	"versegraph/lib/serviceutil"
	"versegraph/services/enrichment"

	"github.com/spf13/cobra"
)

var estimateAlbums bool

func init() {
	enrichCmd.Flags().BoolVar(&estimateAlbums, "estimate-albums", false,
		"after the catalog pass, fill unmatched songs with album-average estimates")
	rootCmd.AddCommand(enrichCmd)
}

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Fetches audio features from the streaming catalog for songs missing them.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := loadConfig()
		graph := openGraph(ctx, config)
		defer graph.Close(context.Background())

		var featureCache enrichment.FeatureCache
		if c := openCache(config); c != nil {
			defer c.Close()
			featureCache = c
		}

		svc := enrichment.NewService(
			enrichment.NewNeo4jStore(graph),
			spotify.NewClient(config.Spotify),
			featureCache,
		)
		report, err := svc.EnrichSongs(ctx)
		if err != nil {
			serviceutil.Fatal("failed to enrich songs", err)
		}
		slog.Info("songs enriched",
			"enriched", report.Enriched,
			"from_cache", report.FromCache,
			"skipped_no_match", report.SkippedNoMatch,
			"failed", report.Failed)

		if !estimateAlbums {
			return
		}
		estimate, err := svc.EstimateFromAlbums(ctx)
		if err != nil {
			serviceutil.Fatal("failed to estimate from album averages", err)
		}
		slog.Info("album estimates applied",
			"estimated", estimate.Estimated,
			"skipped_no_average", estimate.SkippedNoAverage,
			"failed", estimate.Failed)
	},
}
