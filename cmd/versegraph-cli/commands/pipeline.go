package commands

import (
	"context"
	"fmt"
	"log/slog"

	"versegraph/lib/scrapers/spotify"
	"versegraph/lib/serviceutil"
	"versegraph/services/enrichment"
	"versegraph/services/pipeline"
	"versegraph/services/taxonomy"
	"versegraph/services/vocab"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(pipelineCmd)
}

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Runs every migration stage in order, checking prerequisites between stages.",
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

		vocabSvc := vocab.NewService(vocab.NewNeo4jStore(graph))
		enrichSvc := enrichment.NewService(
			enrichment.NewNeo4jStore(graph),
			spotify.NewClient(config.Spotify),
			featureCache,
		)
		taxonomySvc, err := taxonomy.NewService(taxonomy.NewNeo4jStore(graph), config.weights())
		if err != nil {
			serviceutil.Fatal("invalid taxonomy weights", err)
		}

		driver, err := pipeline.NewDriver(pipeline.NewNeo4jStore(graph), []pipeline.Stage{
			{
				Name:     "words",
				Produces: []pipeline.Field{pipeline.FieldDictionary},
				Run: func(ctx context.Context) (string, error) {
					report, err := vocabSvc.BuildDictionary(ctx)
					if err != nil {
						return "", err
					}
					return fmt.Sprintf("%d distinct words, %d collisions",
						report.DistinctWords, report.Collisions), nil
				},
			},
			{
				Name:     "convert",
				Requires: []pipeline.Field{pipeline.FieldDictionary},
				Produces: []pipeline.Field{pipeline.FieldWordSequence},
				Run: func(ctx context.Context) (string, error) {
					report, err := vocabSvc.ConvertLines(ctx)
					if err != nil {
						return "", err
					}
					return fmt.Sprintf("%d lines converted, %d empty skipped",
						report.Converted, report.SkippedEmpty), nil
				},
			},
			{
				Name:     "aggregate",
				Requires: []pipeline.Field{pipeline.FieldWordSequence},
				Produces: []pipeline.Field{pipeline.FieldSongStats},
				Run: func(ctx context.Context) (string, error) {
					report, err := vocabSvc.AggregateSongs(ctx)
					if err != nil {
						return "", err
					}
					return fmt.Sprintf("%d songs aggregated", report.Aggregated), nil
				},
			},
			{
				Name:     "enrich",
				Requires: []pipeline.Field{pipeline.FieldSongStats},
				Produces: []pipeline.Field{pipeline.FieldAudioFeatures},
				Run: func(ctx context.Context) (string, error) {
					report, err := enrichSvc.EnrichSongs(ctx)
					if err != nil {
						return "", err
					}
					return fmt.Sprintf("%d songs enriched, %d unmatched",
						report.Enriched, report.SkippedNoMatch), nil
				},
			},
			{
				Name:     "taxonomy",
				Requires: []pipeline.Field{pipeline.FieldSongStats, pipeline.FieldAudioFeatures},
				Produces: []pipeline.Field{pipeline.FieldTaxonomy},
				Run: func(ctx context.Context) (string, error) {
					report, err := taxonomySvc.ScoreSongs(ctx)
					if err != nil {
						return "", err
					}
					return fmt.Sprintf("%d songs scored, %d skipped",
						report.Scored, report.SkippedMissingInput), nil
				},
			},
		})
		if err != nil {
			serviceutil.Fatal("invalid pipeline", err)
		}

		results, err := driver.Run(ctx)
		if err != nil {
			serviceutil.Fatal("pipeline failed", err)
		}
		for _, result := range results {
			slog.Info("stage finished",
				"stage", result.Stage,
				"summary", result.Summary,
				"duration", result.Duration)
		}
	},
}
