package commands

import (
	"context"
	"log/slog"

	"versegraph/lib/serviceutil"
	"versegraph/services/vocab"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(wordsCmd)
}

var wordsCmd = &cobra.Command{
	Use:   "words",
	Short: "Builds the word dictionary from all lyric lines.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := loadConfig()
		graph := openGraph(ctx, config)
		defer graph.Close(context.Background())

		svc := vocab.NewService(vocab.NewNeo4jStore(graph))
		report, err := svc.BuildDictionary(ctx)
		if err != nil {
			serviceutil.Fatal("failed to build dictionary", err)
		}
		slog.Info("dictionary built",
			"distinct_words", report.DistinctWords,
			"total_tokens", report.TotalTokens,
			"upserted", report.Upserted,
			"collisions", report.Collisions)
	},
}
