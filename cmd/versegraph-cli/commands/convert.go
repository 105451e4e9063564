package commands

import (
	"context"
	"log/slog"

	"versegraph/lib/serviceutil"
	"versegraph/services/vocab"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(convertCmd)
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Rewrites lyric lines as ordered word identifier sequences.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := loadConfig()
		graph := openGraph(ctx, config)
		defer graph.Close(context.Background())

		svc := vocab.NewService(vocab.NewNeo4jStore(graph))
		report, err := svc.ConvertLines(ctx)
		if err != nil {
			serviceutil.Fatal("failed to convert lines", err)
		}
		slog.Info("lines converted",
			"converted", report.Converted,
			"skipped_empty", report.SkippedEmpty)
	},
}
