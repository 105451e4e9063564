package commands

import (
	"context"
	"io"
	"os"

	"versegraph/lib/serviceutil"
	"versegraph/services/validation"

	"github.com/spf13/cobra"
)

var (
	validateJsonPath string
	validateCsvPath  string
)

func init() {
	validateCmd.Flags().StringVar(&validateJsonPath, "json", "",
		"also write the report as JSON to this path")
	validateCmd.Flags().StringVar(&validateCsvPath, "csv", "",
		"also write the report as CSV to this path")
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Reports coverage ratios over the graph. Read-only.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		config := loadConfig()
		graph := openGraph(ctx, config)
		defer graph.Close(context.Background())

		svc := validation.NewService(validation.NewNeo4jStore(graph))
		report, err := svc.Collect(ctx)
		if err != nil {
			serviceutil.Fatal("failed to collect validation report", err)
		}

		report.Render(os.Stdout)

		if validateJsonPath != "" {
			if err := writeArtifact(validateJsonPath, report.WriteJSON); err != nil {
				serviceutil.Fatal("failed to write json report", err)
			}
		}
		if validateCsvPath != "" {
			if err := writeArtifact(validateCsvPath, report.WriteCSV); err != nil {
				serviceutil.Fatal("failed to write csv report", err)
			}
		}
	},
}

func writeArtifact(path string, write func(out io.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
