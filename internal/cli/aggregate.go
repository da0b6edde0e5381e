package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ophysqc/pkg/pipeline"
	"github.com/matzehuels/ophysqc/pkg/qc"
)

// aggregateCommand creates the aggregate command that rebuilds
// quality_control.json from existing evaluations.
func (c *CLI) aggregateCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "aggregate DIR...",
		Short: "Combine quality_evaluation.json files into quality_control.json",
		Long: `Combine every quality_evaluation.json found below the given directories
into a single quality_control.json written to the output directory.

Directories are scanned in order; files are sorted within each directory and
reported once even when directories overlap.

Examples:
  ophysqc aggregate results/ data/ -o results/`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAggregate(cmd.Context(), args, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", pipeline.DefaultOutputDir, "output directory for quality_control.json")

	return cmd
}

// runAggregate collects the evaluations and writes the report.
func (c *CLI) runAggregate(ctx context.Context, roots []string, output string) error {
	logger := loggerFromContext(ctx)

	report, err := qc.Aggregate(roots...)
	if err != nil {
		return err
	}
	if len(report.Evaluations) == 0 {
		printWarning("No evaluations found in %v", roots)
	}
	path, err := qc.WriteQualityControl(output, report)
	if err != nil {
		return err
	}
	logger.Debug("aggregated evaluations", "roots", roots, "evaluations", len(report.Evaluations))

	counts := report.StatusCounts()
	printSuccess("Aggregated %d evaluations", len(report.Evaluations))
	printFile(path)
	printKeyValue("Status", string(report.Status()))
	printDetail("%d pass · %d fail · %d pending",
		counts[qc.StatusPass], counts[qc.StatusFail], counts[qc.StatusPending])
	return nil
}
