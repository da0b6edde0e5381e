package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ophysqc/pkg/errors"
	"github.com/matzehuels/ophysqc/pkg/metric"
)

// evaluateOpts holds the command-line flags for the evaluate command.
type evaluateOpts struct {
	threshold float64
	op        string
	all       bool
}

// evaluateCommand creates the evaluate command for ad-hoc threshold checks.
func (c *CLI) evaluateCommand() *cobra.Command {
	opts := evaluateOpts{op: ">"}

	cmd := &cobra.Command{
		Use:   "evaluate METRICS.json",
		Short: "Check a map of metrics against a threshold",
		Long: `Check a map of metrics against a threshold and print true or false.

METRICS.json must hold a JSON object of names to numbers. By default the
result is true when any value satisfies the comparison; with --all every
value must. An empty object is false for any and true for all.

Examples:
  ophysqc evaluate probs.json --threshold 0.5
  ophysqc evaluate snr.json --threshold 3 --op ">=" --all`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEvaluate(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().Float64Var(&opts.threshold, "threshold", 0, "threshold to compare against (required)")
	cmd.Flags().StringVar(&opts.op, "op", opts.op, "comparison: ==, !=, <, <=, >, >=")
	cmd.Flags().BoolVar(&opts.all, "all", false, "require every value to satisfy the comparison")
	_ = cmd.MarkFlagRequired("threshold")

	return cmd
}

// runEvaluate reads the metrics, evaluates them, and writes the verdict to w.
func (c *CLI) runEvaluate(ctx context.Context, w io.Writer, path string, opts evaluateOpts) error {
	logger := loggerFromContext(ctx)

	metrics, err := readMetrics(path)
	if err != nil {
		return err
	}

	reduce := metric.ReduceAny
	if opts.all {
		reduce = metric.ReduceAll
	}
	result, err := metric.Evaluate(metrics, opts.threshold, opts.op, reduce)
	if err != nil {
		return err
	}
	if failing, err := metric.Failing(metrics, opts.threshold, opts.op); err == nil && len(failing) > 0 {
		logger.Debug("values not satisfying threshold", "metrics", failing)
	}
	logger.Debug("evaluated", "values", len(metrics), "rule", fmt.Sprintf("%s %s %g", reduce, opts.op, opts.threshold))

	_, err = fmt.Fprintln(w, result)
	return err
}

// readMetrics loads a JSON object of metric names to numbers.
func readMetrics(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var metrics map[string]float64
	if err := json.Unmarshal(data, &metrics); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "%s must hold an object of numbers", path)
	}
	if metrics == nil {
		metrics = map[string]float64{}
	}
	return metrics, nil
}
