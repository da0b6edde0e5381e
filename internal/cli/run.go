package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/ophysqc/pkg/errors"
	"github.com/matzehuels/ophysqc/pkg/observability"
	"github.com/matzehuels/ophysqc/pkg/pipeline"
)

// runOpts holds the command-line flags for the run command.
type runOpts struct {
	input   string // session directory with one subdirectory per plane
	output  string // results directory
	config  string // optional TOML/YAML/JSON run configuration
	noCache bool   // disable the composite cache
	redis   string // Redis address for a shared composite cache
}

// runCommand creates the run command that produces every configured summary.
func (c *CLI) runCommand() *cobra.Command {
	opts := runOpts{input: pipeline.DefaultInputDir, output: pipeline.DefaultOutputDir}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate QC summaries and the aggregated quality control report",
		Long: `Generate QC summaries and the aggregated quality control report.

Without --config the standard summaries are produced: a field of view
composite of the motion correction projections, an interictal event
composite, and an epilepsy probability threshold check. Each writes a
quality_evaluation.json below the output directory; all evaluations found
under the output and input directories are then combined into
quality_control.json.

Composites are cached locally; unchanged inputs reuse the cached image.

Examples:
  ophysqc run
  ophysqc run --input /data/session --output /results
  ophysqc run --config qc.toml --no-cache`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			po, err := opts.pipelineOptions(cmd)
			if err != nil {
				return err
			}
			return c.runRun(cmd.Context(), po, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "input", "i", opts.input, "input directory containing the session data")
	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "output directory for results")
	cmd.Flags().StringVarP(&opts.config, "config", "c", "", "run configuration file (.toml, .yaml, .json)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&opts.redis, "redis", "", "Redis address for a shared composite cache (host:port)")

	return cmd
}

// pipelineOptions builds the run options. Explicit --input and --output
// flags override the configuration file.
func (o *runOpts) pipelineOptions(cmd *cobra.Command) (pipeline.Options, error) {
	po := pipeline.DefaultOptions()
	if o.config != "" {
		loaded, err := pipeline.LoadOptions(o.config)
		if err != nil {
			return pipeline.Options{}, err
		}
		po = loaded
	}
	if o.config == "" || cmd.Flags().Changed("input") {
		po.InputDir = o.input
	}
	if o.config == "" || cmd.Flags().Changed("output") {
		po.OutputDir = o.output
	}
	po.NoCache = o.noCache
	if err := po.ValidateAndSetDefaults(); err != nil {
		return pipeline.Options{}, err
	}
	return po, nil
}

// runRun executes the pipeline and prints a summary of what was written.
func (c *CLI) runRun(ctx context.Context, po pipeline.Options, opts runOpts) error {
	logger := loggerFromContext(ctx)
	logger.Info("generating quality control", "input", po.InputDir, "output", po.OutputDir, "summaries", len(po.Summaries))

	runner, err := c.newRunner(ctx, opts.noCache, opts.redis)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, "Generating QC summaries...")
	restore := followProgress(spinner)
	defer restore()
	spinner.Start()

	result, err := runner.Execute(ctx, po)
	if err != nil {
		if spinner.Cancelled() {
			spinner.Stop()
			printWarning("Interrupted, partial results are in %s", po.OutputDir)
			return err
		}
		logger.Debug("run failed", "code", errors.GetCode(err))
		spinner.StopWithError("QC generation failed")
		return err
	}
	spinner.StopWithSuccess("Quality control report written")
	prog.done(fmt.Sprintf("Generated %d summaries", len(result.Summaries)))

	for _, sr := range result.Summaries {
		printKeyValue(sr.Name, string(sr.Evaluation.Status()))
		if sr.ImagePath != "" {
			printFile(sr.ImagePath)
		}
		printFile(sr.EvaluationPath)
		printStats(len(sr.Planes), sr.Files, sr.CacheHit)
	}
	printNewline()
	printKeyValue("Report", string(result.Report.Status()))
	printFile(result.ReportPath)
	printNewline()
	printNextStep("Re-aggregate after review", fmt.Sprintf("%s aggregate %s -o %s", appName, po.OutputDir, po.OutputDir))

	return nil
}

// spinnerHooks mirrors pipeline progress in the spinner message.
type spinnerHooks struct {
	spinner *Spinner
}

func (h spinnerHooks) OnComposeStart(_ context.Context, summary string, images int) {
	h.spinner.SetMessage(fmt.Sprintf("Composing %s (%d images)...", summary, images))
}

func (h spinnerHooks) OnComposeComplete(context.Context, string, time.Duration, error) {}

func (h spinnerHooks) OnEvaluate(_ context.Context, summary string, _ int, _ bool, _ error) {
	h.spinner.SetMessage(fmt.Sprintf("Evaluated %s...", summary))
}

// followProgress routes compose and evaluate events to spinner until the
// returned function restores the previous hooks.
func followProgress(spinner *Spinner) (restore func()) {
	prevCompose, prevEvaluate := observability.Compose(), observability.Evaluate()
	h := spinnerHooks{spinner: spinner}
	observability.SetComposeHooks(h)
	observability.SetEvaluateHooks(h)
	return func() {
		observability.SetComposeHooks(prevCompose)
		observability.SetEvaluateHooks(prevEvaluate)
	}
}
