package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/matzehuels/ophysqc/pkg/cache"
	"github.com/matzehuels/ophysqc/pkg/discovery"
	"github.com/matzehuels/ophysqc/pkg/qc"
)

// Runner executes summaries with caching.
//
// The Runner holds no per-run state, so one Runner may serve several runs
// with different options.
type Runner struct {
	Cache  cache.Cache
	Logger *log.Logger
	// Fs is the filesystem inputs are discovered and read from. Outputs
	// always go to the OS filesystem.
	Fs afero.Fs
	// Now stamps status history entries.
	Now func() time.Time
}

// NewRunner creates a runner over the OS filesystem.
// If c is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Logger: logger,
		Fs:     afero.NewOsFs(),
		Now:    time.Now,
	}
}

// Execute runs every summary in order and then aggregates all evaluations
// into quality_control.json. Cancellation is checked between summaries.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	start := time.Now()

	result := &Result{}
	for i := range opts.Summaries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sr, err := r.RunSummary(ctx, opts, opts.Summaries[i])
		if err != nil {
			return nil, fmt.Errorf("summary %q: %w", opts.Summaries[i].Name, err)
		}
		result.Summaries = append(result.Summaries, sr)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	report, path, err := r.Aggregate(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	result.Report = report
	result.ReportPath = path
	result.Duration = time.Since(start)
	return result, nil
}

// RunSummary produces one evaluation and writes it to
// OutputDir/Output/quality_evaluation.json.
func (r *Runner) RunSummary(ctx context.Context, opts Options, s Summary) (*SummaryResult, error) {
	if err := s.validateAndSetDefaults(); err != nil {
		return nil, err
	}
	start := time.Now()
	logger := r.Logger.With("summary", s.Name)

	match, err := discovery.NewScanner(r.Fs, logger).Collect(opts.InputDir, s.Folder, s.Patterns)
	if err != nil {
		return nil, err
	}
	logger.Debug("collected files", "planes", len(match.Labels), "files", len(match.Files))

	outDir := filepath.Join(opts.OutputDir, s.Output)
	sr := &SummaryResult{
		Name:   s.Name,
		Planes: match.Labels,
		Files:  len(match.Files),
	}

	var m qc.Metric
	switch s.Kind {
	case KindComposite:
		m, err = r.composeSummary(ctx, opts, s, match, outDir, sr)
	case KindThreshold:
		m, err = r.thresholdSummary(ctx, s, match)
	}
	if err != nil {
		return nil, err
	}

	sr.Evaluation = s.evaluation(m)
	if sr.EvaluationPath, err = qc.WriteEvaluation(outDir, sr.Evaluation); err != nil {
		return nil, err
	}
	sr.Duration = time.Since(start)
	logger.Info("wrote evaluation", "path", sr.EvaluationPath, "duration", sr.Duration)
	return sr, nil
}

// Aggregate collects the evaluations under the output and input trees into
// OutputDir/quality_control.json.
func (r *Runner) Aggregate(ctx context.Context, opts Options) (*qc.QualityControl, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	report, err := qc.Aggregate(opts.OutputDir, opts.InputDir)
	if err != nil {
		return nil, "", err
	}
	path, err := qc.WriteQualityControl(opts.OutputDir, report)
	if err != nil {
		return nil, "", err
	}
	r.Logger.Info("wrote quality control report",
		"evaluations", len(report.Evaluations),
		"status", report.Status(),
		"path", path)
	return report, path, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}
