// Package pipeline turns a processed optical-physiology session into QC
// evaluation files.
//
// A run is a list of summaries. Each summary discovers artifacts across the
// session's planes and produces one evaluation:
//
//   - composite: matched images are tiled into a labeled PNG and recorded as
//     a checkbox metric pending manual review, with the PNG as reference.
//   - threshold: a numeric field is read from each matched JSON file and the
//     per-plane values are reduced to one boolean with an any/all rule.
//
// After every summary has been written, the evaluations found under the
// output and input trees are aggregated into a single quality_control.json.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, logger)
//	opts := pipeline.DefaultOptions()
//	opts.InputDir = "data/"
//	opts.OutputDir = "results/"
//	result, err := runner.Execute(ctx, opts)
package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/matzehuels/ophysqc/pkg/composite"
	"github.com/matzehuels/ophysqc/pkg/errors"
	"github.com/matzehuels/ophysqc/pkg/metric"
	"github.com/matzehuels/ophysqc/pkg/qc"
)

// Summary kinds.
const (
	KindComposite = "composite"
	KindThreshold = "threshold"
)

// Default values shared by the CLI and config files.
const (
	DefaultInputDir     = "data/"
	DefaultOutputDir    = "results/"
	DefaultStage        = "processing"
	DefaultModality     = "pophys"
	DefaultOperator     = ">"
	DefaultReduction    = "any"
	DefaultTargetAspect = 16.0 / 9.0
)

// Choice is one checkbox option and the status it implies when ticked.
type Choice struct {
	Label  string    `json:"label" toml:"label" yaml:"label"`
	Status qc.Status `json:"status" toml:"status" yaml:"status"`
}

// Summary describes one evaluation to produce.
type Summary struct {
	Kind        string `json:"kind" toml:"kind" yaml:"kind"`
	Name        string `json:"name" toml:"name" yaml:"name"`
	MetricName  string `json:"metric_name" toml:"metric_name" yaml:"metric_name"`
	Description string `json:"description,omitempty" toml:"description" yaml:"description,omitempty"`

	// Discovery
	Folder   string   `json:"folder,omitempty" toml:"folder" yaml:"folder,omitempty"`
	Patterns []string `json:"patterns" toml:"patterns" yaml:"patterns"`
	Output   string   `json:"output" toml:"output" yaml:"output"` // subdirectory of the output dir

	// Composite
	Image         string   `json:"image,omitempty" toml:"image" yaml:"image,omitempty"`
	Columns       int      `json:"columns,omitempty" toml:"columns" yaml:"columns,omitempty"` // 0 picks a count for TargetAspect
	Spacing       *int     `json:"spacing,omitempty" toml:"spacing" yaml:"spacing,omitempty"`
	LabelWidth    *int     `json:"label_width,omitempty" toml:"label_width" yaml:"label_width,omitempty"`
	TargetAspect  float64  `json:"target_aspect,omitempty" toml:"target_aspect" yaml:"target_aspect,omitempty"`
	FontPath      string   `json:"font_path,omitempty" toml:"font_path" yaml:"font_path,omitempty"`
	CheckboxValue string   `json:"checkbox_value,omitempty" toml:"checkbox_value" yaml:"checkbox_value,omitempty"`
	Choices       []Choice `json:"choices,omitempty" toml:"choices" yaml:"choices,omitempty"`

	// Threshold
	Field      string  `json:"field,omitempty" toml:"field" yaml:"field,omitempty"`
	Threshold  float64 `json:"threshold,omitempty" toml:"threshold" yaml:"threshold,omitempty"`
	Operator   string  `json:"operator,omitempty" toml:"operator" yaml:"operator,omitempty"`
	Reduce     string  `json:"reduce,omitempty" toml:"reduce" yaml:"reduce,omitempty"`
	AutoStatus bool    `json:"auto_status,omitempty" toml:"auto_status" yaml:"auto_status,omitempty"` // record the verdict instead of pending review

	// Evaluation
	Stage              string `json:"stage" toml:"stage" yaml:"stage"`
	Modality           string `json:"modality" toml:"modality" yaml:"modality"`
	AllowFailedMetrics bool   `json:"allow_failed_metrics" toml:"allow_failed_metrics" yaml:"allow_failed_metrics"`
}

// Options configures a full run.
type Options struct {
	InputDir  string    `json:"input_dir" toml:"input_dir" yaml:"input_dir"`
	OutputDir string    `json:"output_dir" toml:"output_dir" yaml:"output_dir"`
	Summaries []Summary `json:"summaries" toml:"summaries" yaml:"summaries"`

	// NoCache disables the composite cache for this run.
	NoCache bool `json:"-" toml:"-" yaml:"-"`

	validated bool
}

// Result contains the outputs of a full run.
type Result struct {
	Summaries []*SummaryResult
	Report    *qc.QualityControl
	// ReportPath is where quality_control.json was written.
	ReportPath string
	Duration   time.Duration
}

// SummaryResult contains the outputs of a single summary.
type SummaryResult struct {
	Name       string
	Evaluation qc.Evaluation
	// EvaluationPath is where quality_evaluation.json was written.
	EvaluationPath string
	// ImagePath is the composite PNG; empty for threshold summaries.
	ImagePath string
	// Planes lists the planes that contributed files.
	Planes []string
	// RowLabels holds the label drawn beside each composite row.
	RowLabels []string
	Files     int
	CacheHit  bool
	Duration  time.Duration
}

func intPtr(v int) *int { return &v }

// DefaultOptions returns the standard optical-physiology run: a field of
// view summary over the motion correction projections, an interictal
// event summary, and an epilepsy probability check.
func DefaultOptions() Options {
	return Options{
		InputDir:  DefaultInputDir,
		OutputDir: DefaultOutputDir,
		Summaries: []Summary{
			{
				Kind:          KindComposite,
				Name:          "Registration Summary",
				MetricName:    "Field of view summary",
				Folder:        "motion_correction",
				Patterns:      []string{"average_projection.png", "maximum_projection.png"},
				Output:        "registration_summary",
				Image:         "fov_summary.png",
				Columns:       composite.DefaultColumns,
				CheckboxValue: "Field of view integrity",
				Choices: []Choice{
					{Label: "Timeseries shuffled between planes", Status: qc.StatusPass},
					{Label: "Field of view associated with incorrect area and/or depth", Status: qc.StatusFail},
					{Label: "Paired plane cross talk: Extreme", Status: qc.StatusFail},
					{Label: "Paired plane cross-talk: Moderate", Status: qc.StatusPass},
				},
				Stage:              DefaultStage,
				Modality:           DefaultModality,
				AllowFailedMetrics: true,
			},
			{
				Kind:          KindComposite,
				Name:          "Interictal Event Images",
				MetricName:    "Interictal Event Images",
				Folder:        "movie_qc",
				Patterns:      []string{"registered_epilepsy_probability.png"},
				Output:        "interictal_summary",
				Image:         "interictal_summary.png",
				Columns:       composite.DefaultColumns,
				CheckboxValue: "Field of view integrity",
				Choices: []Choice{
					{Label: "Interictal events confirmed by manual inspection", Status: qc.StatusPass},
					{Label: "Interictal events contravened by manual inspection", Status: qc.StatusFail},
				},
				Stage:              DefaultStage,
				Modality:           DefaultModality,
				AllowFailedMetrics: true,
			},
			{
				Kind:        KindThreshold,
				Name:        "Epilepsy Probability",
				MetricName:  "Epilepsy Probability",
				Description: "If false, all probabilities were below 0.5",
				Folder:      "movie_qc",
				Patterns:    []string{"registered_metrics.json"},
				Output:      "epilepsy_probability",
				Field:       "epilepsy_probability",
				Threshold:   0.5,
				Operator:    DefaultOperator,
				Reduce:      DefaultReduction,
				Stage:       DefaultStage,
				Modality:    DefaultModality,
			},
		},
	}
}

// ValidateAndSetDefaults checks every summary and fills in defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.InputDir == "" {
		o.InputDir = DefaultInputDir
	}
	if o.OutputDir == "" {
		o.OutputDir = DefaultOutputDir
	}
	if len(o.Summaries) == 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "no summaries configured")
	}

	outputs := make(map[string]string, len(o.Summaries))
	for i := range o.Summaries {
		s := &o.Summaries[i]
		if err := s.validateAndSetDefaults(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "summary %d (%s)", i+1, s.Name)
		}
		if prev, ok := outputs[s.Output]; ok {
			return errors.New(errors.ErrCodeInvalidConfig,
				"summaries %q and %q both write to %q", prev, s.Name, s.Output)
		}
		outputs[s.Output] = s.Name
	}
	o.validated = true
	return nil
}

func (s *Summary) validateAndSetDefaults() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.MetricName == "" {
		s.MetricName = s.Name
	}
	if len(s.Patterns) == 0 {
		return fmt.Errorf("at least one pattern is required")
	}
	if s.Output == "" {
		return fmt.Errorf("output is required")
	}
	if err := errors.ValidateRelativePath(s.Output); err != nil {
		return err
	}

	if s.Stage == "" {
		s.Stage = DefaultStage
	}
	stage, err := qc.ParseStage(s.Stage)
	if err != nil {
		return err
	}
	s.Stage = string(stage)

	if s.Modality == "" {
		s.Modality = DefaultModality
	}
	if _, err := qc.ModalityFromAbbreviation(s.Modality); err != nil {
		return err
	}

	switch s.Kind {
	case KindComposite:
		return s.validateComposite()
	case KindThreshold:
		return s.validateThreshold()
	default:
		return fmt.Errorf("unknown kind %q, must be %q or %q", s.Kind, KindComposite, KindThreshold)
	}
}

func (s *Summary) validateComposite() error {
	if s.Image == "" {
		return fmt.Errorf("image is required")
	}
	if err := errors.ValidateFilename(s.Image); err != nil {
		return err
	}
	if s.Columns < 0 {
		return fmt.Errorf("columns must not be negative, got %d", s.Columns)
	}
	if s.Spacing == nil {
		s.Spacing = intPtr(composite.DefaultSpacing)
	}
	if s.LabelWidth == nil {
		s.LabelWidth = intPtr(composite.DefaultLabelWidth)
	}
	if *s.Spacing < 0 || *s.LabelWidth < 0 {
		return fmt.Errorf("spacing and label_width must not be negative")
	}
	if s.TargetAspect < 0 {
		return fmt.Errorf("target_aspect must be positive, got %g", s.TargetAspect)
	}
	if s.TargetAspect == 0 {
		s.TargetAspect = DefaultTargetAspect
	}
	if len(s.Choices) == 0 {
		return fmt.Errorf("at least one choice is required")
	}
	if s.CheckboxValue == "" {
		s.CheckboxValue = s.MetricName
	}
	for i := range s.Choices {
		c := &s.Choices[i]
		switch {
		case strings.EqualFold(string(c.Status), string(qc.StatusPass)):
			c.Status = qc.StatusPass
		case strings.EqualFold(string(c.Status), string(qc.StatusFail)):
			c.Status = qc.StatusFail
		case strings.EqualFold(string(c.Status), string(qc.StatusPending)):
			c.Status = qc.StatusPending
		default:
			return fmt.Errorf("choice %q has unknown status %q", c.Label, c.Status)
		}
	}
	return nil
}

func (s *Summary) validateThreshold() error {
	if s.Field == "" {
		return fmt.Errorf("field is required")
	}
	if s.Operator == "" {
		s.Operator = DefaultOperator
	}
	if _, err := metric.Lookup(s.Operator); err != nil {
		return err
	}
	if s.Reduce == "" {
		s.Reduce = DefaultReduction
	}
	if _, err := metric.ParseReduction(s.Reduce); err != nil {
		return err
	}
	return nil
}

// compositeOptions returns the layout options for a composite summary with
// the given number of matched images. The caller supplies the column count
// chosen for Columns == 0.
func (s *Summary) compositeOptions(labels []string, columns int) composite.Options {
	opts := composite.DefaultOptions()
	opts.Columns = columns
	opts.Spacing = *s.Spacing
	opts.LabelWidth = *s.LabelWidth
	opts.RowLabels = labels
	opts.FontPath = s.FontPath
	return opts
}

func (s *Summary) checkbox() (qc.CheckboxMetric, error) {
	options := make([]string, len(s.Choices))
	statuses := make([]qc.Status, len(s.Choices))
	for i, c := range s.Choices {
		options[i] = c.Label
		statuses[i] = c.Status
	}
	return qc.NewCheckbox(s.CheckboxValue, options, statuses)
}

func (s *Summary) evaluation(m qc.Metric) qc.Evaluation {
	stage, _ := qc.ParseStage(s.Stage)
	modality, _ := qc.ModalityFromAbbreviation(s.Modality)
	return qc.Evaluation{
		Modality:           modality,
		Stage:              stage,
		Name:               s.Name,
		Metrics:            []qc.Metric{m},
		AllowFailedMetrics: s.AllowFailedMetrics,
	}
}
