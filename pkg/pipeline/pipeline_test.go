package pipeline

import (
	"testing"

	"github.com/matzehuels/ophysqc/pkg/errors"
	"github.com/matzehuels/ophysqc/pkg/qc"
)

func TestDefaultOptionsValidate(t *testing.T) {
	opts := DefaultOptions()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error: %v", err)
	}
	if len(opts.Summaries) != 3 {
		t.Fatalf("got %d summaries, want 3", len(opts.Summaries))
	}

	fov := opts.Summaries[0]
	if fov.Kind != KindComposite || fov.Output != "registration_summary" || fov.Image != "fov_summary.png" {
		t.Errorf("unexpected first summary: %+v", fov)
	}
	if *fov.Spacing != 10 || *fov.LabelWidth != 200 {
		t.Errorf("spacing/label width = %d/%d, want 10/200", *fov.Spacing, *fov.LabelWidth)
	}
	if fov.Stage != string(qc.StageProcessing) {
		t.Errorf("stage = %q, want %q", fov.Stage, qc.StageProcessing)
	}

	prob := opts.Summaries[2]
	if prob.Kind != KindThreshold || prob.Operator != ">" || prob.Threshold != 0.5 || prob.Reduce != "any" {
		t.Errorf("unexpected threshold summary: %+v", prob)
	}
	if prob.AllowFailedMetrics {
		t.Error("threshold summary should not allow failed metrics")
	}
}

func TestValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := DefaultOptions()
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	s := opts.Summaries[0]
	if err := s.validateAndSetDefaults(); err != nil {
		t.Fatalf("second validation failed: %v", err)
	}
	if s.Stage != string(qc.StageProcessing) {
		t.Errorf("stage changed to %q", s.Stage)
	}
}

func TestValidateAndSetDefaultsErrors(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Options)
		code   errors.Code
	}{
		{"no summaries", func(o *Options) { o.Summaries = nil }, errors.ErrCodeInvalidConfig},
		{"unknown kind", func(o *Options) { o.Summaries[0].Kind = "histogram" }, errors.ErrCodeInvalidConfig},
		{"missing name", func(o *Options) { o.Summaries[0].Name = "" }, errors.ErrCodeInvalidConfig},
		{"no patterns", func(o *Options) { o.Summaries[0].Patterns = nil }, errors.ErrCodeInvalidConfig},
		{"unknown operator", func(o *Options) { o.Summaries[2].Operator = "~" }, errors.ErrCodeInvalidOperation},
		{"unknown reduction", func(o *Options) { o.Summaries[2].Reduce = "most" }, errors.ErrCodeInvalidInput},
		{"unknown stage", func(o *Options) { o.Summaries[0].Stage = "review" }, errors.ErrCodeInvalidInput},
		{"unknown modality", func(o *Options) { o.Summaries[1].Modality = "ecephys" }, errors.ErrCodeInvalidInput},
		{"image with directory", func(o *Options) { o.Summaries[0].Image = "../fov.png" }, errors.ErrCodeInvalidPath},
		{"absolute output", func(o *Options) { o.Summaries[0].Output = "/tmp/out" }, errors.ErrCodeInvalidPath},
		{"escaping output", func(o *Options) { o.Summaries[0].Output = "../out" }, errors.ErrCodeInvalidPath},
		{"duplicate output", func(o *Options) { o.Summaries[1].Output = o.Summaries[0].Output }, errors.ErrCodeInvalidConfig},
		{"no choices", func(o *Options) { o.Summaries[0].Choices = nil }, errors.ErrCodeInvalidConfig},
		{"bad choice status", func(o *Options) { o.Summaries[0].Choices[0].Status = "Maybe" }, errors.ErrCodeInvalidConfig},
		{"negative columns", func(o *Options) { o.Summaries[0].Columns = -1 }, errors.ErrCodeInvalidConfig},
		{"missing field", func(o *Options) { o.Summaries[2].Field = "" }, errors.ErrCodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.modify(&opts)
			err := opts.ValidateAndSetDefaults()
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestValidateFillsDefaults(t *testing.T) {
	opts := Options{Summaries: []Summary{{
		Kind:     KindComposite,
		Name:     "Projections",
		Patterns: []string{"projection.png"},
		Output:   "projections",
		Image:    "projections.png",
		Choices:  []Choice{{Label: "Looks fine", Status: "pass"}},
	}}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error: %v", err)
	}
	s := opts.Summaries[0]
	if opts.InputDir != DefaultInputDir || opts.OutputDir != DefaultOutputDir {
		t.Errorf("dirs = %q, %q", opts.InputDir, opts.OutputDir)
	}
	if s.MetricName != "Projections" || s.CheckboxValue != "Projections" {
		t.Errorf("metric name / checkbox value = %q / %q", s.MetricName, s.CheckboxValue)
	}
	if s.Modality != DefaultModality || s.Stage != string(qc.StageProcessing) {
		t.Errorf("modality/stage = %q/%q", s.Modality, s.Stage)
	}
	if s.TargetAspect != DefaultTargetAspect {
		t.Errorf("target aspect = %g, want %g", s.TargetAspect, DefaultTargetAspect)
	}
	if s.Choices[0].Status != qc.StatusPass {
		t.Errorf("choice status = %q, want normalized Pass", s.Choices[0].Status)
	}
}
