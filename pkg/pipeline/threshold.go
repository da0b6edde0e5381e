package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/afero"

	"github.com/matzehuels/ophysqc/pkg/discovery"
	"github.com/matzehuels/ophysqc/pkg/errors"
	"github.com/matzehuels/ophysqc/pkg/metric"
	"github.com/matzehuels/ophysqc/pkg/observability"
	"github.com/matzehuels/ophysqc/pkg/qc"
)

// thresholdEvaluator names automated verdicts in the status history.
const thresholdEvaluator = "Automated threshold check"

// thresholdSummary reads s.Field from every matched JSON file and reduces
// the per-plane values to a single boolean metric.
func (r *Runner) thresholdSummary(ctx context.Context, s Summary, match *discovery.Match) (qc.Metric, error) {
	values, err := readMetricValues(r.Fs, match, s.Field)
	if err != nil {
		return qc.Metric{}, err
	}

	reduce, _ := metric.ParseReduction(s.Reduce)
	result, err := metric.Evaluate(values, s.Threshold, s.Operator, reduce)
	observability.Evaluate().OnEvaluate(ctx, s.Name, len(values), result, err)
	if err != nil {
		return qc.Metric{}, err
	}

	logger := r.Logger.With("summary", s.Name)
	if failing, err := metric.Failing(values, s.Threshold, s.Operator); err == nil && len(failing) > 0 {
		logger.Debug("values not satisfying threshold", "planes", failing)
	}
	logger.Info("evaluated threshold",
		"values", len(values),
		"rule", fmt.Sprintf("%s %s %g", reduce, s.Operator, s.Threshold),
		"result", result)

	m := qc.Metric{
		Name:          s.MetricName,
		Value:         result,
		StatusHistory: qc.PendingReview(r.now()),
	}
	if s.AutoStatus {
		m.StatusHistory = qc.Automated(thresholdEvaluator, result, r.now())
	}
	if s.Description != "" {
		m.Description = &s.Description
	}
	return m, nil
}

// readMetricValues builds a metric map keyed by plane label. A plane that
// matched more than one file contributes "label#2", "label#3" and so on.
func readMetricValues(fs afero.Fs, match *discovery.Match, field string) (map[string]float64, error) {
	values := make(map[string]float64, len(match.Files))
	seen := make(map[string]int, len(match.Labels))
	for i, path := range match.Files {
		v, err := readField(fs, path, field)
		if err != nil {
			return nil, err
		}
		label := match.Planes[i]
		seen[label]++
		if n := seen[label]; n > 1 {
			label = fmt.Sprintf("%s#%d", label, n)
		}
		values[label] = v
	}
	return values, nil
}

func readField(fs afero.Fs, path, field string) (float64, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
		}
		return 0, fmt.Errorf("read %s: %w", path, err)
	}

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode %s", path)
	}
	raw, ok := doc[field]
	if !ok {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s has no field %q", path, field)
	}
	v, ok := raw.(float64)
	if !ok {
		return 0, errors.New(errors.ErrCodeInvalidInput, "%s: field %q is %T, want a number", path, field, raw)
	}
	return v, nil
}
