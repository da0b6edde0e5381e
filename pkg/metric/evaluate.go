package metric

import (
	"slices"
	"strings"

	"github.com/matzehuels/ophysqc/pkg/errors"
)

// Reduction folds per-metric results into one boolean.
type Reduction string

// Supported reductions.
const (
	ReduceAny Reduction = "any"
	ReduceAll Reduction = "all"
)

// ParseReduction accepts "any" or "all", case-insensitively.
func ParseReduction(s string) (Reduction, error) {
	switch r := Reduction(strings.ToLower(strings.TrimSpace(s))); r {
	case ReduceAny, ReduceAll:
		return r, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unknown reduction %q, must be 'any' or 'all'", s)
}

// Any reports whether at least one metric satisfies op against threshold.
// An empty map yields false.
func Any(metrics map[string]float64, threshold float64, op any) (bool, error) {
	cmp, err := Resolve(op)
	if err != nil {
		return false, err
	}
	for _, v := range metrics {
		if cmp.Compare(v, threshold) {
			return true, nil
		}
	}
	return false, nil
}

// All reports whether every metric satisfies op against threshold.
// An empty map yields true.
func All(metrics map[string]float64, threshold float64, op any) (bool, error) {
	cmp, err := Resolve(op)
	if err != nil {
		return false, err
	}
	for _, v := range metrics {
		if !cmp.Compare(v, threshold) {
			return false, nil
		}
	}
	return true, nil
}

// Evaluate dispatches to [Any] or [All].
func Evaluate(metrics map[string]float64, threshold float64, op any, r Reduction) (bool, error) {
	switch r {
	case ReduceAny:
		return Any(metrics, threshold, op)
	case ReduceAll:
		return All(metrics, threshold, op)
	}
	return false, errors.New(errors.ErrCodeInvalidInput, "unknown reduction %q", r)
}

// Failing returns the keys whose values do not satisfy op, sorted. It is
// used to explain a failed "all" rule in reports.
func Failing(metrics map[string]float64, threshold float64, op any) ([]string, error) {
	cmp, err := Resolve(op)
	if err != nil {
		return nil, err
	}
	var keys []string
	for k, v := range metrics {
		if !cmp.Compare(v, threshold) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}
