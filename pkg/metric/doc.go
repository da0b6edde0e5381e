// Package metric evaluates a map of named scalar metrics against a threshold.
//
// A comparison is either one of the built-in operators, selected by its
// symbol, or a caller-supplied predicate. The per-metric results are reduced
// to a single boolean with "any" or "all" semantics:
//
//	ok, err := metric.Any(map[string]float64{"plane0": 0.7, "plane1": 0.1}, 0.5, ">")
//	// ok == true
//
//	ok, err = metric.All(probabilities, 0.5, metric.Predicate(func(v, t float64) bool {
//	    return math.Abs(v-t) < 0.05
//	}))
//
// # Empty maps
//
// [Any] over an empty map is false and [All] over an empty map is true. The
// second case is vacuous truth: no metric violates the rule. Callers that
// need "at least one metric and all of them pass" must check the map length
// themselves.
//
// # Errors
//
// An unknown operator symbol fails with code INVALID_OPERATION; a value that
// is neither a symbol nor a predicate fails with INVALID_OPERATOR_TYPE. Both
// are reported before any metric is compared.
package metric
