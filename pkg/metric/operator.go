package metric

import (
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/ophysqc/pkg/errors"
)

// Operator is the symbolic name of a built-in comparison.
type Operator string

// Built-in comparison operators.
const (
	Equal          Operator = "=="
	NotEqual       Operator = "!="
	Less           Operator = "<"
	LessOrEqual    Operator = "<="
	Greater        Operator = ">"
	GreaterOrEqual Operator = ">="
)

// Predicate compares a metric value against the threshold.
type Predicate func(value, threshold float64) bool

var builtins = map[Operator]Predicate{
	Equal:          func(v, t float64) bool { return v == t },
	NotEqual:       func(v, t float64) bool { return v != t },
	Less:           func(v, t float64) bool { return v < t },
	LessOrEqual:    func(v, t float64) bool { return v <= t },
	Greater:        func(v, t float64) bool { return v > t },
	GreaterOrEqual: func(v, t float64) bool { return v >= t },
}

// Operators returns the built-in operator symbols in a stable order.
func Operators() []Operator {
	return []Operator{Equal, NotEqual, Less, LessOrEqual, Greater, GreaterOrEqual}
}

// Comparison is a resolved comparison: a built-in operator or a custom
// predicate. The zero value is not usable; build one with [Lookup],
// [Custom] or [Resolve].
type Comparison struct {
	op Operator
	fn Predicate
}

// Lookup resolves a built-in operator by its symbol.
func Lookup(name string) (Comparison, error) {
	fn, ok := builtins[Operator(name)]
	if !ok {
		return Comparison{}, errors.New(errors.ErrCodeInvalidOperation,
			"unknown operation %q, must be one of %s", name, operatorList())
	}
	return Comparison{op: Operator(name), fn: fn}, nil
}

// Custom wraps a caller-supplied predicate.
func Custom(fn Predicate) Comparison {
	return Comparison{fn: fn}
}

// Resolve turns an operator selector into a Comparison. Accepted selectors
// are a symbol (string or [Operator]), a [Predicate], a plain
// func(float64, float64) bool, or an already resolved [Comparison].
func Resolve(op any) (Comparison, error) {
	switch v := op.(type) {
	case string:
		return Lookup(v)
	case Operator:
		return Lookup(string(v))
	case Comparison:
		if v.fn == nil {
			return Comparison{}, errors.New(errors.ErrCodeInvalidOperatorType, "comparison is not initialized")
		}
		return v, nil
	case Predicate:
		if v == nil {
			return Comparison{}, errors.New(errors.ErrCodeInvalidOperatorType, "predicate is nil")
		}
		return Custom(v), nil
	case func(float64, float64) bool:
		if v == nil {
			return Comparison{}, errors.New(errors.ErrCodeInvalidOperatorType, "predicate is nil")
		}
		return Custom(v), nil
	default:
		return Comparison{}, errors.New(errors.ErrCodeInvalidOperatorType,
			"operation must be either an operator symbol or a predicate, got %T", op)
	}
}

// Compare applies the comparison to one value.
func (c Comparison) Compare(value, threshold float64) bool {
	return c.fn(value, threshold)
}

// Operator returns the built-in symbol, or "" for a custom predicate.
func (c Comparison) Operator() Operator {
	return c.op
}

// String returns the symbol, or "custom" for a predicate.
func (c Comparison) String() string {
	if c.op == "" {
		return "custom"
	}
	return string(c.op)
}

func operatorList() string {
	ops := Operators()
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = fmt.Sprintf("'%s'", op)
	}
	return "[" + strings.Join(names, ", ") + "]"
}

// IsOperator reports whether name is a built-in operator symbol.
func IsOperator(name string) bool {
	return slices.Contains(Operators(), Operator(name))
}
