// Package calcerr defines the typed failures a query can end in.
//
// Every error carries a Kind for programmatic handling and a UserMessage
// that is safe to show to an end user. Error() keeps the full diagnostic
// context (equation, variable and units) for operators.
package calcerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure.
type Kind string

const (
	KindUnknownVariable    Kind = "unknown_variable"
	KindUnknownEquation    Kind = "unknown_equation"
	KindCyclicDependency   Kind = "cyclic_dependency"
	KindUnresolvableMetric Kind = "unresolvable_metric"
	KindUnitConversion     Kind = "unit_conversion"
	KindUnitConsistency    Kind = "unit_consistency"
	KindEvaluation         Kind = "evaluation"
	KindInvalidQuery       Kind = "invalid_query"
	KindInternal           Kind = "internal"
)

// Classified is implemented by every error in this package.
type Classified interface {
	error
	Kind() Kind
	UserMessage() string
}

const (
	msgUnrecognized = "unrecognized metric or entity"
	msgInsufficient = "insufficient data to answer the question"
	msgCalculation  = "calculation error"
	msgInternal     = "internal error"
)

// UnknownVariableError means no alias matched a variable name.
type UnknownVariableError struct {
	Name string
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("unknown variable %q", e.Name)
}
func (e *UnknownVariableError) Kind() Kind          { return KindUnknownVariable }
func (e *UnknownVariableError) UserMessage() string { return msgUnrecognized }

// UnknownEquationError is a registry lookup for an id that does not exist.
type UnknownEquationError struct {
	ID string
}

func (e *UnknownEquationError) Error() string {
	return fmt.Sprintf("unknown equation %q", e.ID)
}
func (e *UnknownEquationError) Kind() Kind          { return KindUnknownEquation }
func (e *UnknownEquationError) UserMessage() string { return msgInternal }

// CyclicDependencyError carries the expansion path that closed the loop,
// ending with the repeated variable.
type CyclicDependencyError struct {
	Path []string
}

func (e *CyclicDependencyError) Error() string {
	return "cyclic dependency: " + strings.Join(e.Path, " -> ")
}
func (e *CyclicDependencyError) Kind() Kind          { return KindCyclicDependency }
func (e *CyclicDependencyError) UserMessage() string { return msgInternal }

// Attempt records why one way of producing a metric was rejected.
type Attempt struct {
	// EquationID is empty when the attempt was a direct data lookup.
	EquationID string
	Reason     string
}

// UnresolvableMetricError means neither data nor any candidate equation chain
// could produce the metric.
type UnresolvableMetricError struct {
	Metric   string
	Attempts []Attempt
}

func (e *UnresolvableMetricError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "cannot resolve %q", e.Metric)
	for _, a := range e.Attempts {
		if a.EquationID == "" {
			fmt.Fprintf(&sb, "; data: %s", a.Reason)
			continue
		}
		fmt.Fprintf(&sb, "; %s: %s", a.EquationID, a.Reason)
	}
	return sb.String()
}
func (e *UnresolvableMetricError) Kind() Kind          { return KindUnresolvableMetric }
func (e *UnresolvableMetricError) UserMessage() string { return msgInsufficient }

// UnitConversionError is a data record whose unit cannot be converted to the
// variable's declared unit.
type UnitConversionError struct {
	Variable string
	Record   string
	From     string
	To       string
}

func (e *UnitConversionError) Error() string {
	return fmt.Sprintf("variable %q: record %s has unit %q, incompatible with %q",
		e.Variable, e.Record, e.From, e.To)
}
func (e *UnitConversionError) Kind() Kind          { return KindUnitConversion }
func (e *UnitConversionError) UserMessage() string { return msgCalculation }

// UnitConsistencyError is a formula whose operands do not combine into its
// declared output unit, or that mixes incompatible units internally.
type UnitConsistencyError struct {
	EquationID string
	Variable   string
	Declared   string
	Derived    string
	Detail     string
}

func (e *UnitConsistencyError) Error() string {
	msg := fmt.Sprintf("equation %q for %q", e.EquationID, e.Variable)
	if e.Derived != "" {
		msg += fmt.Sprintf(": declares %q but produces %q", e.Declared, e.Derived)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}
func (e *UnitConsistencyError) Kind() Kind          { return KindUnitConsistency }
func (e *UnitConsistencyError) UserMessage() string { return msgCalculation }

// EvaluationError is a numeric failure such as division by zero or an
// ambiguous single-valued leaf.
type EvaluationError struct {
	Variable   string
	EquationID string
	Err        error
}

func (e *EvaluationError) Error() string {
	if e.EquationID != "" {
		return fmt.Sprintf("evaluate %q via %q: %v", e.Variable, e.EquationID, e.Err)
	}
	return fmt.Sprintf("evaluate %q: %v", e.Variable, e.Err)
}
func (e *EvaluationError) Unwrap() error       { return e.Err }
func (e *EvaluationError) Kind() Kind          { return KindEvaluation }
func (e *EvaluationError) UserMessage() string { return msgCalculation }

// InvalidQueryError is a query rejected before resolution.
type InvalidQueryError struct {
	Reason string
}

func (e *InvalidQueryError) Error() string       { return "invalid query: " + e.Reason }
func (e *InvalidQueryError) Kind() Kind          { return KindInvalidQuery }
func (e *InvalidQueryError) UserMessage() string { return "invalid question: " + e.Reason }

// KindOf returns the kind of the first classified error in err's chain, or
// KindInternal.
func KindOf(err error) Kind {
	var c Classified
	if errors.As(err, &c) {
		return c.Kind()
	}
	return KindInternal
}

// UserMessage returns the user-facing text for err.
func UserMessage(err error) string {
	var c Classified
	if errors.As(err, &c) {
		return c.UserMessage()
	}
	return msgInternal
}

// IsExpected reports whether err is an operational outcome of resolution
// rather than a defect.
func IsExpected(err error) bool {
	switch KindOf(err) {
	case KindUnknownVariable, KindUnresolvableMetric, KindInvalidQuery:
		return true
	}
	return false
}
