// Package physical defines executable operator trees and the converter
// from logical plans.
//
// Conversion is a structural one-to-one mapping. It does no search and no
// costing, and it is shared by every candidate the selector evaluates.
package physical

import (
	"errors"
	"fmt"

	"github.com/roach88/tripleopt/internal/plan"
	"github.com/roach88/tripleopt/internal/rdf"
)

// Physical represents a node of an executable plan.
//
// This is a sealed interface - only types in this package implement it.
type Physical interface {
	physicalNode() // Marker method - seals interface to this package
}

// TableScan iterates the triples matching Pattern.
type TableScan struct {
	Pattern rdf.TriplePattern
}

func (*TableScan) physicalNode() {}

// Filter drops the rows of Input that fail Condition.
type Filter struct {
	Input     Physical
	Condition plan.Condition
}

func (*Filter) physicalNode() {}

// Projection keeps only Variables of each Input row.
type Projection struct {
	Input     Physical
	Variables []string
}

func (*Projection) physicalNode() {}

// NestedLoopJoin evaluates Right once per Left row and keeps compatible
// pairs.
type NestedLoopJoin struct {
	Left  Physical
	Right Physical
}

func (*NestedLoopJoin) physicalNode() {}

// Subquery evaluates Inner and exposes only ProjectedVars.
type Subquery struct {
	Inner         Physical
	ProjectedVars []string
}

func (*Subquery) physicalNode() {}

// ErrUnsupportedOperator matches any *UnsupportedOperatorError via errors.Is.
var ErrUnsupportedOperator = errors.New("unsupported operator")

// UnsupportedOperatorError reports a logical variant with no physical
// counterpart.
type UnsupportedOperatorError struct {
	Kind string
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("unsupported operator: %s has no physical counterpart", e.Kind)
}

// Is makes errors.Is(err, ErrUnsupportedOperator) true.
func (e *UnsupportedOperatorError) Is(target error) bool {
	return target == ErrUnsupportedOperator
}

// IsUnsupportedOperator reports whether err carries an
// UnsupportedOperatorError.
func IsUnsupportedOperator(err error) bool {
	var target *UnsupportedOperatorError
	return errors.As(err, &target)
}
