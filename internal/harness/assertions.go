package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/tripleopt/internal/exec"
	"github.com/roach88/tripleopt/internal/optimizer"
	"github.com/roach88/tripleopt/internal/physical"
	"github.com/roach88/tripleopt/internal/plan"
	"github.com/roach88/tripleopt/internal/rdf"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Plan     string // Explained selected plan for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Plan != "" {
		fmt.Fprintf(&buf, "\nSelected plan:\n")
		for _, line := range strings.Split(strings.TrimRight(e.Plan, "\n"), "\n") {
			fmt.Fprintf(&buf, "  %s\n", line)
		}
	}
	return buf.String()
}

// AssertionContext provides what equivalence assertions execute against.
type AssertionContext struct {
	Dataset   *rdf.Dataset
	Input     plan.Logical
	Selected  physical.Physical
	Optimizer *optimizer.Optimizer
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertCandidateCount:
			err = assertCount(result, assertion, result.Candidates)
		case AssertSkippedCount:
			err = assertCount(result, assertion, result.Skipped)
		case AssertRowCount:
			err = assertCount(result, assertion, len(result.Rows))
		case AssertSelectedCost:
			if result.Cost != assertion.Cost {
				err = failure(result, assertion.Type, fmt.Sprint(assertion.Cost), fmt.Sprint(result.Cost))
			}
		case AssertRowsContain:
			err = assertRowsContain(result, assertion)
		case AssertPlanContains:
			if !strings.Contains(result.Plan, assertion.Text) {
				err = failure(result, assertion.Type, fmt.Sprintf("plan containing %q", assertion.Text), "not found")
			}
		case AssertLeafCount:
			if actx == nil || actx.Selected == nil {
				err = fmt.Errorf("assertion[%d]: leaf_count requires the selected plan", i)
			} else {
				err = assertCount(result, assertion, leafCount(actx.Selected))
			}
		case AssertEquivalent:
			if actx == nil || actx.Dataset == nil {
				err = fmt.Errorf("assertion[%d]: equivalent requires a dataset", i)
			} else {
				err = assertEquivalent(result, actx)
			}
		case AssertAllCandidatesEquivalent:
			if actx == nil || actx.Optimizer == nil {
				err = fmt.Errorf("assertion[%d]: all_candidates_equivalent requires an optimizer", i)
			} else {
				err = assertAllCandidatesEquivalent(result, actx)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}

func failure(result *Result, typ, expected, actual string) *AssertionError {
	return &AssertionError{Type: typ, Expected: expected, Actual: actual, Plan: result.Plan}
}

func assertCount(result *Result, a Assertion, actual int) error {
	if actual == a.Count {
		return nil
	}
	return failure(result, a.Type, fmt.Sprint(a.Count), fmt.Sprint(actual))
}

// assertRowsContain checks every expected row appears in the result,
// counting duplicates.
func assertRowsContain(result *Result, a Assertion) error {
	remaining := slices.Clone(result.Rows)
	for _, row := range a.Rows {
		i := slices.Index(remaining, row)
		if i < 0 {
			return failure(result, a.Type, fmt.Sprintf("row %q", row), "not found in results")
		}
		remaining = slices.Delete(remaining, i, i+1)
	}
	return nil
}

// assertEquivalent executes the input plan as written and compares its
// rows to the selected plan's.
func assertEquivalent(result *Result, actx *AssertionContext) error {
	want, err := execute(actx.Input, actx.Dataset)
	if err != nil {
		return fmt.Errorf("equivalent: input plan: %w", err)
	}
	if !slices.Equal(want, result.Rows) {
		return failure(result, AssertEquivalent,
			fmt.Sprintf("%d rows %v", len(want), want),
			fmt.Sprintf("%d rows %v", len(result.Rows), result.Rows))
	}
	return nil
}

// assertAllCandidatesEquivalent executes every candidate with a physical
// form and compares its rows to the selected plan's.
func assertAllCandidatesEquivalent(result *Result, actx *AssertionContext) error {
	cands, err := actx.Optimizer.Enumerate(actx.Optimizer.Rewrite(actx.Input))
	if err != nil {
		return fmt.Errorf("all_candidates_equivalent: %w", err)
	}
	for i, cand := range cands {
		rows, err := execute(cand, actx.Dataset)
		if physical.IsUnsupportedOperator(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("all_candidates_equivalent: candidate %d: %w", i, err)
		}
		if !slices.Equal(rows, result.Rows) {
			return failure(result, AssertAllCandidatesEquivalent,
				fmt.Sprintf("candidate %d returns the selected plan's %d rows", i, len(result.Rows)),
				fmt.Sprintf("%d rows %v", len(rows), rows))
		}
	}
	return nil
}

func execute(l plan.Logical, ds *rdf.Dataset) ([]string, error) {
	p, err := physical.Convert(l)
	if err != nil {
		return nil, err
	}
	rows, err := exec.Execute(p, ds)
	if err != nil {
		return nil, err
	}
	return exec.Canonical(rows, ds.Dictionary), nil
}

// leafCount counts the table scans in p.
func leafCount(p physical.Physical) int {
	switch n := p.(type) {
	case *physical.TableScan:
		return 1
	case *physical.Filter:
		return leafCount(n.Input)
	case *physical.Projection:
		return leafCount(n.Input)
	case *physical.Subquery:
		return leafCount(n.Inner)
	case *physical.NestedLoopJoin:
		return leafCount(n.Left) + leafCount(n.Right)
	default:
		return 0
	}
}
