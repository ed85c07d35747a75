package physical

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/tripleopt/internal/plan"
	"github.com/roach88/tripleopt/internal/rdf"
)

// Convert maps a logical plan onto its physical mirror:
//
//	Scan -> TableScan, Selection -> Filter, Projection -> Projection,
//	Join -> NestedLoopJoin, Subquery -> Subquery
//
// Any other variant anywhere in the tree returns an
// *UnsupportedOperatorError; no node is ever dropped. The input is not
// modified and the result shares no memory with it.
func Convert(l plan.Logical) (Physical, error) {
	switch n := l.(type) {
	case *plan.Scan:
		return &TableScan{Pattern: n.Pattern}, nil

	case *plan.Selection:
		in, err := Convert(n.Input)
		if err != nil {
			return nil, err
		}
		return &Filter{Input: in, Condition: plan.CloneCondition(n.Condition)}, nil

	case *plan.Projection:
		in, err := Convert(n.Input)
		if err != nil {
			return nil, err
		}
		return &Projection{Input: in, Variables: slices.Clone(n.Variables)}, nil

	case *plan.Join:
		left, err := Convert(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := Convert(n.Right)
		if err != nil {
			return nil, err
		}
		return &NestedLoopJoin{Left: left, Right: right}, nil

	case *plan.Subquery:
		inner, err := Convert(n.Inner)
		if err != nil {
			return nil, err
		}
		return &Subquery{Inner: inner, ProjectedVars: slices.Clone(n.ProjectedVars)}, nil

	case nil:
		return nil, fmt.Errorf("convert: nil plan node")

	default:
		return nil, &UnsupportedOperatorError{Kind: plan.Kind(l)}
	}
}

// Clone returns a deep copy of p.
func Clone(p Physical) Physical {
	switch n := p.(type) {
	case *TableScan:
		return &TableScan{Pattern: n.Pattern}
	case *Filter:
		return &Filter{Input: Clone(n.Input), Condition: plan.CloneCondition(n.Condition)}
	case *Projection:
		return &Projection{Input: Clone(n.Input), Variables: slices.Clone(n.Variables)}
	case *NestedLoopJoin:
		return &NestedLoopJoin{Left: Clone(n.Left), Right: Clone(n.Right)}
	case *Subquery:
		return &Subquery{Inner: Clone(n.Inner), ProjectedVars: slices.Clone(n.ProjectedVars)}
	default:
		return nil
	}
}

// Equal reports whether a and b are structurally identical.
func Equal(a, b Physical) bool {
	switch x := a.(type) {
	case *TableScan:
		y, ok := b.(*TableScan)
		return ok && plan.PatternEqual(x.Pattern, y.Pattern)
	case *Filter:
		y, ok := b.(*Filter)
		return ok && plan.ConditionEqual(x.Condition, y.Condition) && Equal(x.Input, y.Input)
	case *Projection:
		y, ok := b.(*Projection)
		return ok && slices.Equal(x.Variables, y.Variables) && Equal(x.Input, y.Input)
	case *NestedLoopJoin:
		y, ok := b.(*NestedLoopJoin)
		return ok && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *Subquery:
		y, ok := b.(*Subquery)
		return ok && slices.Equal(x.ProjectedVars, y.ProjectedVars) && Equal(x.Inner, y.Inner)
	case nil:
		return b == nil
	default:
		return false
	}
}

// Variables returns the variables bound by rows p produces.
func Variables(p Physical) plan.VarSet {
	switch n := p.(type) {
	case *TableScan:
		return plan.NewVarSet(n.Pattern.Variables()...)
	case *Filter:
		return Variables(n.Input)
	case *Projection:
		return plan.NewVarSet(n.Variables...)
	case *NestedLoopJoin:
		return Variables(n.Left).Union(Variables(n.Right))
	case *Subquery:
		return plan.NewVarSet(n.ProjectedVars...)
	default:
		return plan.NewVarSet()
	}
}

// Fingerprint returns a content hash of p.
func Fingerprint(p Physical) (string, error) {
	v, err := canonical(p)
	if err != nil {
		return "", err
	}
	data, err := plan.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to marshal: %w", err)
	}
	return plan.Digest(plan.DomainPhysical, data), nil
}

func canonical(p Physical) (any, error) {
	switch n := p.(type) {
	case *TableScan:
		return map[string]any{"op": "TableScan", "pattern": plan.CanonicalPattern(n.Pattern)}, nil
	case *Filter:
		in, err := canonical(n.Input)
		if err != nil {
			return nil, err
		}
		return map[string]any{"op": "Filter", "condition": plan.CanonicalCondition(n.Condition), "input": in}, nil
	case *Projection:
		in, err := canonical(n.Input)
		if err != nil {
			return nil, err
		}
		return map[string]any{"op": "Projection", "vars": plan.CanonicalStrings(n.Variables), "input": in}, nil
	case *NestedLoopJoin:
		left, err := canonical(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := canonical(n.Right)
		if err != nil {
			return nil, err
		}
		return map[string]any{"op": "NestedLoopJoin", "left": left, "right": right}, nil
	case *Subquery:
		in, err := canonical(n.Inner)
		if err != nil {
			return nil, err
		}
		return map[string]any{"op": "Subquery", "vars": plan.CanonicalStrings(n.ProjectedVars), "inner": in}, nil
	case nil:
		return nil, fmt.Errorf("nil plan node")
	default:
		return nil, fmt.Errorf("unsupported plan node: %T", p)
	}
}

// Explain renders p as an indented tree in the same layout as
// plan.Explain.
func Explain(p Physical, dict *rdf.Dictionary) string {
	var b strings.Builder
	explain(&b, p, dict, 0)
	return b.String()
}

func explain(b *strings.Builder, p Physical, dict *rdf.Dictionary, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	switch n := p.(type) {
	case *TableScan:
		fmt.Fprintf(b, "TableScan %s\n", plan.FormatPattern(n.Pattern, dict))
	case *Filter:
		fmt.Fprintf(b, "Filter %s\n", plan.FormatExpression(n.Condition.Expression))
		explain(b, n.Input, dict, depth+1)
	case *Projection:
		fmt.Fprintf(b, "Projection %s\n", plan.FormatVars(n.Variables))
		explain(b, n.Input, dict, depth+1)
	case *NestedLoopJoin:
		b.WriteString("NestedLoopJoin\n")
		explain(b, n.Left, dict, depth+1)
		explain(b, n.Right, dict, depth+1)
	case *Subquery:
		fmt.Fprintf(b, "Subquery %s\n", plan.FormatVars(n.ProjectedVars))
		explain(b, n.Inner, dict, depth+1)
	case nil:
		b.WriteString("<nil>\n")
	default:
		fmt.Fprintf(b, "%T\n", p)
	}
}
