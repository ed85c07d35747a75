// Package pushdown relocates selections toward the scans that bind their
// variables.
//
// The rewrite preserves results: a selection only moves below a join when
// every variable it reads is bound by exactly one side of that join.
// Rewriting never mutates its input; every node on the returned tree is
// freshly allocated.
package pushdown

import (
	"log/slog"

	"github.com/roach88/tripleopt/internal/plan"
)

// Rewrite pushes every selection of l as deep as its variable
// dependencies allow. A single pass reaches the fixpoint because each
// relocated selection is rewritten again at its new position.
func Rewrite(l plan.Logical) plan.Logical {
	switch n := l.(type) {
	case *plan.Selection:
		return rewriteSelection(n)

	case *plan.Join:
		return plan.NewJoin(Rewrite(n.Left), Rewrite(n.Right))

	case *plan.Projection:
		return &plan.Projection{Input: Rewrite(n.Input), Variables: cloneStrings(n.Variables)}

	case *plan.Subquery:
		return &plan.Subquery{Inner: Rewrite(n.Inner), ProjectedVars: cloneStrings(n.ProjectedVars)}

	case *plan.Bind:
		return &plan.Bind{
			Input:     Rewrite(n.Input),
			Function:  n.Function,
			Arguments: cloneStrings(n.Arguments),
			Output:    n.Output,
		}

	case *plan.MLPredict:
		return &plan.MLPredict{
			Input:          Rewrite(n.Input),
			Model:          n.Model,
			InputVariables: cloneStrings(n.InputVariables),
			Output:         n.Output,
		}

	default:
		// Scan, Values and Buffer are leaves for this pass.
		return plan.Clone(l)
	}
}

func rewriteSelection(sel *plan.Selection) plan.Logical {
	input := Rewrite(sel.Input)
	cond := plan.CloneCondition(sel.Condition)

	join, ok := input.(*plan.Join)
	if !ok {
		return plan.NewSelection(input, cond)
	}

	filterVars := plan.NewVarSet(cond.Variables()...)
	if filterVars.Cardinality() == 0 {
		return plan.NewSelection(join, cond)
	}

	inLeft := filterVars.IsSubset(plan.Variables(join.Left))
	inRight := filterVars.IsSubset(plan.Variables(join.Right))

	switch {
	case inLeft && !inRight:
		slog.Debug("pushing selection below join", "condition", cond.String(), "side", "left")
		return plan.NewJoin(Rewrite(plan.NewSelection(join.Left, cond)), join.Right)
	case inRight && !inLeft:
		slog.Debug("pushing selection below join", "condition", cond.String(), "side", "right")
		return plan.NewJoin(join.Left, Rewrite(plan.NewSelection(join.Right, cond)))
	default:
		return plan.NewSelection(join, cond)
	}
}

func cloneStrings(ss []string) []string {
	if ss == nil {
		return nil
	}
	out := make([]string, len(ss))
	copy(out, ss)
	return out
}
