package enumerate

import (
	"slices"

	"github.com/roach88/tripleopt/internal/plan"
)

// OpKind distinguishes the wrappers recorded by StripTopLevelOps.
type OpKind int

const (
	OpSelection OpKind = iota
	OpProjection
)

func (k OpKind) String() string {
	switch k {
	case OpSelection:
		return "selection"
	case OpProjection:
		return "projection"
	default:
		return "unknown"
	}
}

// TopLevelOp is a Selection or Projection removed from above a join core.
type TopLevelOp struct {
	Kind      OpKind
	Condition plan.Condition // OpSelection
	Variables []string       // OpProjection
}

// StripTopLevelOps removes the chain of Selection and Projection nodes
// above the join core of l. ops are recorded outermost first.
func StripTopLevelOps(l plan.Logical) (core plan.Logical, ops []TopLevelOp) {
	core = l
	for {
		switch n := core.(type) {
		case *plan.Selection:
			ops = append(ops, TopLevelOp{Kind: OpSelection, Condition: plan.CloneCondition(n.Condition)})
			core = n.Input
		case *plan.Projection:
			ops = append(ops, TopLevelOp{Kind: OpProjection, Variables: slices.Clone(n.Variables)})
			core = n.Input
		default:
			return core, ops
		}
	}
}

// ApplyTopLevelOps wraps core in ops, innermost (last recorded) first, so
// ApplyTopLevelOps(StripTopLevelOps(l)) reproduces l's outer shape. Each
// call clones the recorded conditions and variable lists.
func ApplyTopLevelOps(core plan.Logical, ops []TopLevelOp) plan.Logical {
	out := core
	for i := len(ops) - 1; i >= 0; i-- {
		op := ops[i]
		switch op.Kind {
		case OpSelection:
			out = plan.NewSelection(out, plan.CloneCondition(op.Condition))
		case OpProjection:
			out = plan.NewProjection(out, slices.Clone(op.Variables)...)
		}
	}
	return out
}
