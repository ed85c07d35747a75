package enumerate

import (
	"log/slog"

	"github.com/roach88/tripleopt/internal/plan"
)

// Leaves is the result of leaf collection over a join core.
type Leaves struct {
	// Operators are the atomic join inputs: scans, and selections whose
	// subtree is scan-only.
	Operators []plan.Logical

	// Hoisted are selections found above a join inside the core. They are
	// reapplied directly above every enumerated core.
	Hoisted []TopLevelOp

	// Skipped names the node kinds that contributed nothing, in walk order.
	Skipped []string
}

// FindAllScans collects the join leaves of core.
//
//   - Join: leaves of the left child, then the right child
//   - Scan: itself
//   - Selection over a scan-only subtree: itself, as one leaf
//   - Selection over anything else: hoisted, then its input is walked
//   - Projection: dropped, then its input is walked
//   - any other kind: an *UndecomposableError when strict, otherwise a
//     warning and no leaves
//
// Returned operators are independent clones of the input's subtrees.
func FindAllScans(core plan.Logical, strict bool, logger *slog.Logger) (*Leaves, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &collector{strict: strict, logger: logger, leaves: &Leaves{}}
	if err := c.walk(core); err != nil {
		return nil, err
	}
	return c.leaves, nil
}

type collector struct {
	strict bool
	logger *slog.Logger
	leaves *Leaves
}

func (c *collector) walk(l plan.Logical) error {
	switch n := l.(type) {
	case *plan.Join:
		if err := c.walk(n.Left); err != nil {
			return err
		}
		return c.walk(n.Right)

	case *plan.Scan:
		c.leaves.Operators = append(c.leaves.Operators, plan.Clone(n))
		return nil

	case *plan.Selection:
		if plan.IsScanOnly(n) {
			c.leaves.Operators = append(c.leaves.Operators, plan.Clone(n))
			return nil
		}
		c.logger.Debug("hoisting selection above join core", "condition", n.Condition.String())
		c.leaves.Hoisted = append(c.leaves.Hoisted, TopLevelOp{
			Kind:      OpSelection,
			Condition: plan.CloneCondition(n.Condition),
		})
		return c.walk(n.Input)

	case *plan.Projection:
		c.logger.Warn("dropping projection inside join core", "variables", n.Variables)
		return c.walk(n.Input)

	default:
		kind := plan.Kind(l)
		if c.strict {
			return &UndecomposableError{Kind: kind}
		}
		c.logger.Warn("cannot decompose operator", "kind", kind)
		c.leaves.Skipped = append(c.leaves.Skipped, kind)
		return nil
	}
}
