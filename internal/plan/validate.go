package plan

import "fmt"

// ValidationResult reports how faithfully a plan can be join-reordered.
type ValidationResult struct {
	// Enumerable is false when the join core holds a node that cannot be
	// decomposed into leaves. Enumerating such a plan in lenient mode
	// silently drops that node.
	Enumerable bool
	Warnings   []string
}

// Validate inspects the join core of l (the plan below its top-level
// Selection/Projection chain) and reports barrier nodes, projections that
// would be dropped and selections that would be hoisted during
// enumeration.
func Validate(l Logical) ValidationResult {
	v := &validator{enumerable: true}

	core := l
	for {
		switch n := core.(type) {
		case *Selection:
			core = n.Input
			continue
		case *Projection:
			core = n.Input
			continue
		}
		break
	}

	switch core.(type) {
	case *Join:
		v.validateCore(core, "core")
	case nil:
		v.enumerable = false
		v.addWarning("plan has no join core")
	}

	return ValidationResult{Enumerable: v.enumerable, Warnings: v.warnings}
}

type validator struct {
	enumerable bool
	warnings   []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validateCore(l Logical, path string) {
	switch n := l.(type) {
	case *Join:
		v.validateCore(n.Left, path+".left")
		v.validateCore(n.Right, path+".right")
	case *Scan:
	case *Selection:
		if IsScanOnly(n.Input) {
			return
		}
		v.addWarning("%s: selection %s over a join is hoisted above the reordered core", path, FormatExpression(n.Condition.Expression))
		v.validateCore(n.Input, path+".input")
	case *Projection:
		v.addWarning("%s: projection %s inside the join core is dropped", path, FormatVars(n.Variables))
		v.validateCore(n.Input, path+".input")
	default:
		v.enumerable = false
		v.addWarning("%s: %s cannot be decomposed into join leaves", path, Kind(l))
	}
}
