package exec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/tripleopt/internal/plan"
	"github.com/roach88/tripleopt/internal/rdf"
)

// Evaluate reports whether row satisfies expr. A comparison that reads an
// unbound variable is false. A nil expression is true.
func Evaluate(expr plan.Expression, row Binding, dict *rdf.Dictionary) (bool, error) {
	switch e := expr.(type) {
	case nil:
		return true, nil

	case *plan.Comparison:
		lhs, ok := lookup(row, e.Variable, dict)
		if !ok {
			return false, nil
		}
		return compare(lhs, e.Operator, e.Value)

	case *plan.And:
		l, err := Evaluate(e.Left, row, dict)
		if err != nil || !l {
			return false, err
		}
		return Evaluate(e.Right, row, dict)

	case *plan.Or:
		l, err := Evaluate(e.Left, row, dict)
		if err != nil {
			return false, err
		}
		if l {
			return true, nil
		}
		return Evaluate(e.Right, row, dict)

	case *plan.Not:
		v, err := Evaluate(e.Expr, row, dict)
		if err != nil {
			return false, err
		}
		return !v, nil

	case *plan.Compare:
		lhs, ok, err := operand(e.Left, row, dict)
		if err != nil || !ok {
			return false, err
		}
		rhs, ok, err := operand(e.Right, row, dict)
		if err != nil || !ok {
			return false, err
		}
		return compare(lhs, e.Operator, rhs)

	default:
		return false, fmt.Errorf("unsupported expression %T", expr)
	}
}

func lookup(row Binding, variable string, dict *rdf.Dictionary) (string, bool) {
	id, ok := row[rdf.NormalizeVariable(variable)]
	if !ok {
		return "", false
	}
	return decode(dict, id), true
}

// operand evaluates o to its lexical value. ok is false when a variable is
// unbound or arithmetic has no numeric result.
func operand(o plan.Operand, row Binding, dict *rdf.Dictionary) (string, bool, error) {
	switch x := o.(type) {
	case *plan.VarRef:
		v, ok := lookup(row, x.Name, dict)
		return v, ok, nil

	case *plan.Literal:
		return x.Value, true, nil

	case *plan.Arithmetic:
		l, ok, err := operand(x.Left, row, dict)
		if err != nil || !ok {
			return "", false, err
		}
		r, ok, err := operand(x.Right, row, dict)
		if err != nil || !ok {
			return "", false, err
		}
		return Arithmetic(x.Op, l, r)

	default:
		return "", false, fmt.Errorf("unsupported operand %T", o)
	}
}

// Arithmetic applies op to two lexical values. ok is false when either side
// is not numeric or the result is undefined.
func Arithmetic(op plan.ArithOp, l, r string) (string, bool, error) {
	lf, lerr := strconv.ParseFloat(l, 64)
	rf, rerr := strconv.ParseFloat(r, 64)
	if lerr != nil || rerr != nil {
		return "", false, nil
	}
	var v float64
	switch op {
	case plan.OpAdd:
		v = lf + rf
	case plan.OpSub:
		v = lf - rf
	case plan.OpMul:
		v = lf * rf
	case plan.OpDiv:
		if rf == 0 {
			return "", false, nil
		}
		v = lf / rf
	default:
		return "", false, fmt.Errorf("unsupported arithmetic operator %q", op)
	}
	return strconv.FormatFloat(v, 'f', -1, 64), true, nil
}

// compare applies op numerically when both sides parse as numbers and
// lexically otherwise.
func compare(lhs string, op plan.CompareOp, rhs string) (bool, error) {
	c := CompareValues(lhs, rhs)
	switch op {
	case plan.OpEq:
		return c == 0, nil
	case plan.OpNe:
		return c != 0, nil
	case plan.OpLt:
		return c < 0, nil
	case plan.OpLe:
		return c <= 0, nil
	case plan.OpGt:
		return c > 0, nil
	case plan.OpGe:
		return c >= 0, nil
	default:
		return false, fmt.Errorf("unsupported comparison operator %q", op)
	}
}

// CompareValues orders two lexical values, numerically when both parse as
// float64.
func CompareValues(a, b string) int {
	af, aerr := strconv.ParseFloat(a, 64)
	bf, berr := strconv.ParseFloat(b, 64)
	if aerr == nil && berr == nil {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
