package plan

import (
	"slices"

	"github.com/roach88/tripleopt/internal/rdf"
)

// Clone returns a deep copy of l that shares no nodes, slices or
// expressions with the original.
func Clone(l Logical) Logical {
	switch n := l.(type) {
	case *Scan:
		return &Scan{Pattern: n.Pattern}
	case *Selection:
		return &Selection{Input: Clone(n.Input), Condition: CloneCondition(n.Condition)}
	case *Projection:
		return &Projection{Input: Clone(n.Input), Variables: slices.Clone(n.Variables)}
	case *Join:
		return &Join{Left: Clone(n.Left), Right: Clone(n.Right)}
	case *Subquery:
		return &Subquery{Inner: Clone(n.Inner), ProjectedVars: slices.Clone(n.ProjectedVars)}
	case *Bind:
		return &Bind{
			Input:     Clone(n.Input),
			Function:  n.Function,
			Arguments: slices.Clone(n.Arguments),
			Output:    n.Output,
		}
	case *Values:
		rows := make([][]rdf.ID, len(n.Rows))
		for i, row := range n.Rows {
			rows[i] = slices.Clone(row)
		}
		return &Values{Variables: slices.Clone(n.Variables), Rows: rows}
	case *Buffer:
		return &Buffer{Name: n.Name, Capacity: n.Capacity}
	case *MLPredict:
		return &MLPredict{
			Input:          Clone(n.Input),
			Model:          n.Model,
			InputVariables: slices.Clone(n.InputVariables),
			Output:         n.Output,
		}
	default:
		return nil
	}
}

// CloneCondition returns a deep copy of c.
func CloneCondition(c Condition) Condition {
	return Condition{Name: c.Name, Expression: CloneExpression(c.Expression)}
}

// CloneExpression returns a deep copy of e.
func CloneExpression(e Expression) Expression {
	switch x := e.(type) {
	case *Comparison:
		c := *x
		return &c
	case *And:
		return &And{Left: CloneExpression(x.Left), Right: CloneExpression(x.Right)}
	case *Or:
		return &Or{Left: CloneExpression(x.Left), Right: CloneExpression(x.Right)}
	case *Not:
		return &Not{Expr: CloneExpression(x.Expr)}
	case *Compare:
		return &Compare{Left: cloneOperand(x.Left), Operator: x.Operator, Right: cloneOperand(x.Right)}
	default:
		return nil
	}
}

func cloneOperand(o Operand) Operand {
	switch x := o.(type) {
	case *VarRef:
		return &VarRef{Name: x.Name}
	case *Literal:
		return &Literal{Value: x.Value}
	case *Arithmetic:
		return &Arithmetic{Op: x.Op, Left: cloneOperand(x.Left), Right: cloneOperand(x.Right)}
	default:
		return nil
	}
}

// Equal reports whether a and b are structurally identical, including
// join child order.
func Equal(a, b Logical) bool {
	switch x := a.(type) {
	case *Scan:
		y, ok := b.(*Scan)
		return ok && PatternEqual(x.Pattern, y.Pattern)
	case *Selection:
		y, ok := b.(*Selection)
		return ok && ConditionEqual(x.Condition, y.Condition) && Equal(x.Input, y.Input)
	case *Projection:
		y, ok := b.(*Projection)
		return ok && slices.Equal(x.Variables, y.Variables) && Equal(x.Input, y.Input)
	case *Join:
		y, ok := b.(*Join)
		return ok && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case *Subquery:
		y, ok := b.(*Subquery)
		return ok && slices.Equal(x.ProjectedVars, y.ProjectedVars) && Equal(x.Inner, y.Inner)
	case *Bind:
		y, ok := b.(*Bind)
		return ok && x.Function == y.Function && x.Output == y.Output &&
			slices.Equal(x.Arguments, y.Arguments) && Equal(x.Input, y.Input)
	case *Values:
		y, ok := b.(*Values)
		return ok && slices.Equal(x.Variables, y.Variables) &&
			slices.EqualFunc(x.Rows, y.Rows, slices.Equal[[]rdf.ID])
	case *Buffer:
		y, ok := b.(*Buffer)
		return ok && *x == *y
	case *MLPredict:
		y, ok := b.(*MLPredict)
		return ok && x.Model == y.Model && x.Output == y.Output &&
			slices.Equal(x.InputVariables, y.InputVariables) && Equal(x.Input, y.Input)
	case nil:
		return b == nil
	default:
		return false
	}
}

// PatternEqual compares two patterns position by position, treating
// variables by their normalised names.
func PatternEqual(a, b rdf.TriplePattern) bool {
	at, bt := a.Terms(), b.Terms()
	for i := range at {
		if !termEqual(at[i], bt[i]) {
			return false
		}
	}
	return true
}

func termEqual(a, b rdf.Term) bool {
	switch x := a.(type) {
	case rdf.Variable:
		y, ok := b.(rdf.Variable)
		return ok && rdf.NormalizeVariable(x.Name) == rdf.NormalizeVariable(y.Name)
	case rdf.Constant:
		y, ok := b.(rdf.Constant)
		return ok && x.ID == y.ID
	default:
		return a == nil && b == nil
	}
}

// ConditionEqual compares two conditions by name and expression.
func ConditionEqual(a, b Condition) bool {
	return a.Name == b.Name && ExpressionEqual(a.Expression, b.Expression)
}

// ExpressionEqual compares two filter expressions structurally.
func ExpressionEqual(a, b Expression) bool {
	switch x := a.(type) {
	case *Comparison:
		y, ok := b.(*Comparison)
		return ok && *x == *y
	case *And:
		y, ok := b.(*And)
		return ok && ExpressionEqual(x.Left, y.Left) && ExpressionEqual(x.Right, y.Right)
	case *Or:
		y, ok := b.(*Or)
		return ok && ExpressionEqual(x.Left, y.Left) && ExpressionEqual(x.Right, y.Right)
	case *Not:
		y, ok := b.(*Not)
		return ok && ExpressionEqual(x.Expr, y.Expr)
	case *Compare:
		y, ok := b.(*Compare)
		return ok && x.Operator == y.Operator &&
			operandEqual(x.Left, y.Left) && operandEqual(x.Right, y.Right)
	case nil:
		return b == nil
	default:
		return false
	}
}

func operandEqual(a, b Operand) bool {
	switch x := a.(type) {
	case *VarRef:
		y, ok := b.(*VarRef)
		return ok && *x == *y
	case *Literal:
		y, ok := b.(*Literal)
		return ok && *x == *y
	case *Arithmetic:
		y, ok := b.(*Arithmetic)
		return ok && x.Op == y.Op && operandEqual(x.Left, y.Left) && operandEqual(x.Right, y.Right)
	case nil:
		return b == nil
	default:
		return false
	}
}
