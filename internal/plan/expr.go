package plan

import (
	"fmt"
	"strings"

	"github.com/golang-collections/collections/stack"

	"github.com/roach88/tripleopt/internal/rdf"
)

// CompareOp is a comparison operator of a filter expression.
type CompareOp string

const (
	OpEq CompareOp = "="
	OpNe CompareOp = "!="
	OpLt CompareOp = "<"
	OpLe CompareOp = "<="
	OpGt CompareOp = ">"
	OpGe CompareOp = ">="
)

// ParseCompareOp validates s as a comparison operator. "==" is accepted
// as an alias of "=".
func ParseCompareOp(s string) (CompareOp, error) {
	switch op := CompareOp(strings.TrimSpace(s)); op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return op, nil
	case "==":
		return OpEq, nil
	default:
		return "", fmt.Errorf("unknown comparison operator %q", s)
	}
}

// ArithOp is a binary arithmetic operator.
type ArithOp string

const (
	OpAdd ArithOp = "+"
	OpSub ArithOp = "-"
	OpMul ArithOp = "*"
	OpDiv ArithOp = "/"
)

// ParseArithOp validates s as an arithmetic operator.
func ParseArithOp(s string) (ArithOp, error) {
	switch op := ArithOp(strings.TrimSpace(s)); op {
	case OpAdd, OpSub, OpMul, OpDiv:
		return op, nil
	default:
		return "", fmt.Errorf("unknown arithmetic operator %q", s)
	}
}

// Expression is a boolean filter expression.
//
// This is a sealed interface - only types in this package implement it.
type Expression interface {
	expressionNode() // Marker method - seals interface to this package
}

// Comparison compares the value bound to Variable with the literal Value.
// Variable may carry a leading '?' or '$'.
type Comparison struct {
	Variable string
	Operator CompareOp
	Value    string
}

func (*Comparison) expressionNode() {}

// And is true when both sides are true.
type And struct {
	Left  Expression
	Right Expression
}

func (*And) expressionNode() {}

// Or is true when either side is true.
type Or struct {
	Left  Expression
	Right Expression
}

func (*Or) expressionNode() {}

// Not negates Expr.
type Not struct {
	Expr Expression
}

func (*Not) expressionNode() {}

// Compare compares two operands, either of which may be arithmetic.
type Compare struct {
	Left     Operand
	Operator CompareOp
	Right    Operand
}

func (*Compare) expressionNode() {}

// Operand is a value-producing sub-expression of Compare.
//
// This is a sealed interface - only types in this package implement it.
type Operand interface {
	operandNode() // Marker method - seals interface to this package
}

// VarRef reads a bound variable.
type VarRef struct {
	Name string
}

func (*VarRef) operandNode() {}

// Literal is a constant lexical value.
type Literal struct {
	Value string
}

func (*Literal) operandNode() {}

// Arithmetic combines two numeric operands.
type Arithmetic struct {
	Op    ArithOp
	Left  Operand
	Right Operand
}

func (*Arithmetic) operandNode() {}

// Condition is a named predicate attached to a Selection.
type Condition struct {
	Name       string
	Expression Expression
}

// NewCondition builds a single-comparison condition, named after its
// rendered form.
func NewCondition(variable string, op CompareOp, value string) Condition {
	expr := &Comparison{Variable: variable, Operator: op, Value: value}
	return Condition{Name: FormatExpression(expr), Expression: expr}
}

// Variables returns the normalised variable names the condition reads.
func (c Condition) Variables() []string {
	return ExpressionVariables(c.Expression)
}

// String returns the condition's name, or its rendered expression when
// unnamed.
func (c Condition) String() string {
	if c.Name != "" {
		return c.Name
	}
	return FormatExpression(c.Expression)
}

// ExpressionVariables returns the normalised variable names referenced by
// expr in left-to-right order of first occurrence.
func ExpressionVariables(expr Expression) []string {
	var vars []string
	seen := make(map[string]bool)
	add := func(name string) {
		name = rdf.NormalizeVariable(name)
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		vars = append(vars, name)
	}

	s := stack.New()
	if expr != nil {
		s.Push(expr)
	}
	for s.Len() > 0 {
		// Right children are pushed first so the left side is visited first.
		switch n := s.Pop().(type) {
		case *Comparison:
			add(n.Variable)
		case *And:
			pushNonNil(s, n.Right, n.Left)
		case *Or:
			pushNonNil(s, n.Right, n.Left)
		case *Not:
			pushNonNil(s, n.Expr)
		case *Compare:
			pushNonNil(s, n.Right, n.Left)
		case *VarRef:
			add(n.Name)
		case *Literal:
		case *Arithmetic:
			pushNonNil(s, n.Right, n.Left)
		}
	}
	return vars
}

func pushNonNil(s *stack.Stack, nodes ...any) {
	for _, n := range nodes {
		switch v := n.(type) {
		case Expression:
			if v != nil {
				s.Push(v)
			}
		case Operand:
			if v != nil {
				s.Push(v)
			}
		}
	}
}

// FormatExpression renders expr in a compact infix form.
func FormatExpression(expr Expression) string {
	switch e := expr.(type) {
	case *Comparison:
		return fmt.Sprintf("?%s %s %s", rdf.NormalizeVariable(e.Variable), e.Operator, e.Value)
	case *And:
		return fmt.Sprintf("(%s && %s)", FormatExpression(e.Left), FormatExpression(e.Right))
	case *Or:
		return fmt.Sprintf("(%s || %s)", FormatExpression(e.Left), FormatExpression(e.Right))
	case *Not:
		return fmt.Sprintf("!(%s)", FormatExpression(e.Expr))
	case *Compare:
		return fmt.Sprintf("%s %s %s", FormatOperand(e.Left), e.Operator, FormatOperand(e.Right))
	case nil:
		return "true"
	default:
		return fmt.Sprintf("%T", expr)
	}
}

// FormatOperand renders an operand.
func FormatOperand(op Operand) string {
	switch o := op.(type) {
	case *VarRef:
		return "?" + rdf.NormalizeVariable(o.Name)
	case *Literal:
		return o.Value
	case *Arithmetic:
		return fmt.Sprintf("(%s %s %s)", FormatOperand(o.Left), o.Op, FormatOperand(o.Right))
	case nil:
		return "<nil>"
	default:
		return fmt.Sprintf("%T", op)
	}
}
