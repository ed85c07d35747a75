// Package plan defines the logical query algebra consumed by the optimizer.
//
// Logical is a sealed interface. Every traversal in this module (pushdown,
// leaf collection, conversion, costing, explain) is an exhaustive type
// switch over the variants declared here, so adding a variant surfaces
// every place that has to learn about it.
//
// Trees are owned exclusively by their parent. No function in this module
// mutates a tree it was given; rewrites build new nodes and Clone produces
// fully independent copies.
package plan

import "github.com/roach88/tripleopt/internal/rdf"

// Logical represents a node of a logical query plan.
//
// This is a sealed interface - only types in this package implement it.
//
// Logical variants:
//   - Scan: reads all bindings matching a triple pattern (leaf)
//   - Selection: filters rows of its input by a Condition
//   - Projection: restricts output columns
//   - Join: natural join of two inputs on shared variables
//   - Subquery: opaque nested plan with an explicit output list
//   - Bind, Values, Buffer, MLPredict: opaque barrier nodes
type Logical interface {
	logicalNode() // Marker method - seals interface to this package
}

// Scan reads all bindings matching Pattern.
type Scan struct {
	Pattern rdf.TriplePattern
}

func (*Scan) logicalNode() {}

// Selection keeps the rows of Input that satisfy Condition.
type Selection struct {
	Input     Logical
	Condition Condition
}

func (*Selection) logicalNode() {}

// Projection restricts the rows of Input to Variables, in order.
type Projection struct {
	Input     Logical
	Variables []string
}

func (*Projection) logicalNode() {}

// Join combines Left and Right on their shared variables. Join is
// semantically commutative and associative; the tree shape only fixes
// evaluation order.
type Join struct {
	Left  Logical
	Right Logical
}

func (*Join) logicalNode() {}

// Subquery is a nested plan that exposes only ProjectedVars. The
// enumerator never looks inside it.
type Subquery struct {
	Inner         Logical
	ProjectedVars []string
}

func (*Subquery) logicalNode() {}

// Bind evaluates Function over Arguments for each row of Input and binds
// the result to Output.
type Bind struct {
	Input     Logical
	Function  string
	Arguments []string
	Output    string
}

func (*Bind) logicalNode() {}

// Values is an inline table. A zero ID in a row leaves that variable
// unbound.
type Values struct {
	Variables []string
	Rows      [][]rdf.ID
}

func (*Values) logicalNode() {}

// Buffer is a named stream window of at most Capacity rows. It binds no
// variables visible to the optimizer.
type Buffer struct {
	Name     string
	Capacity int
}

func (*Buffer) logicalNode() {}

// MLPredict applies Model to InputVariables of each Input row and binds
// the prediction to Output.
type MLPredict struct {
	Input          Logical
	Model          string
	InputVariables []string
	Output         string
}

func (*MLPredict) logicalNode() {}

// NewScan creates a Scan over pattern.
func NewScan(pattern rdf.TriplePattern) *Scan {
	return &Scan{Pattern: pattern}
}

// NewJoin creates a Join of left and right.
func NewJoin(left, right Logical) *Join {
	return &Join{Left: left, Right: right}
}

// NewSelection wraps input in a Selection.
func NewSelection(input Logical, cond Condition) *Selection {
	return &Selection{Input: input, Condition: cond}
}

// NewProjection wraps input in a Projection over vars.
func NewProjection(input Logical, vars ...string) *Projection {
	return &Projection{Input: input, Variables: vars}
}

// Kind constants returned by Kind.
const (
	KindScan       = "Scan"
	KindSelection  = "Selection"
	KindProjection = "Projection"
	KindJoin       = "Join"
	KindSubquery   = "Subquery"
	KindBind       = "Bind"
	KindValues     = "Values"
	KindBuffer     = "Buffer"
	KindMLPredict  = "MLPredict"
)

// Kind returns the variant name of l, or "nil" for a nil plan.
func Kind(l Logical) string {
	switch l.(type) {
	case *Scan:
		return KindScan
	case *Selection:
		return KindSelection
	case *Projection:
		return KindProjection
	case *Join:
		return KindJoin
	case *Subquery:
		return KindSubquery
	case *Bind:
		return KindBind
	case *Values:
		return KindValues
	case *Buffer:
		return KindBuffer
	case *MLPredict:
		return KindMLPredict
	case nil:
		return "nil"
	default:
		return "unknown"
	}
}

// IsScanOnly reports whether l is a Scan, optionally wrapped only in
// further Selections. Such a subtree is treated as one atomic leaf during
// join reordering so a filter stays bound to its scan.
func IsScanOnly(l Logical) bool {
	for {
		switch n := l.(type) {
		case *Scan:
			return true
		case *Selection:
			l = n.Input
		default:
			return false
		}
	}
}
