// Package planfile reads logical plans from YAML documents.
//
// A plan file names its prefixes and gives the operator tree, one operator
// key per node:
//
//	prefixes:
//	  ex: http://example.org/
//	plan:
//	  project: [name, company]
//	  input:
//	    select: {variable: age, op: ">", value: 30}
//	    input:
//	      join:
//	        - scan: ["?person", ex:name, "?name"]
//	        - scan: ["?person", ex:age, "?age"]
//	        - scan: ["?person", ex:worksAt, "?company"]
//
// Variables inside flow sequences are quoted, since YAML reads a leading
// "?" there as a key indicator. A join with more than two inputs is built
// left-deep. Unknown keys are rejected.
package planfile

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tripleopt/internal/plan"
	"github.com/roach88/tripleopt/internal/rdf"
)

// Document is a parsed plan file before term encoding.
type Document struct {
	// Name labels the plan in CLI output.
	Name string `yaml:"name,omitempty"`

	// Prefixes maps a prefix to the IRI it abbreviates in "prefix:local".
	Prefixes map[string]string `yaml:"prefixes,omitempty"`

	// Plan is the root operator.
	Plan *Node `yaml:"plan"`
}

// Node is one operator. Exactly one operator key must be set; Input is
// the child of the unary operators.
type Node struct {
	Scan      []string       `yaml:"scan,omitempty"`
	Join      []*Node        `yaml:"join,omitempty"`
	Select    *Expr          `yaml:"select,omitempty"`
	Project   []string       `yaml:"project,omitempty"`
	Subquery  []string       `yaml:"subquery,omitempty"`
	Bind      *BindSpec      `yaml:"bind,omitempty"`
	Values    *ValuesSpec    `yaml:"values,omitempty"`
	Buffer    *BufferSpec    `yaml:"buffer,omitempty"`
	MLPredict *MLPredictSpec `yaml:"ml_predict,omitempty"`

	Input *Node `yaml:"input,omitempty"`
}

// Expr is a filter expression. Either a comparison (variable, op, value),
// a compare over operands, or one of and/or/not.
type Expr struct {
	Variable string `yaml:"variable,omitempty"`
	Op       string `yaml:"op,omitempty"`
	Value    string `yaml:"value,omitempty"`

	Left  *Operand `yaml:"left,omitempty"`
	Right *Operand `yaml:"right,omitempty"`

	And []*Expr `yaml:"and,omitempty"`
	Or  []*Expr `yaml:"or,omitempty"`
	Not *Expr   `yaml:"not,omitempty"`
}

// Operand is one side of a compare: a variable, a literal, or arithmetic
// over two operands.
type Operand struct {
	Var     string   `yaml:"var,omitempty"`
	Literal string   `yaml:"literal,omitempty"`
	Op      string   `yaml:"op,omitempty"`
	Left    *Operand `yaml:"left,omitempty"`
	Right   *Operand `yaml:"right,omitempty"`
}

// BindSpec computes Output from Arguments.
type BindSpec struct {
	Function  string   `yaml:"function"`
	Arguments []string `yaml:"arguments"`
	Output    string   `yaml:"output"`
}

// ValuesSpec is an inline table of constant rows.
type ValuesSpec struct {
	Variables []string   `yaml:"variables"`
	Rows      [][]string `yaml:"rows"`
}

// BufferSpec names a stream window.
type BufferSpec struct {
	Name     string `yaml:"name"`
	Capacity int    `yaml:"capacity"`
}

// MLPredictSpec applies Model to Inputs.
type MLPredictSpec struct {
	Model  string   `yaml:"model"`
	Inputs []string `yaml:"inputs"`
	Output string   `yaml:"output"`
}

// Load reads the plan file at path and encodes its constants into dict.
func Load(path string, dict *rdf.Dictionary) (plan.Logical, *Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read plan file: %w", err)
	}
	return Parse(data, dict)
}

// Parse decodes a plan document and builds its logical plan.
func Parse(data []byte, dict *rdf.Dictionary) (plan.Logical, *Document, error) {
	var doc Document
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if doc.Plan == nil {
		return nil, nil, fmt.Errorf("invalid plan file: plan is required")
	}

	b := &builder{dict: dict, prefixes: doc.Prefixes}
	l, err := b.node(doc.Plan, "plan")
	if err != nil {
		return nil, nil, fmt.Errorf("invalid plan file: %w", err)
	}
	return l, &doc, nil
}

type builder struct {
	dict     *rdf.Dictionary
	prefixes map[string]string
}

func (b *builder) node(n *Node, path string) (plan.Logical, error) {
	if n == nil {
		return nil, fmt.Errorf("%s: empty node", path)
	}
	kind, err := n.kind()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	unary := kind != "scan" && kind != "join" && kind != "values" && kind != "buffer"
	if unary && n.Input == nil {
		return nil, fmt.Errorf("%s: %s requires input", path, kind)
	}
	if !unary && n.Input != nil {
		return nil, fmt.Errorf("%s: %s takes no input", path, kind)
	}

	switch kind {
	case "scan":
		return b.scan(n.Scan, path+".scan")

	case "join":
		if len(n.Join) < 2 {
			return nil, fmt.Errorf("%s.join: need at least 2 inputs, got %d", path, len(n.Join))
		}
		var acc plan.Logical
		for i, child := range n.Join {
			l, err := b.node(child, fmt.Sprintf("%s.join[%d]", path, i))
			if err != nil {
				return nil, err
			}
			if acc == nil {
				acc = l
				continue
			}
			acc = plan.NewJoin(acc, l)
		}
		return acc, nil

	case "select":
		expr, err := b.expr(n.Select, path+".select")
		if err != nil {
			return nil, err
		}
		input, err := b.node(n.Input, path+".input")
		if err != nil {
			return nil, err
		}
		return plan.NewSelection(input, plan.Condition{Name: plan.FormatExpression(expr), Expression: expr}), nil

	case "project":
		input, err := b.node(n.Input, path+".input")
		if err != nil {
			return nil, err
		}
		return plan.NewProjection(input, n.Project...), nil

	case "subquery":
		inner, err := b.node(n.Input, path+".input")
		if err != nil {
			return nil, err
		}
		return &plan.Subquery{Inner: inner, ProjectedVars: normalizeAll(n.Subquery)}, nil

	case "bind":
		if n.Bind.Function == "" || n.Bind.Output == "" {
			return nil, fmt.Errorf("%s.bind: function and output are required", path)
		}
		input, err := b.node(n.Input, path+".input")
		if err != nil {
			return nil, err
		}
		return &plan.Bind{
			Input:     input,
			Function:  n.Bind.Function,
			Arguments: normalizeAll(n.Bind.Arguments),
			Output:    rdf.NormalizeVariable(n.Bind.Output),
		}, nil

	case "values":
		return b.values(n.Values, path+".values")

	case "buffer":
		if n.Buffer.Name == "" || n.Buffer.Capacity <= 0 {
			return nil, fmt.Errorf("%s.buffer: name and a positive capacity are required", path)
		}
		return &plan.Buffer{Name: n.Buffer.Name, Capacity: n.Buffer.Capacity}, nil

	case "ml_predict":
		if n.MLPredict.Model == "" || n.MLPredict.Output == "" {
			return nil, fmt.Errorf("%s.ml_predict: model and output are required", path)
		}
		input, err := b.node(n.Input, path+".input")
		if err != nil {
			return nil, err
		}
		return &plan.MLPredict{
			Input:          input,
			Model:          n.MLPredict.Model,
			InputVariables: normalizeAll(n.MLPredict.Inputs),
			Output:         rdf.NormalizeVariable(n.MLPredict.Output),
		}, nil
	}
	return nil, fmt.Errorf("%s: unknown operator %q", path, kind)
}

// kind returns the single operator key set on n.
func (n *Node) kind() (string, error) {
	var kinds []string
	if n.Scan != nil {
		kinds = append(kinds, "scan")
	}
	if n.Join != nil {
		kinds = append(kinds, "join")
	}
	if n.Select != nil {
		kinds = append(kinds, "select")
	}
	if n.Project != nil {
		kinds = append(kinds, "project")
	}
	if n.Subquery != nil {
		kinds = append(kinds, "subquery")
	}
	if n.Bind != nil {
		kinds = append(kinds, "bind")
	}
	if n.Values != nil {
		kinds = append(kinds, "values")
	}
	if n.Buffer != nil {
		kinds = append(kinds, "buffer")
	}
	if n.MLPredict != nil {
		kinds = append(kinds, "ml_predict")
	}
	switch len(kinds) {
	case 0:
		return "", fmt.Errorf("no operator key")
	case 1:
		return kinds[0], nil
	default:
		return "", fmt.Errorf("multiple operator keys: %s", strings.Join(kinds, ", "))
	}
}

func (b *builder) scan(terms []string, path string) (plan.Logical, error) {
	if len(terms) != 3 {
		return nil, fmt.Errorf("%s: need 3 terms, got %d", path, len(terms))
	}
	var out [3]rdf.Term
	for i, s := range terms {
		t, err := b.term(s)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", path, i, err)
		}
		out[i] = t
	}
	return plan.NewScan(rdf.Pattern(out[0], out[1], out[2])), nil
}

func (b *builder) values(v *ValuesSpec, path string) (plan.Logical, error) {
	if len(v.Variables) == 0 {
		return nil, fmt.Errorf("%s: variables are required", path)
	}
	rows := make([][]rdf.ID, len(v.Rows))
	for i, row := range v.Rows {
		if len(row) != len(v.Variables) {
			return nil, fmt.Errorf("%s.rows[%d]: need %d values, got %d", path, i, len(v.Variables), len(row))
		}
		rows[i] = make([]rdf.ID, len(row))
		for j, s := range row {
			t, err := b.term(s)
			if err != nil {
				return nil, fmt.Errorf("%s.rows[%d][%d]: %w", path, i, j, err)
			}
			c, ok := t.(rdf.Constant)
			if !ok {
				return nil, fmt.Errorf("%s.rows[%d][%d]: variable %q in values", path, i, j, s)
			}
			rows[i][j] = c.ID
		}
	}
	return &plan.Values{Variables: normalizeAll(v.Variables), Rows: rows}, nil
}

// term parses one pattern position:
//
//	?x, $x        variable
//	<iri>         IRI
//	pre:local     IRI via a declared prefix
//	"text"        quoted literal
//	_:b           blank node
//	anything else literal as written
func (b *builder) term(s string) (rdf.Term, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return nil, fmt.Errorf("empty term")
	case strings.HasPrefix(s, "?") || strings.HasPrefix(s, "$"):
		name := rdf.NormalizeVariable(s)
		if name == "" {
			return nil, fmt.Errorf("empty variable name")
		}
		return rdf.Var(name), nil
	case strings.HasPrefix(s, "<"):
		if !strings.HasSuffix(s, ">") {
			return nil, fmt.Errorf("unterminated IRI %q", s)
		}
		return rdf.Const(b.dict.Encode(s[1 : len(s)-1])), nil
	case strings.HasPrefix(s, `"`):
		lit, err := strconv.Unquote(s)
		if err != nil {
			return nil, fmt.Errorf("bad literal %s: %w", s, err)
		}
		return rdf.Const(b.dict.Encode(lit)), nil
	case strings.HasPrefix(s, "_:"):
		return rdf.Const(b.dict.Encode(s)), nil
	}

	if prefix, local, ok := strings.Cut(s, ":"); ok {
		if base, known := b.prefixes[prefix]; known {
			return rdf.Const(b.dict.Encode(base + local)), nil
		}
	}
	return rdf.Const(b.dict.Encode(s)), nil
}

func (b *builder) expr(e *Expr, path string) (plan.Expression, error) {
	if e == nil {
		return nil, fmt.Errorf("%s: empty expression", path)
	}

	set := 0
	for _, present := range []bool{e.Variable != "", e.Left != nil, e.And != nil, e.Or != nil, e.Not != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return nil, fmt.Errorf("%s: need exactly one of variable, left/right, and, or, not", path)
	}

	switch {
	case e.Variable != "":
		op, err := plan.ParseCompareOp(e.Op)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return &plan.Comparison{Variable: rdf.NormalizeVariable(e.Variable), Operator: op, Value: e.Value}, nil

	case e.Left != nil:
		if e.Right == nil {
			return nil, fmt.Errorf("%s: compare needs left and right", path)
		}
		op, err := plan.ParseCompareOp(e.Op)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		left, err := b.operand(e.Left, path+".left")
		if err != nil {
			return nil, err
		}
		right, err := b.operand(e.Right, path+".right")
		if err != nil {
			return nil, err
		}
		return &plan.Compare{Left: left, Operator: op, Right: right}, nil

	case e.And != nil:
		return b.fold(e.And, path+".and", func(l, r plan.Expression) plan.Expression {
			return &plan.And{Left: l, Right: r}
		})

	case e.Or != nil:
		return b.fold(e.Or, path+".or", func(l, r plan.Expression) plan.Expression {
			return &plan.Or{Left: l, Right: r}
		})

	default:
		inner, err := b.expr(e.Not, path+".not")
		if err != nil {
			return nil, err
		}
		return &plan.Not{Expr: inner}, nil
	}
}

// fold combines two or more expressions left to right.
func (b *builder) fold(exprs []*Expr, path string, combine func(l, r plan.Expression) plan.Expression) (plan.Expression, error) {
	if len(exprs) < 2 {
		return nil, fmt.Errorf("%s: need at least 2 operands, got %d", path, len(exprs))
	}
	var acc plan.Expression
	for i, e := range exprs {
		x, err := b.expr(e, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		if acc == nil {
			acc = x
			continue
		}
		acc = combine(acc, x)
	}
	return acc, nil
}

func (b *builder) operand(o *Operand, path string) (plan.Operand, error) {
	switch {
	case o.Var != "":
		return &plan.VarRef{Name: rdf.NormalizeVariable(o.Var)}, nil
	case o.Op != "":
		op, err := plan.ParseArithOp(o.Op)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if o.Left == nil || o.Right == nil {
			return nil, fmt.Errorf("%s: arithmetic needs left and right", path)
		}
		left, err := b.operand(o.Left, path+".left")
		if err != nil {
			return nil, err
		}
		right, err := b.operand(o.Right, path+".right")
		if err != nil {
			return nil, err
		}
		return &plan.Arithmetic{Op: op, Left: left, Right: right}, nil
	default:
		return &plan.Literal{Value: o.Literal}, nil
	}
}

func normalizeAll(vars []string) []string {
	out := make([]string, len(vars))
	for i, v := range vars {
		out[i] = rdf.NormalizeVariable(v)
	}
	return out
}
