// Package querysql compiles physical plans to SQL over the store schema.
//
// A compiled query reads the triples and terms tables written by
// store.Save. Every plan node becomes a derived table whose columns are
// the variables it binds, holding term ids. Filters compare term values
// with the term_compare and term_arith functions that store registers on
// each connection, so results match the in-memory executor.
package querysql

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/tripleopt/internal/physical"
	"github.com/roach88/tripleopt/internal/plan"
	"github.com/roach88/tripleopt/internal/rdf"
)

// ErrUnsupported is returned for plan nodes and expressions with no SQL
// rendering.
var ErrUnsupported = errors.New("not supported in SQL")

// rowColumn stands in for the select list of a derived table that binds
// no variables.
const rowColumn = "__row"

// Query is a compiled plan.
type Query struct {
	SQL    string
	Params []any

	// Columns are the output variables, in column order.
	Columns []string
}

// SQLCompiler compiles physical plans to parameterized SQL for SQLite.
//
// CRITICAL: ALL queries end with ORDER BY over their output columns for
// deterministic results.
// CRITICAL: All constants are parameterized (never interpolated).
type SQLCompiler struct {
	aliases int
}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// fragment is a compiled subtree: a SELECT usable as a derived table.
type fragment struct {
	sql     string
	params  []any
	columns []string
}

// Compile converts a physical plan to parameterized SQL.
func (c *SQLCompiler) Compile(p physical.Physical) (*Query, error) {
	if p == nil {
		return nil, fmt.Errorf("cannot compile nil plan")
	}
	c.aliases = 0

	f, err := c.compile(p)
	if err != nil {
		return nil, err
	}

	q := c.alias("result")
	order := "1"
	if len(f.columns) > 0 {
		keys := make([]string, len(f.columns))
		for i, col := range f.columns {
			keys[i] = quoteIdent(col) + " ASC"
		}
		order = strings.Join(keys, ", ")
	}

	return &Query{
		SQL:     fmt.Sprintf("SELECT %s FROM (%s) AS %s ORDER BY %s", selectList(q, f.columns), f.sql, q, order),
		Params:  f.params,
		Columns: f.columns,
	}, nil
}

func (c *SQLCompiler) compile(p physical.Physical) (fragment, error) {
	switch n := p.(type) {
	case *physical.TableScan:
		return c.compileScan(n.Pattern), nil

	case *physical.Filter:
		in, err := c.compile(n.Input)
		if err != nil {
			return fragment{}, err
		}
		q := c.alias("q")
		cond, params, err := c.compileExpression(n.Condition.Expression, q, in.columns)
		if err != nil {
			return fragment{}, fmt.Errorf("filter %s: %w", n.Condition.String(), err)
		}
		return fragment{
			sql:     fmt.Sprintf("SELECT %s FROM (%s) AS %s WHERE %s", selectList(q, in.columns), in.sql, q, cond),
			params:  slices.Concat(in.params, params),
			columns: in.columns,
		}, nil

	case *physical.Projection:
		return c.compileProjection(n.Input, n.Variables)

	case *physical.Subquery:
		return c.compileProjection(n.Inner, n.ProjectedVars)

	case *physical.NestedLoopJoin:
		return c.compileJoin(n)

	default:
		return fragment{}, fmt.Errorf("%w: operator %T", ErrUnsupported, p)
	}
}

// compileScan selects one column per distinct variable of the pattern.
// Constant positions and repeated variables become WHERE conditions.
func (c *SQLCompiler) compileScan(pattern rdf.TriplePattern) fragment {
	t := c.alias("t")
	positions := [3]string{"subject", "predicate", "object"}

	var (
		columns []string
		list    []string
		where   []string
		params  []any
	)
	bound := make(map[string]string)
	for i, term := range pattern.Terms() {
		col := t + "." + positions[i]
		switch v := term.(type) {
		case rdf.Constant:
			where = append(where, col+" = ?")
			params = append(params, int64(v.ID))
		case rdf.Variable:
			name := rdf.NormalizeVariable(v.Name)
			if prev, seen := bound[name]; seen {
				where = append(where, col+" = "+prev)
				continue
			}
			bound[name] = col
			columns = append(columns, name)
			list = append(list, col+" AS "+quoteIdent(name))
		}
	}
	if len(list) == 0 {
		list = []string{"1 AS " + quoteIdent(rowColumn)}
	}

	sql := fmt.Sprintf("SELECT %s FROM triples AS %s", strings.Join(list, ", "), t)
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	return fragment{sql: sql, params: params, columns: columns}
}

// compileProjection keeps the listed variables the input binds; the rest
// are dropped, as the executor does.
func (c *SQLCompiler) compileProjection(input physical.Physical, vars []string) (fragment, error) {
	in, err := c.compile(input)
	if err != nil {
		return fragment{}, err
	}
	var columns []string
	for _, v := range vars {
		name := rdf.NormalizeVariable(v)
		if slices.Contains(in.columns, name) && !slices.Contains(columns, name) {
			columns = append(columns, name)
		}
	}
	q := c.alias("q")
	return fragment{
		sql:     fmt.Sprintf("SELECT %s FROM (%s) AS %s", selectList(q, columns), in.sql, q),
		params:  in.params,
		columns: columns,
	}, nil
}

// compileJoin is an inner join on every shared variable, or a cross join
// when there is none.
func (c *SQLCompiler) compileJoin(n *physical.NestedLoopJoin) (fragment, error) {
	left, err := c.compile(n.Left)
	if err != nil {
		return fragment{}, err
	}
	right, err := c.compile(n.Right)
	if err != nil {
		return fragment{}, err
	}
	l, r := c.alias("l"), c.alias("r")

	var on []string
	list := make([]string, 0, len(left.columns)+len(right.columns))
	columns := slices.Clone(left.columns)
	for _, col := range left.columns {
		list = append(list, l+"."+quoteIdent(col))
	}
	for _, col := range right.columns {
		if slices.Contains(left.columns, col) {
			on = append(on, fmt.Sprintf("%s.%s = %s.%s", l, quoteIdent(col), r, quoteIdent(col)))
			continue
		}
		columns = append(columns, col)
		list = append(list, r+"."+quoteIdent(col))
	}
	if len(list) == 0 {
		list = []string{"1 AS " + quoteIdent(rowColumn)}
	}
	cond := "1"
	if len(on) > 0 {
		cond = strings.Join(on, " AND ")
	}

	return fragment{
		sql: fmt.Sprintf("SELECT %s FROM (%s) AS %s JOIN (%s) AS %s ON %s",
			strings.Join(list, ", "), left.sql, l, right.sql, r, cond),
		params:  append(slices.Clone(left.params), right.params...),
		columns: columns,
	}, nil
}

// compileExpression renders expr as a 0/1 SQL expression over the columns
// of derived table q. A comparison reading a variable q does not bind is 0.
func (c *SQLCompiler) compileExpression(expr plan.Expression, q string, columns []string) (string, []any, error) {
	switch e := expr.(type) {
	case nil:
		return "1", nil, nil

	case *plan.Comparison:
		name := rdf.NormalizeVariable(e.Variable)
		if !slices.Contains(columns, name) {
			return "0", nil, nil
		}
		return compareSQL(termValue(q, name), e.Operator, "?", []any{e.Value})

	case *plan.And:
		return c.compileBinary("AND", e.Left, e.Right, q, columns)

	case *plan.Or:
		return c.compileBinary("OR", e.Left, e.Right, q, columns)

	case *plan.Not:
		inner, params, err := c.compileExpression(e.Expr, q, columns)
		if err != nil {
			return "", nil, err
		}
		return "(NOT " + inner + ")", params, nil

	case *plan.Compare:
		lhs, lparams, lok, err := compileOperand(e.Left, q, columns)
		if err != nil {
			return "", nil, err
		}
		rhs, rparams, rok, err := compileOperand(e.Right, q, columns)
		if err != nil {
			return "", nil, err
		}
		if !lok || !rok {
			return "0", nil, nil
		}
		return compareSQL(lhs, e.Operator, rhs, append(lparams, rparams...))

	default:
		return "", nil, fmt.Errorf("%w: expression %T", ErrUnsupported, expr)
	}
}

func (c *SQLCompiler) compileBinary(op string, left, right plan.Expression, q string, columns []string) (string, []any, error) {
	l, lparams, err := c.compileExpression(left, q, columns)
	if err != nil {
		return "", nil, err
	}
	r, rparams, err := c.compileExpression(right, q, columns)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("(%s %s %s)", l, op, r), append(lparams, rparams...), nil
}

// compileOperand renders o as a term value. ok is false when o reads a
// variable q does not bind.
func compileOperand(o plan.Operand, q string, columns []string) (string, []any, bool, error) {
	switch x := o.(type) {
	case *plan.VarRef:
		name := rdf.NormalizeVariable(x.Name)
		if !slices.Contains(columns, name) {
			return "", nil, false, nil
		}
		return termValue(q, name), nil, true, nil

	case *plan.Literal:
		return "?", []any{x.Value}, true, nil

	case *plan.Arithmetic:
		if _, err := plan.ParseArithOp(string(x.Op)); err != nil {
			return "", nil, false, err
		}
		l, lparams, lok, err := compileOperand(x.Left, q, columns)
		if err != nil || !lok {
			return "", nil, lok, err
		}
		r, rparams, rok, err := compileOperand(x.Right, q, columns)
		if err != nil || !rok {
			return "", nil, rok, err
		}
		params := append([]any{string(x.Op)}, lparams...)
		return fmt.Sprintf("term_arith(?, %s, %s)", l, r), append(params, rparams...), true, nil

	default:
		return "", nil, false, fmt.Errorf("%w: operand %T", ErrUnsupported, o)
	}
}

var compareOps = map[plan.CompareOp]string{
	plan.OpEq: "=",
	plan.OpNe: "<>",
	plan.OpLt: "<",
	plan.OpLe: "<=",
	plan.OpGt: ">",
	plan.OpGe: ">=",
}

// compareSQL orders lhs against rhs with term_compare. A NULL operand,
// from arithmetic without a numeric result, compares false.
func compareSQL(lhs string, op plan.CompareOp, rhs string, params []any) (string, []any, error) {
	sqlOp, ok := compareOps[op]
	if !ok {
		return "", nil, fmt.Errorf("unsupported comparison operator %q", op)
	}
	return fmt.Sprintf("COALESCE(term_compare(%s, %s) %s 0, 0)", lhs, rhs, sqlOp), params, nil
}

// termValue is the lexical value of the term bound to name in q.
func termValue(q, name string) string {
	return fmt.Sprintf("(SELECT value FROM terms WHERE id = %s.%s)", q, quoteIdent(name))
}

func selectList(q string, columns []string) string {
	if len(columns) == 0 {
		return "1 AS " + quoteIdent(rowColumn)
	}
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = q + "." + quoteIdent(col)
	}
	return strings.Join(parts, ", ")
}

func (c *SQLCompiler) alias(prefix string) string {
	c.aliases++
	return fmt.Sprintf("%s%d", prefix, c.aliases)
}

// quoteIdent quotes a variable name as an SQL identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
