// Package exec evaluates physical plans against an in-memory dataset.
//
// It is a straightforward reference evaluator: nested loops, no indexes,
// no spilling. The optimizer's tests use it as an oracle to check that
// rewritten and reordered plans return the same multiset of rows.
package exec

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/tripleopt/internal/physical"
	"github.com/roach88/tripleopt/internal/rdf"
)

// Binding maps normalised variable names to dictionary ids.
type Binding map[string]rdf.ID

// Execute evaluates p over ds and returns the produced rows in evaluation
// order.
func Execute(p physical.Physical, ds *rdf.Dataset) ([]Binding, error) {
	e := &executor{ds: ds}
	return e.eval(p)
}

type executor struct {
	ds *rdf.Dataset
}

func (e *executor) eval(p physical.Physical) ([]Binding, error) {
	switch n := p.(type) {
	case *physical.TableScan:
		return e.scan(n.Pattern), nil

	case *physical.Filter:
		rows, err := e.eval(n.Input)
		if err != nil {
			return nil, err
		}
		var out []Binding
		for _, row := range rows {
			ok, err := Evaluate(n.Condition.Expression, row, e.ds.Dictionary)
			if err != nil {
				return nil, fmt.Errorf("filter %s: %w", n.Condition.String(), err)
			}
			if ok {
				out = append(out, row)
			}
		}
		return out, nil

	case *physical.Projection:
		rows, err := e.eval(n.Input)
		if err != nil {
			return nil, err
		}
		return project(rows, n.Variables), nil

	case *physical.NestedLoopJoin:
		left, err := e.eval(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := e.eval(n.Right)
		if err != nil {
			return nil, err
		}
		var out []Binding
		for _, l := range left {
			for _, r := range right {
				if merged, ok := merge(l, r); ok {
					out = append(out, merged)
				}
			}
		}
		return out, nil

	case *physical.Subquery:
		rows, err := e.eval(n.Inner)
		if err != nil {
			return nil, err
		}
		return project(rows, n.ProjectedVars), nil

	case nil:
		return nil, fmt.Errorf("execute: nil plan node")

	default:
		return nil, fmt.Errorf("execute: unsupported operator %T", p)
	}
}

func (e *executor) scan(pattern rdf.TriplePattern) []Binding {
	var out []Binding
	terms := pattern.Terms()
	for _, t := range e.ds.Match(pattern) {
		ids := [3]rdf.ID{t.Subject, t.Predicate, t.Object}
		row := make(Binding, 3)
		consistent := true
		for i, term := range terms {
			v, ok := term.(rdf.Variable)
			if !ok {
				continue
			}
			name := rdf.NormalizeVariable(v.Name)
			if prev, seen := row[name]; seen && prev != ids[i] {
				consistent = false
				break
			}
			row[name] = ids[i]
		}
		if consistent {
			out = append(out, row)
		}
	}
	return out
}

func project(rows []Binding, vars []string) []Binding {
	out := make([]Binding, 0, len(rows))
	for _, row := range rows {
		p := make(Binding, len(vars))
		for _, v := range vars {
			name := rdf.NormalizeVariable(v)
			if id, ok := row[name]; ok {
				p[name] = id
			}
		}
		out = append(out, p)
	}
	return out
}

// merge joins two rows when they agree on every shared variable.
func merge(a, b Binding) (Binding, bool) {
	out := make(Binding, len(a)+len(b))
	maps.Copy(out, a)
	for k, v := range b {
		if prev, ok := out[k]; ok && prev != v {
			return nil, false
		}
		out[k] = v
	}
	return out, true
}

// Canonical renders rows as a sorted list of "?var=value" lines so two
// result multisets can be compared independent of row order.
func Canonical(rows []Binding, dict *rdf.Dictionary) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		keys := slices.Sorted(maps.Keys(row))
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = "?" + k + "=" + decode(dict, row[k])
		}
		out = append(out, strings.Join(parts, " "))
	}
	slices.Sort(out)
	return out
}

func decode(dict *rdf.Dictionary, id rdf.ID) string {
	if dict != nil {
		if s, ok := dict.Decode(id); ok {
			return s
		}
	}
	return fmt.Sprintf("#%d", id)
}
