package plan

import (
	"slices"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/roach88/tripleopt/internal/rdf"
)

// VarSet is a set of normalised variable names.
type VarSet = mapset.Set[string]

// NewVarSet creates a VarSet holding the normalised forms of names.
func NewVarSet(names ...string) VarSet {
	s := mapset.NewThreadUnsafeSet[string]()
	for _, n := range names {
		s.Add(rdf.NormalizeVariable(n))
	}
	return s
}

// Variables returns the variables reachable from l:
//   - Scan: the pattern's variables
//   - Selection: its input's variables
//   - Projection: its explicit variable list
//   - Join: the union of both children
//   - Subquery, Values: their declared variable list
//   - Bind, MLPredict: the input's variables plus the output variable
//   - Buffer: none
func Variables(l Logical) VarSet {
	switch n := l.(type) {
	case *Scan:
		return NewVarSet(n.Pattern.Variables()...)
	case *Selection:
		return Variables(n.Input)
	case *Projection:
		return NewVarSet(n.Variables...)
	case *Join:
		return Variables(n.Left).Union(Variables(n.Right))
	case *Subquery:
		return NewVarSet(n.ProjectedVars...)
	case *Values:
		return NewVarSet(n.Variables...)
	case *Bind:
		vars := Variables(n.Input)
		vars.Add(rdf.NormalizeVariable(n.Output))
		return vars
	case *MLPredict:
		vars := Variables(n.Input)
		vars.Add(rdf.NormalizeVariable(n.Output))
		return vars
	default:
		// Buffer and nil bind nothing.
		return NewVarSet()
	}
}

// SortedVariables returns Variables(l) in lexical order.
func SortedVariables(l Logical) []string {
	vars := Variables(l).ToSlice()
	slices.Sort(vars)
	return vars
}
