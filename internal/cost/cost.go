// Package cost estimates the execution cost of physical plans from a
// statistics snapshot.
//
// Costs are unitless and only meaningful relative to each other. The
// model is total, deterministic and pure: the same plan and snapshot
// always produce the same cost, and growing any intermediate result never
// lowers it.
package cost

import (
	"maps"
	"math"
	"slices"

	"github.com/roach88/tripleopt/internal/physical"
	"github.com/roach88/tripleopt/internal/plan"
	"github.com/roach88/tripleopt/internal/rdf"
	"github.com/roach88/tripleopt/internal/stats"
)

// CostEstimator assigns a comparable cost to a physical plan. Lower is
// better.
type CostEstimator interface {
	EstimateCost(p physical.Physical) uint64
}

// Weights scales the components of the cost model.
type Weights struct {
	ScanRow            uint64  `json:"scan_row"`
	FilterRow          uint64  `json:"filter_row"`
	JoinPair           uint64  `json:"join_pair"`
	OutputRow          uint64  `json:"output_row"`
	DefaultSelectivity float64 `json:"default_selectivity"`
}

// DefaultWeights weighs every unit of work equally and assumes a third of
// the rows pass a range predicate.
func DefaultWeights() Weights {
	return Weights{
		ScanRow:            1,
		FilterRow:          1,
		JoinPair:           1,
		OutputRow:          1,
		DefaultSelectivity: 0.33,
	}
}

// Estimate is the model's view of one plan node.
type Estimate struct {
	Rows     float64
	Cost     uint64
	Distinct map[string]float64 // per-variable distinct values
}

// Estimator is the default CostEstimator. It is built once per
// optimization and shared by every candidate.
type Estimator struct {
	stats   *stats.DatabaseStats
	weights Weights
}

var _ CostEstimator = (*Estimator)(nil)

// New creates an Estimator over s. A non-positive or out-of-range
// DefaultSelectivity falls back to the default.
func New(s *stats.DatabaseStats, w Weights) *Estimator {
	if w.DefaultSelectivity <= 0 || w.DefaultSelectivity > 1 {
		w.DefaultSelectivity = DefaultWeights().DefaultSelectivity
	}
	if s == nil {
		s = &stats.DatabaseStats{}
	}
	return &Estimator{stats: s, weights: w}
}

// EstimateCost returns the cumulative cost of p. Unknown nodes cost
// math.MaxUint64.
func (e *Estimator) EstimateCost(p physical.Physical) uint64 {
	return e.Estimate(p).Cost
}

// Cardinality returns the estimated output row count of p, rounded up.
func (e *Estimator) Cardinality(p physical.Physical) uint64 {
	return toUint(e.Estimate(p).Rows)
}

// Estimate returns the full estimate of p.
func (e *Estimator) Estimate(p physical.Physical) Estimate {
	switch n := p.(type) {
	case *physical.TableScan:
		return e.scan(n.Pattern)

	case *physical.Filter:
		in := e.Estimate(n.Input)
		sel := e.selectivity(n.Condition.Expression, in.Distinct)
		rows := in.Rows * sel
		return Estimate{
			Rows:     rows,
			Cost:     addSat(in.Cost, mulSat(toUint(in.Rows), e.weights.FilterRow)),
			Distinct: capDistinct(in.Distinct, rows),
		}

	case *physical.Projection:
		in := e.Estimate(n.Input)
		return Estimate{Rows: in.Rows, Cost: in.Cost, Distinct: restrict(in.Distinct, n.Variables)}

	case *physical.Subquery:
		in := e.Estimate(n.Inner)
		return Estimate{Rows: in.Rows, Cost: in.Cost, Distinct: restrict(in.Distinct, n.ProjectedVars)}

	case *physical.NestedLoopJoin:
		return e.join(e.Estimate(n.Left), e.Estimate(n.Right))

	default:
		return Estimate{Rows: math.Inf(1), Cost: math.MaxUint64}
	}
}

// scan estimates a pattern from its predicate group, narrowed by a bound
// subject or object. Every triple of the group is read.
func (e *Estimator) scan(p rdf.TriplePattern) Estimate {
	var group, dSubj, dPred, dObj float64
	if c, ok := p.Predicate.(rdf.Constant); ok {
		ps, _ := e.stats.Predicate(c.ID)
		group = float64(ps.Count)
		dSubj = float64(ps.DistinctSubjects)
		dObj = float64(ps.DistinctObjects)
		dPred = 1
	} else {
		group = float64(e.stats.TotalTriples)
		dSubj = float64(e.stats.DistinctSubjects)
		dObj = float64(e.stats.DistinctObjects)
		dPred = float64(e.stats.DistinctPredicates)
	}

	rows := group
	if _, ok := p.Subject.(rdf.Constant); ok && dSubj > 0 {
		rows /= dSubj
	}
	if _, ok := p.Object.(rdf.Constant); ok && dObj > 0 {
		rows /= dObj
	}

	distinct := make(map[string]float64, 3)
	for i, d := range [3]float64{dSubj, dPred, dObj} {
		v, ok := p.Terms()[i].(rdf.Variable)
		if !ok {
			continue
		}
		name := rdf.NormalizeVariable(v.Name)
		d = math.Min(d, rows)
		if prev, seen := distinct[name]; !seen || d < prev {
			distinct[name] = d
		}
	}

	return Estimate{
		Rows:     rows,
		Cost:     mulSat(toUint(group), e.weights.ScanRow),
		Distinct: distinct,
	}
}

// join uses |L|*|R| / prod(max(d_L(v), d_R(v))) over the shared variables,
// a cross product when none are shared. Every pair is compared. Shared
// variables divide in name order so the float result does not depend on
// map iteration.
func (e *Estimator) join(l, r Estimate) Estimate {
	pairs := l.Rows * r.Rows
	rows := pairs
	distinct := make(map[string]float64, len(l.Distinct)+len(r.Distinct))
	for v, d := range l.Distinct {
		distinct[v] = d
	}
	for _, v := range slices.Sorted(maps.Keys(r.Distinct)) {
		dr := r.Distinct[v]
		dl, shared := l.Distinct[v]
		if !shared {
			distinct[v] = dr
			continue
		}
		if m := math.Max(dl, dr); m > 0 {
			rows /= m
		}
		distinct[v] = math.Min(dl, dr)
	}

	cost := addSat(l.Cost, r.Cost)
	cost = addSat(cost, mulSat(toUint(pairs), e.weights.JoinPair))
	cost = addSat(cost, mulSat(toUint(rows), e.weights.OutputRow))
	return Estimate{Rows: rows, Cost: cost, Distinct: capDistinct(distinct, rows)}
}

// selectivity estimates the fraction of rows passing expr.
func (e *Estimator) selectivity(expr plan.Expression, distinct map[string]float64) float64 {
	def := e.weights.DefaultSelectivity
	var s float64
	switch x := expr.(type) {
	case nil:
		s = 1
	case *plan.Comparison:
		s = e.comparison(rdf.NormalizeVariable(x.Variable), x.Operator, distinct)
	case *plan.And:
		s = e.selectivity(x.Left, distinct) * e.selectivity(x.Right, distinct)
	case *plan.Or:
		a, b := e.selectivity(x.Left, distinct), e.selectivity(x.Right, distinct)
		s = a + b - a*b
	case *plan.Not:
		s = 1 - e.selectivity(x.Expr, distinct)
	case *plan.Compare:
		s = def
		if v, ok := x.Left.(*plan.VarRef); ok {
			if _, lit := x.Right.(*plan.Literal); lit {
				s = e.comparison(rdf.NormalizeVariable(v.Name), x.Operator, distinct)
			}
		} else if v, ok := x.Right.(*plan.VarRef); ok {
			if _, lit := x.Left.(*plan.Literal); lit {
				s = e.comparison(rdf.NormalizeVariable(v.Name), x.Operator, distinct)
			}
		}
	default:
		s = def
	}
	return math.Max(0, math.Min(1, s))
}

func (e *Estimator) comparison(variable string, op plan.CompareOp, distinct map[string]float64) float64 {
	d, ok := distinct[variable]
	if !ok || d < 1 {
		return e.weights.DefaultSelectivity
	}
	switch op {
	case plan.OpEq:
		return 1 / d
	case plan.OpNe:
		return 1 - 1/d
	default:
		return e.weights.DefaultSelectivity
	}
}

func restrict(distinct map[string]float64, vars []string) map[string]float64 {
	out := make(map[string]float64, len(vars))
	for _, v := range vars {
		name := rdf.NormalizeVariable(v)
		if d, ok := distinct[name]; ok {
			out[name] = d
		}
	}
	return out
}

func capDistinct(distinct map[string]float64, rows float64) map[string]float64 {
	out := make(map[string]float64, len(distinct))
	for v, d := range distinct {
		out[v] = math.Min(d, rows)
	}
	return out
}

func toUint(f float64) uint64 {
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= math.MaxUint64 {
		return math.MaxUint64
	}
	return uint64(math.Ceil(f))
}

func addSat(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}

func mulSat(a, b uint64) uint64 {
	if a != 0 && b > math.MaxUint64/a {
		return math.MaxUint64
	}
	return a * b
}
