package selector

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tripleopt/internal/cost"
	"github.com/roach88/tripleopt/internal/enumerate"
	"github.com/roach88/tripleopt/internal/physical"
	"github.com/roach88/tripleopt/internal/plan"
	"github.com/roach88/tripleopt/internal/rdf"
	"github.com/roach88/tripleopt/internal/stats"
	"github.com/roach88/tripleopt/internal/testutil"
)

// byPredicate prices a single-scan plan by its predicate id.
type byPredicate struct {
	costs map[rdf.ID]uint64
	calls int
}

func (e *byPredicate) EstimateCost(p physical.Physical) uint64 {
	e.calls++
	ts := p.(*physical.TableScan)
	return e.costs[ts.Pattern.Predicate.(rdf.Constant).ID]
}

func scanOf(p rdf.ID) plan.Logical {
	return plan.NewScan(rdf.Pattern(rdf.Var("s"), rdf.Const(p), rdf.Var("o")))
}

func TestSelectBest_Minimum(t *testing.T) {
	est := &byPredicate{costs: map[rdf.ID]uint64{1: 5, 2: 3, 3: 7}}
	res, err := SelectBest([]plan.Logical{scanOf(1), scanOf(2), scanOf(3)}, est, Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Index)
	assert.Equal(t, uint64(3), res.Cost)
	assert.Equal(t, 3, res.Considered)
	assert.Equal(t, []uint64{5, 3, 7}, res.Costs)
	assert.True(t, physical.Equal(&physical.TableScan{Pattern: scanOf(2).(*plan.Scan).Pattern}, res.Plan))
}

func TestSelectBest_TieKeepsFirst(t *testing.T) {
	tests := []struct {
		name  string
		costs map[rdf.ID]uint64
		want  int
	}{
		{"all equal", map[rdf.ID]uint64{1: 4, 2: 4, 3: 4, 4: 4}, 0},
		{"later tie", map[rdf.ID]uint64{1: 9, 2: 2, 3: 2, 4: 2}, 1},
		{"last is strictly lower", map[rdf.ID]uint64{1: 3, 2: 3, 3: 3, 4: 1}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cands := []plan.Logical{scanOf(1), scanOf(2), scanOf(3), scanOf(4)}
			res, err := SelectBest(cands, &byPredicate{costs: tt.costs}, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Index)
		})
	}
}

func TestSelectBest_Cache(t *testing.T) {
	cands := []plan.Logical{scanOf(1), scanOf(1), scanOf(2), scanOf(1)}

	cached := &byPredicate{costs: map[rdf.ID]uint64{1: 2, 2: 1}}
	res, err := SelectBest(cands, cached, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, cached.calls)
	assert.Equal(t, 2, res.Index)

	uncached := &byPredicate{costs: map[rdf.ID]uint64{1: 2, 2: 1}}
	res2, err := SelectBest(cands, uncached, Options{CacheSize: -1})
	require.NoError(t, err)
	assert.Equal(t, 4, uncached.calls)
	assert.Equal(t, res.Costs, res2.Costs)
}

func TestSelectBest_Unsupported(t *testing.T) {
	values := &plan.Values{Variables: []string{"s"}, Rows: [][]rdf.ID{{1}}}
	cands := []plan.Logical{values, scanOf(1)}
	est := &byPredicate{costs: map[rdf.ID]uint64{1: 8}}

	_, err := SelectBest(cands, est, Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, physical.ErrUnsupportedOperator)

	res, err := SelectBest(cands, est, Options{SkipUnsupported: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Index)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Considered)
	assert.Equal(t, maxCost, res.Costs[0])

	_, err = SelectBest([]plan.Logical{values}, est, Options{SkipUnsupported: true})
	assert.ErrorIs(t, err, ErrNoCandidates)
	assert.ErrorIs(t, err, physical.ErrUnsupportedOperator)
}

func TestSelectBest_Empty(t *testing.T) {
	_, err := SelectBest(nil, &byPredicate{}, Options{})
	assert.ErrorIs(t, err, ErrNoCandidates)

	_, err = SelectBest([]plan.Logical{scanOf(1)}, nil, Options{})
	assert.Error(t, err)
}

func TestSelectBest_EnumeratedPeople(t *testing.T) {
	people := testutil.PeopleDataset()
	query := plan.NewProjection(
		testutil.LeftDeep(people.NameScan(), people.AgeScan(), people.WorksAtScan()),
		"name", "company",
	)

	cands, err := enumerate.Enumerate(query)
	require.NoError(t, err)
	require.Len(t, cands, 3)

	est := cost.New(stats.Gather(people.Dataset), cost.DefaultWeights())
	res, err := SelectBest(cands, est, Options{})
	require.NoError(t, err)

	minCost := slices.Min(res.Costs)
	assert.Equal(t, minCost, res.Cost)
	assert.Equal(t, slices.Index(res.Costs, minCost), res.Index)

	want, err := physical.Convert(cands[res.Index])
	require.NoError(t, err)
	assert.True(t, physical.Equal(want, res.Plan))
}
