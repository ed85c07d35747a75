package stats

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tripleopt/internal/rdf"
	"github.com/roach88/tripleopt/internal/testutil"
)

func TestGather_People(t *testing.T) {
	people := testutil.PeopleDataset()
	s := Gather(people.Dataset)

	assert.Equal(t, uint64(15), s.TotalTriples)
	assert.Equal(t, uint64(3), s.DistinctPredicates)
	assert.Equal(t, []rdf.ID{people.Name, people.Age, people.WorksAt}, s.PredicateIDs())

	age, ok := s.Predicate(people.Age)
	require.True(t, ok)
	assert.Equal(t, uint64(9), age.Count)
	assert.LessOrEqual(t, age.DistinctSubjects, age.Count)
	assert.InDelta(t, 3, float64(age.DistinctSubjects), 1)
	assert.InDelta(t, 9, float64(age.DistinctObjects), 1)

	works, ok := s.Predicate(people.WorksAt)
	require.True(t, ok)
	assert.Equal(t, uint64(3), works.Count)
	assert.InDelta(t, 2, float64(works.DistinctObjects), 1)

	_, ok = s.Predicate(rdf.ID(999))
	assert.False(t, ok)
}

func TestGather_Empty(t *testing.T) {
	s := Gather(rdf.NewDataset())
	assert.Zero(t, s.TotalTriples)
	assert.Zero(t, s.DistinctSubjects)
	assert.Empty(t, s.Predicates)
}

func TestGather_DistinctEstimateWithinBounds(t *testing.T) {
	ds := rdf.NewDataset()
	for i := 0; i < 2000; i++ {
		ds.Add(fmt.Sprintf("s%d", i%500), "p", fmt.Sprintf("o%d", i))
	}

	s := Gather(ds)
	p, _ := ds.Dictionary.Lookup("p")
	ps, ok := s.Predicate(p)
	require.True(t, ok)

	assert.Equal(t, uint64(2000), ps.Count)
	assert.InEpsilon(t, 500, float64(ps.DistinctSubjects), 0.05)
	assert.InEpsilon(t, 2000, float64(ps.DistinctObjects), 0.05)
	assert.LessOrEqual(t, ps.DistinctObjects, ps.Count)
}

func TestGather_Deterministic(t *testing.T) {
	a := Gather(testutil.SensorsDataset().Dataset)
	b := Gather(testutil.SensorsDataset().Dataset)
	assert.Equal(t, a, b)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, uint64(0), clamp(5, 0))
	assert.Equal(t, uint64(1), clamp(0, 3))
	assert.Equal(t, uint64(3), clamp(7, 3))
	assert.Equal(t, uint64(2), clamp(2, 3))
}
