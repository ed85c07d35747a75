package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tripleopt/internal/rdf"
	"github.com/roach88/tripleopt/internal/testutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	people := testutil.PeopleDataset()

	require.NoError(t, s.Save(ctx, people.Dataset))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, people.Dataset.Triples, loaded.Triples)
	assert.Equal(t, people.Dataset.Dictionary.Len(), loaded.Dictionary.Len())
	for id := 1; id <= loaded.Dictionary.Len(); id++ {
		want, _ := people.Dataset.Dictionary.Decode(rdf.ID(id))
		got, ok := loaded.Dictionary.Decode(rdf.ID(id))
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

func TestSave_Replaces(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.Save(ctx, testutil.SensorsDataset().Dataset))

	small := rdf.NewDataset()
	small.Add("a", "p", "b")
	require.NoError(t, s.Save(ctx, small))

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded.Triples, 1)
	assert.Equal(t, 3, loaded.Dictionary.Len())
}

func TestLoad_Empty(t *testing.T) {
	loaded, err := openTestStore(t).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded.Triples)
	assert.Zero(t, loaded.Dictionary.Len())
}

func TestStats_Exact(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	people := testutil.PeopleDataset()
	require.NoError(t, s.Save(ctx, people.Dataset))

	st, err := s.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, uint64(15), st.TotalTriples)
	assert.Equal(t, uint64(3), st.DistinctSubjects)
	assert.Equal(t, uint64(3), st.DistinctPredicates)
	// 3 names, 9 ages, 2 companies
	assert.Equal(t, uint64(14), st.DistinctObjects)

	age, ok := st.Predicate(people.Age)
	require.True(t, ok)
	assert.Equal(t, uint64(9), age.Count)
	assert.Equal(t, uint64(3), age.DistinctSubjects)
	assert.Equal(t, uint64(9), age.DistinctObjects)

	works, ok := st.Predicate(people.WorksAt)
	require.True(t, ok)
	assert.Equal(t, uint64(3), works.Count)
	assert.Equal(t, uint64(2), works.DistinctObjects)
}

func TestStats_Empty(t *testing.T) {
	st, err := openTestStore(t).Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.TotalTriples)
	assert.Empty(t, st.Predicates)
}
