package enumerate

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tripleopt/internal/exec"
	"github.com/roach88/tripleopt/internal/physical"
	"github.com/roach88/tripleopt/internal/plan"
	"github.com/roach88/tripleopt/internal/rdf"
	"github.com/roach88/tripleopt/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCounts(t *testing.T) {
	assert.Equal(t, []uint64{1, 1, 3, 18, 180, 2700}, []uint64{
		MergeSequenceCount(1), MergeSequenceCount(2), MergeSequenceCount(3),
		MergeSequenceCount(4), MergeSequenceCount(5), MergeSequenceCount(6),
	})
	assert.Equal(t, []uint64{1, 1, 3, 15, 105, 945}, []uint64{
		BushyTreeCount(1), BushyTreeCount(2), BushyTreeCount(3),
		BushyTreeCount(4), BushyTreeCount(5), BushyTreeCount(6),
	})
	assert.Equal(t, uint64(56700), MergeSequenceCount(DefaultMaxLeaves))
	assert.Equal(t, uint64(0), MergeSequenceCount(0))
	assert.Equal(t, ^uint64(0), MergeSequenceCount(40))
}

func TestGenerateAllPlans_Empty(t *testing.T) {
	_, err := GenerateAllPlans(nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestGenerateAllPlans_ReferenceOrder(t *testing.T) {
	scans := testutil.StarScans(rdf.NewDictionary(), 3)
	a, b, c := scans[0], scans[1], scans[2]

	got, err := GenerateAllPlans(scans)
	require.NoError(t, err)

	want := []plan.Logical{
		plan.NewJoin(plan.NewJoin(b, a), c),
		plan.NewJoin(plan.NewJoin(c, a), b),
		plan.NewJoin(plan.NewJoin(c, b), a),
	}
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, plan.Equal(want[i], got[i]), "candidate %d:\n%s", i, plan.Explain(got[i], nil))
	}
}

func TestGenerateAllPlans_IndependentTrees(t *testing.T) {
	scans := testutil.StarScans(rdf.NewDictionary(), 3)

	got, err := GenerateAllPlans(scans)
	require.NoError(t, err)

	// Mutating one candidate must not leak into another or into the input.
	first := got[0].(*plan.Join)
	first.Right.(*plan.Scan).Pattern.Subject = rdf.Var("mutated")

	for _, other := range got[1:] {
		assert.NotContains(t, plan.SortedVariables(other), "mutated")
	}
	for _, s := range scans {
		assert.NotContains(t, plan.SortedVariables(s), "mutated")
	}
}

func TestEnumerate_CandidateCounts(t *testing.T) {
	for n := 1; n <= 6; n++ {
		scans := testutil.StarScans(rdf.NewDictionary(), n)
		input := testutil.LeftDeep(scans...)

		ref := &Enumerator{Mode: ModeReference, Logger: quietLogger()}
		got, err := ref.Enumerate(input)
		require.NoError(t, err)
		assert.Len(t, got, int(MergeSequenceCount(n)), "reference n=%d", n)

		dis := &Enumerator{Mode: ModeDistinct, Logger: quietLogger()}
		got, err = dis.Enumerate(input)
		require.NoError(t, err)
		assert.Len(t, got, int(BushyTreeCount(n)), "distinct n=%d", n)
	}
}

// The reference traversal is checked against an independent enumerator of
// unordered join trees: both modes must cover exactly the same shapes.
func TestEnumerate_CoversEveryBushyTree(t *testing.T) {
	for n := 1; n <= 5; n++ {
		scans := testutil.StarScans(rdf.NewDictionary(), n)
		input := testutil.LeftDeep(scans...)

		expected := shapeSet(t, allTrees(scans))
		require.Len(t, expected, int(BushyTreeCount(n)))

		for _, mode := range []Mode{ModeReference, ModeDistinct} {
			e := &Enumerator{Mode: mode, Logger: quietLogger()}
			got, err := e.Enumerate(input)
			require.NoError(t, err)
			assert.Equal(t, expected, shapeSet(t, got), "mode=%s n=%d", mode, n)
		}
	}
}

func TestEnumerate_DistinctKeepsFirstSeen(t *testing.T) {
	scans := testutil.StarScans(rdf.NewDictionary(), 4)
	input := testutil.LeftDeep(scans...)

	ref, err := (&Enumerator{Logger: quietLogger()}).Enumerate(input)
	require.NoError(t, err)
	dis, err := (&Enumerator{Mode: ModeDistinct, Logger: quietLogger()}).Enumerate(input)
	require.NoError(t, err)

	// Each distinct candidate is the earliest reference candidate of its shape.
	firstIndex := map[string]int{}
	for i, c := range ref {
		fp, err := plan.ShapeFingerprint(c)
		require.NoError(t, err)
		if _, ok := firstIndex[fp]; !ok {
			firstIndex[fp] = i
		}
	}
	prev := -1
	for _, c := range dis {
		fp, err := plan.ShapeFingerprint(c)
		require.NoError(t, err)
		idx := firstIndex[fp]
		assert.True(t, plan.Equal(ref[idx], c))
		assert.Greater(t, idx, prev, "distinct order follows reference order")
		prev = idx
	}
}

func TestEnumerate_ThreeScanStar(t *testing.T) {
	scans := testutil.StarScans(rdf.NewDictionary(), 3)
	input := plan.NewJoin(plan.NewJoin(scans[0], scans[1]), scans[2])

	got, err := Enumerate(input)
	require.NoError(t, err)
	assert.Greater(t, len(got), 1)

	want := leafSet(t, input)
	for i, c := range got {
		assert.Equal(t, want, leafSet(t, c), "candidate %d", i)
	}
}

func TestEnumerate_LeafCountInvariant(t *testing.T) {
	people := testutil.PeopleDataset()
	cond := plan.NewCondition("age", plan.OpGt, "30")
	input := plan.NewProjection(
		plan.NewJoin(
			plan.NewJoin(people.NameScan(), plan.NewSelection(people.AgeScan(), cond)),
			people.WorksAtScan(),
		),
		"name",
	)

	got, err := Enumerate(input)
	require.NoError(t, err)
	require.Len(t, got, 3)

	want := leafSet(t, input)
	require.Len(t, want, 3)
	for _, c := range got {
		assert.Equal(t, want, leafSet(t, c))
	}
}

func TestEnumerate_SingleLeaf(t *testing.T) {
	people := testutil.PeopleDataset()
	input := plan.NewProjection(
		plan.NewSelection(people.AgeScan(), plan.NewCondition("age", plan.OpGt, "25")),
		"person",
	)

	got, err := Enumerate(input)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, plan.Equal(input, got[0]))
	assert.NotSame(t, input, got[0])
}

func TestEnumerate_PreservesOuterShape(t *testing.T) {
	scans := testutil.StarScans(rdf.NewDictionary(), 3)
	input := plan.NewProjection(
		plan.NewSelection(
			plan.NewSelection(testutil.LeftDeep(scans...), plan.NewCondition("o1", plan.OpEq, "x")),
			plan.NewCondition("o2", plan.OpNe, "y"),
		),
		"s", "o3",
	)
	_, wantOps := StripTopLevelOps(input)
	require.Len(t, wantOps, 3)

	got, err := Enumerate(input)
	require.NoError(t, err)
	for _, c := range got {
		_, ops := StripTopLevelOps(c)
		require.Len(t, ops, len(wantOps))
		for i := range ops {
			assert.Equal(t, wantOps[i].Kind, ops[i].Kind)
			assert.Equal(t, wantOps[i].Variables, ops[i].Variables)
			assert.True(t, plan.ConditionEqual(wantOps[i].Condition, ops[i].Condition))
		}
	}
}

func TestStripAndApplyTopLevelOps_RoundTrip(t *testing.T) {
	scans := testutil.StarScans(rdf.NewDictionary(), 2)
	input := plan.NewSelection(
		plan.NewProjection(plan.NewJoin(scans[0], scans[1]), "s"),
		plan.NewCondition("s", plan.OpEq, "z"),
	)

	core, ops := StripTopLevelOps(input)
	assert.Equal(t, plan.KindJoin, plan.Kind(core))
	require.Len(t, ops, 2)
	assert.Equal(t, OpSelection, ops[0].Kind)
	assert.Equal(t, OpProjection, ops[1].Kind)

	assert.True(t, plan.Equal(input, ApplyTopLevelOps(core, ops)))
}

func TestEnumerate_Deterministic(t *testing.T) {
	scans := testutil.StarScans(rdf.NewDictionary(), 4)
	input := testutil.LeftDeep(scans...)

	first, err := Enumerate(input)
	require.NoError(t, err)
	second, err := Enumerate(input)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		a, err := plan.Fingerprint(first[i])
		require.NoError(t, err)
		b, err := plan.Fingerprint(second[i])
		require.NoError(t, err)
		assert.Equal(t, a, b, "candidate %d", i)
	}
}

func TestEnumerate_HoistsSelectionOverInnerJoin(t *testing.T) {
	people := testutil.PeopleDataset()
	cross := plan.Condition{Expression: &plan.Or{
		Left:  &plan.Comparison{Variable: "name", Operator: plan.OpEq, Value: "Charlie"},
		Right: &plan.Comparison{Variable: "age", Operator: plan.OpLt, Value: "30"},
	}}
	input := plan.NewJoin(
		plan.NewSelection(plan.NewJoin(people.NameScan(), people.AgeScan()), cross),
		people.WorksAtScan(),
	)

	got, err := (&Enumerator{Logger: quietLogger()}).Enumerate(input)
	require.NoError(t, err)
	require.Len(t, got, 3)

	for _, c := range got {
		sel, ok := c.(*plan.Selection)
		require.True(t, ok, "hoisted selection wraps the core")
		assert.True(t, plan.ConditionEqual(cross, sel.Condition))
	}
	assertEquivalent(t, people.Dataset, input, got)
}

func TestEnumerate_Equivalence(t *testing.T) {
	people := testutil.PeopleDataset()
	input := plan.NewProjection(
		plan.NewSelection(
			plan.NewJoin(
				plan.NewJoin(people.NameScan(), people.AgeScan()),
				people.WorksAtScan(),
			),
			plan.NewCondition("company", plan.OpEq, "http://example.org/company"),
		),
		"name", "age",
	)

	got, err := Enumerate(input)
	require.NoError(t, err)
	assertEquivalent(t, people.Dataset, input, got)
}

func TestEnumerate_SensorsEquivalence(t *testing.T) {
	sensors := testutil.SensorsDataset()
	input := sensors.Plan()

	got, err := (&Enumerator{Mode: ModeDistinct, Logger: quietLogger()}).Enumerate(input)
	require.NoError(t, err)
	assert.Len(t, got, int(BushyTreeCount(5)))

	rows := assertEquivalent(t, sensors.Dataset, input, got)
	assert.Len(t, rows, 7)
}

func TestEnumerate_LenientSkipsOpaqueNodes(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	people := testutil.PeopleDataset()
	values := &plan.Values{Variables: []string{"person"}, Rows: [][]rdf.ID{{1}}}
	input := plan.NewJoin(people.NameScan(), values)

	got, err := (&Enumerator{Logger: logger}).Enumerate(input)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, plan.Equal(people.NameScan(), got[0]))
	assert.Contains(t, buf.String(), "cannot decompose operator")
	assert.Contains(t, buf.String(), "kind=Values")
}

func TestEnumerate_StrictRejectsOpaqueNodes(t *testing.T) {
	people := testutil.PeopleDataset()
	input := plan.NewJoin(people.NameScan(), &plan.Buffer{Name: "w", Capacity: 4})

	_, err := (&Enumerator{Strict: true, Logger: quietLogger()}).Enumerate(input)
	var uerr *UndecomposableError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, plan.KindBuffer, uerr.Kind)
}

func TestEnumerate_OpaqueRoot(t *testing.T) {
	people := testutil.PeopleDataset()
	input := plan.NewProjection(
		&plan.Subquery{Inner: plan.NewJoin(people.NameScan(), people.AgeScan()), ProjectedVars: []string{"name"}},
		"name",
	)

	got, err := (&Enumerator{Strict: true, Logger: quietLogger()}).Enumerate(input)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, plan.Equal(input, got[0]))
}

func TestEnumerate_EmptyCore(t *testing.T) {
	input := plan.NewJoin(&plan.Values{Variables: []string{"x"}}, &plan.Buffer{Name: "w"})

	_, err := (&Enumerator{Logger: quietLogger()}).Enumerate(input)
	assert.True(t, errors.Is(err, ErrEmptyInput))

	_, err = Enumerate(nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestEnumerate_MaxLeaves(t *testing.T) {
	scans := testutil.StarScans(rdf.NewDictionary(), 4)

	_, err := (&Enumerator{MaxLeaves: 3, Logger: quietLogger()}).Enumerate(testutil.LeftDeep(scans...))
	var tooMany *TooManyLeavesError
	require.ErrorAs(t, err, &tooMany)
	assert.Equal(t, 4, tooMany.Leaves)
	assert.Equal(t, 3, tooMany.Max)
	assert.Contains(t, err.Error(), "18 candidates")
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeReference, m)

	m, err = ParseMode("distinct")
	require.NoError(t, err)
	assert.Equal(t, ModeDistinct, m)

	_, err = ParseMode("greedy")
	assert.Error(t, err)
}

// allTrees builds every unordered join tree over leaves exactly once by
// splitting the set into the part holding leaves[0] and the rest.
func allTrees(leaves []plan.Logical) []plan.Logical {
	if len(leaves) == 1 {
		return []plan.Logical{leaves[0]}
	}
	first, rest := leaves[0], leaves[1:]
	var out []plan.Logical
	for mask := 0; mask < 1<<len(rest)-1; mask++ {
		left := []plan.Logical{first}
		var right []plan.Logical
		for i, l := range rest {
			if mask&(1<<i) != 0 {
				left = append(left, l)
			} else {
				right = append(right, l)
			}
		}
		for _, lt := range allTrees(left) {
			for _, rt := range allTrees(right) {
				out = append(out, plan.NewJoin(lt, rt))
			}
		}
	}
	return out
}

func shapeSet(t *testing.T, plans []plan.Logical) map[string]bool {
	t.Helper()
	set := make(map[string]bool, len(plans))
	for _, p := range plans {
		fp, err := plan.ShapeFingerprint(p)
		require.NoError(t, err)
		set[fp] = true
	}
	return set
}

// leafSet returns the fingerprints of the join leaves of p's core.
func leafSet(t *testing.T, p plan.Logical) map[string]int {
	t.Helper()
	core, _ := StripTopLevelOps(p)
	leaves, err := FindAllScans(core, true, quietLogger())
	require.NoError(t, err)

	set := make(map[string]int)
	for _, l := range leaves.Operators {
		fp, err := plan.Fingerprint(l)
		require.NoError(t, err)
		set[fp]++
	}
	return set
}

func assertEquivalent(t *testing.T, ds *rdf.Dataset, original plan.Logical, candidates []plan.Logical) []string {
	t.Helper()
	want := run(t, ds, original)
	for i, c := range candidates {
		assert.Equal(t, want, run(t, ds, c), "candidate %d:\n%s", i, plan.Explain(c, ds.Dictionary))
	}
	return want
}

func run(t *testing.T, ds *rdf.Dataset, l plan.Logical) []string {
	t.Helper()
	p, err := physical.Convert(l)
	require.NoError(t, err)
	rows, err := exec.Execute(p, ds)
	require.NoError(t, err)
	return exec.Canonical(rows, ds.Dictionary)
}
