package harness

import (
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tripleopt/internal/metrics"
	"github.com/roach88/tripleopt/internal/optimizer"
)

func runScenario(t *testing.T, name string) *Result {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	result, err := Run(s)
	require.NoError(t, err)
	return result
}

func TestRun_Scenarios(t *testing.T) {
	for _, name := range []string{
		"people_filter",
		"sensors_reference",
		"sensors_distinct",
		"strict_bind",
		"opaque_unsupported",
		"opaque_skipped",
	} {
		t.Run(name, func(t *testing.T) {
			result := runScenario(t, name)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
		})
	}
}

func TestRun_Result(t *testing.T) {
	result := runScenario(t, "people_filter")

	assert.Equal(t, "people-session", result.Session)
	assert.Equal(t, 3, result.Candidates)
	assert.Zero(t, result.Skipped)
	assert.Positive(t, result.Cost)
	assert.Contains(t, result.Plan, "TableScan")
	assert.Len(t, result.Rows, 7)
	assert.Empty(t, result.ErrorCode)
}

func TestRun_DefaultSession(t *testing.T) {
	result := runScenario(t, "sensors_reference")
	assert.Equal(t, "test-session", result.Session)
}

func TestRun_ExpectedErrorRecorded(t *testing.T) {
	result := runScenario(t, "strict_bind")

	assert.Equal(t, "UNDECOMPOSABLE", result.ErrorCode)
	assert.Equal(t, "strict-session", result.Session)
	assert.Empty(t, result.Rows)
}

func TestRun_RecordsMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	for _, name := range []string{"people_filter", "opaque_skipped"} {
		s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
		require.NoError(t, err)
		result, err := Run(s, optimizer.WithMetrics(m))
		require.NoError(t, err)
		require.True(t, result.Pass, "%s: %v", name, result.Errors)
	}

	assert.Equal(t, float64(1), promtest.ToFloat64(m.OptimizationsTotal.WithLabelValues(metrics.OutcomeSelected)))
	assert.Equal(t, float64(1), promtest.ToFloat64(m.OptimizationsTotal.WithLabelValues(metrics.OutcomeFailed)))
}

func TestRun_WrongExpectedError(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/opaque_skipped.yaml")
	require.NoError(t, err)
	s.Expect.Error = "UNSUPPORTED_OPERATOR"

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "expected error UNSUPPORTED_OPERATOR, got NO_CANDIDATES", result.Errors[0])
}

func TestRun_UnexpectedSuccess(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/people_filter.yaml")
	require.NoError(t, err)
	s.Expect = &ExpectClause{Error: "NO_CANDIDATES"}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "optimization succeeded")
}

func TestRun_UnexpectedFailure(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/opaque_unsupported.yaml")
	require.NoError(t, err)
	s.Expect = nil

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "optimization failed")
}

func TestRun_FailingAssertions(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/people_filter.yaml")
	require.NoError(t, err)
	s.Assertions = []Assertion{
		{Type: AssertCandidateCount, Count: 4},
		{Type: AssertRowCount, Count: 7},
		{Type: AssertPlanContains, Text: "HashJoin"},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "Assertion failed: candidate_count")
	assert.Contains(t, result.Errors[0], "Expected: 4")
	assert.Contains(t, result.Errors[0], "Actual: 3")
	assert.Contains(t, result.Errors[1], "Assertion failed: plan_contains")
}

func TestRun_InputErrors(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/people_filter.yaml")
	require.NoError(t, err)

	missingData := *s
	missingData.Data = filepath.Join(t.TempDir(), "gone.nt")
	_, err = Run(&missingData)
	assert.ErrorContains(t, err, "failed to open data file")

	badPlan := *s
	badPlan.Plan = filepath.Join(t.TempDir(), "gone.yaml")
	_, err = Run(&badPlan)
	assert.ErrorContains(t, err, "failed to load plan")
}
