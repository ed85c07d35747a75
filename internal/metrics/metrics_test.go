package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveSelected(3, 63)
	m.ObserveSelected(18, 120)
	m.ObserveFailed()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.OptimizationsTotal.WithLabelValues(OutcomeSelected)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.OptimizationsTotal.WithLabelValues(OutcomeFailed)))
	assert.Equal(t, float64(120), testutil.ToFloat64(m.SelectedCost))

	count, err := testutil.GatherAndCount(reg, "tripleopt_candidates_considered")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	expected := `
# HELP tripleopt_selected_cost Estimated cost of the most recently selected plan.
# TYPE tripleopt_selected_cost gauge
tripleopt_selected_cost 120
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "tripleopt_selected_cost"))
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveSelected(1, 1)
		m.ObserveFailed()
	})
}

func TestMetrics_Unregistered(t *testing.T) {
	m := New(nil)
	m.ObserveSelected(1, 5)
	assert.Equal(t, float64(5), testutil.ToFloat64(m.SelectedCost))
}
