package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/roach88/tripleopt/internal/metrics"
)

// MetricsOptions holds the --metrics flag of commands that optimize.
type MetricsOptions struct {
	Enabled bool

	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

func (m *MetricsOptions) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&m.Enabled, "metrics", false, "print optimizer metrics in Prometheus text format to stderr")
}

// collectors returns the command's optimizer metrics, registered on a
// private registry on first use. It is nil without --metrics.
func (m *MetricsOptions) collectors() *metrics.Metrics {
	if !m.Enabled {
		return nil
	}
	if m.metrics == nil {
		m.registry = prometheus.NewRegistry()
		m.metrics = metrics.New(m.registry)
	}
	return m.metrics
}

// write prints every gathered family to w. Stderr keeps JSON output on
// stdout parseable.
func (m *MetricsOptions) write(w io.Writer) error {
	if !m.Enabled {
		return nil
	}
	m.collectors()
	mfs, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

// flushMetrics writes the metrics after a command ran, whether it
// succeeded or not. A write failure is logged, never returned.
func flushMetrics(m *MetricsOptions, cmd *cobra.Command) {
	if err := m.write(cmd.ErrOrStderr()); err != nil {
		slog.Warn("failed to write metrics", "error", err)
	}
}
