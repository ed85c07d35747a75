package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tripleopt/internal/metrics"
	"github.com/roach88/tripleopt/internal/optimizer"
	"github.com/roach88/tripleopt/internal/physical"
	"github.com/roach88/tripleopt/internal/plan"
)

// OptimizeOptions holds flags for the optimize command.
type OptimizeOptions struct {
	*RootOptions
	Source  SourceOptions
	Metrics MetricsOptions
}

// OptimizeResult is the output of the optimize command.
type OptimizeResult struct {
	Name        string   `json:"name,omitempty"`
	Session     string   `json:"session"`
	Candidates  int      `json:"candidates"`
	Skipped     int      `json:"skipped,omitempty"`
	Cost        uint64   `json:"cost"`
	Plan        string   `json:"plan"`
	Fingerprint string   `json:"fingerprint"`
	Warnings    []string `json:"warnings,omitempty"`
}

// Text renders the result for text output.
func (r OptimizeResult) Text() string {
	var b strings.Builder
	if r.Name != "" {
		fmt.Fprintf(&b, "Plan: %s\n", r.Name)
	}
	fmt.Fprintf(&b, "Session: %s\n", r.Session)
	fmt.Fprintf(&b, "Candidates: %d", r.Candidates)
	if r.Skipped > 0 {
		fmt.Fprintf(&b, " (%d skipped)", r.Skipped)
	}
	fmt.Fprintf(&b, "\nCost: %d\n", r.Cost)
	writeWarnings(&b, r.Warnings)
	fmt.Fprintf(&b, "Selected:\n%s", r.Plan)
	return b.String()
}

// NewOptimizeCommand creates the optimize command.
func NewOptimizeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OptimizeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "optimize <plan.yaml>",
		Short: "Select the cheapest physical plan",
		Long: `Optimize a plan file against a dataset.

Filters are pushed down, every join order is enumerated, and each
candidate is priced with statistics from the dataset. The cheapest
physical plan is printed; ties keep the earliest candidate.

Example:
  tripleopt optimize --data ./data/sensors.nt ./plans/sensors.yaml
  tripleopt optimize --db ./sensors.db --config ./tripleopt.cue ./plans/sensors.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptimize(opts, args[0], cmd)
		},
	}

	opts.Source.register(cmd)
	opts.Metrics.register(cmd)

	return cmd
}

func runOptimize(opts *OptimizeOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	defer flushMetrics(&opts.Metrics, cmd)

	run, err := optimizePlanFile(cmd.Context(), opts.RootOptions, &opts.Source, opts.Metrics.collectors(), path, formatter)
	if err != nil {
		return err
	}

	fp, err := physical.Fingerprint(run.Result.Plan)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeFailure, "failed to fingerprint plan", err)
	}
	return formatter.SuccessWithSession(OptimizeResult{
		Name:        run.Name,
		Session:     run.Result.Session,
		Candidates:  run.Result.Candidates,
		Skipped:     run.Result.Skipped,
		Cost:        run.Result.Cost,
		Plan:        physical.Explain(run.Result.Plan, run.Source.Dataset.Dictionary),
		Fingerprint: fp,
		Warnings:    run.Warnings,
	}, run.Result.Session)
}

// optimization is one optimized plan file with the data it ran against.
type optimization struct {
	Name     string
	Source   *source
	Result   *optimizer.Result
	Warnings []string // join core problems of the rewritten plan
}

// optimizePlanFile loads the config, the dataset and the plan file, in
// that order, and optimizes the plan. Failures are already reported on
// formatter when it returns an error.
func optimizePlanFile(ctx context.Context, opts *RootOptions, src *SourceOptions, m *metrics.Metrics, path string, formatter *OutputFormatter) (*optimization, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeCommand, "failed to load config", err)
	}
	o, err := newOptimizer(cfg, m)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeCommand, "invalid configuration", err)
	}

	data, err := src.load(ctx)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeCommand, "failed to load dataset", err)
	}
	formatter.VerboseLog("Loaded %d triples from %s", len(data.Dataset.Triples), data.Origin)

	// Plan constants share the dataset's dictionary so their ids line up
	// with the statistics.
	l, name, err := loadPlan(path, data.Dataset.Dictionary)
	if err != nil {
		return nil, formatter.Fail(ExitCommandError, ErrCodeCommand, "failed to load plan", err)
	}

	warnings := plan.Validate(o.Rewrite(l)).Warnings
	for _, w := range warnings {
		formatter.VerboseLog("Warning: %s", w)
	}

	res, err := o.OptimizeWithStats(l, data.Stats)
	if err != nil {
		return nil, reportOptimizerError(formatter, err)
	}
	return &optimization{Name: name, Source: data, Result: res, Warnings: warnings}, nil
}

// writeWarnings lists plan validation warnings, one per line.
func writeWarnings(b *strings.Builder, warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(b, "Warning: %s\n", w)
	}
}
