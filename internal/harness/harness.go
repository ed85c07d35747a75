package harness

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/tripleopt/internal/config"
	"github.com/roach88/tripleopt/internal/exec"
	"github.com/roach88/tripleopt/internal/optimizer"
	"github.com/roach88/tripleopt/internal/physical"
	"github.com/roach88/tripleopt/internal/plan"
	"github.com/roach88/tripleopt/internal/planfile"
	"github.com/roach88/tripleopt/internal/rdf"
	"github.com/roach88/tripleopt/internal/testutil"
)

// Harness runs one scenario with a fixed session id.
type Harness struct {
	dataset   *rdf.Dataset
	optimizer *optimizer.Optimizer
	logger    *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Parse the data file into a fresh dataset
// 2. Load the plan file against the dataset's dictionary
// 3. Optimize with the scenario's enumeration and selection settings
// 4. Check an expected failure, or execute the selected plan
// 5. Evaluate assertions
//
// An error is returned when the scenario's inputs cannot be read. Failed
// expectations are reported in the Result. opts are applied after the
// harness's own logger and session generator.
func Run(scenario *Scenario, opts ...optimizer.Option) (*Result, error) {
	ds, err := readData(scenario.Data)
	if err != nil {
		return nil, err
	}
	input, _, err := planfile.Load(scenario.Plan, ds.Dictionary)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	opt, err := optimizer.New(scenarioConfig(scenario), append([]optimizer.Option{
		optimizer.WithLogger(logger),
		optimizer.WithSessionIDGenerator(testutil.NewFixedSessionGenerator(scenario.Session)),
	}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create optimizer: %w", err)
	}
	h := &Harness{dataset: ds, optimizer: opt, logger: logger}

	return h.run(scenario, input), nil
}

func (h *Harness) run(scenario *Scenario, input plan.Logical) *Result {
	result := NewResult()

	res, err := h.optimizer.Optimize(input, h.dataset)
	if err != nil {
		oe, ok := optimizer.AsError(err)
		if !ok {
			result.AddError(fmt.Sprintf("optimization failed: %v", err))
			return result
		}
		result.ErrorCode = string(oe.Code)
		result.Session = oe.Session
		switch {
		case scenario.Expect == nil:
			result.AddError(fmt.Sprintf("optimization failed: %v", err))
		case scenario.Expect.Error != result.ErrorCode:
			result.AddError(fmt.Sprintf("expected error %s, got %s", scenario.Expect.Error, result.ErrorCode))
		}
		return result
	}

	result.Session = res.Session
	result.Candidates = res.Candidates
	result.Skipped = res.Skipped
	result.Cost = res.Cost
	result.Plan = physical.Explain(res.Plan, h.dataset.Dictionary)

	if scenario.Expect != nil {
		result.AddError(fmt.Sprintf("expected error %s, optimization succeeded", scenario.Expect.Error))
		return result
	}

	rows, err := exec.Execute(res.Plan, h.dataset)
	if err != nil {
		result.AddError(fmt.Sprintf("execution failed: %v", err))
		return result
	}
	result.Rows = exec.Canonical(rows, h.dataset.Dictionary)

	h.logger.Info("scenario optimized",
		"scenario", scenario.Name,
		"candidates", res.Candidates,
		"cost", res.Cost,
		"rows", len(rows),
	)

	actx := &AssertionContext{
		Dataset:   h.dataset,
		Input:     input,
		Selected:  res.Plan,
		Optimizer: h.optimizer,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	return result
}

// scenarioConfig overlays the scenario's settings on the defaults.
func scenarioConfig(s *Scenario) config.Config {
	cfg := config.Default()
	if s.Mode != "" {
		cfg.Enumeration.Mode = s.Mode
	}
	cfg.Enumeration.Strict = s.Strict
	cfg.Selection.SkipUnsupported = s.SkipUnsupported
	return cfg
}

func readData(path string) (*rdf.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()

	ds := rdf.NewDataset()
	if _, err := rdf.ParseNTriples(f, ds); err != nil {
		return nil, fmt.Errorf("failed to parse data file: %w", err)
	}
	return ds, nil
}
