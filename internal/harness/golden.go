package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/tripleopt/internal/plan"
)

// Snapshot is the deterministic part of a scenario result. Costs and the
// selected plan depend on sketched statistics and are left out.
type Snapshot struct {
	ScenarioName string
	Session      string
	Candidates   int
	ErrorCode    string
	Rows         []string
}

// NewSnapshot captures result for scenario name.
func NewSnapshot(name string, result *Result) Snapshot {
	return Snapshot{
		ScenarioName: name,
		Session:      result.Session,
		Candidates:   result.Candidates,
		ErrorCode:    result.ErrorCode,
		Rows:         result.Rows,
	}
}

// toCanonicalMap converts a Snapshot to the value space plan.MarshalCanonical
// accepts.
func (s Snapshot) toCanonicalMap() map[string]any {
	rows := make([]any, len(s.Rows))
	for i, r := range s.Rows {
		rows[i] = r
	}
	m := map[string]any{
		"scenario_name": s.ScenarioName,
		"candidates":    s.Candidates,
		"row_count":     len(s.Rows),
		"rows":          rows,
	}
	if s.Session != "" {
		m["session"] = s.Session
	}
	if s.ErrorCode != "" {
		m["error_code"] = s.ErrorCode
	}
	return m
}

// MarshalCanonical renders the snapshot as canonical JSON.
func (s Snapshot) MarshalCanonical() ([]byte, error) {
	return plan.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := NewSnapshot(scenarioName, result).MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
