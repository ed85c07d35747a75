package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tripleopt/internal/enumerate"
	"github.com/roach88/tripleopt/internal/optimizer"
)

// Scenario defines an optimizer test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Data is the N-Triples file the plan runs over.
	Data string `yaml:"data"`

	// Plan is the YAML plan file to optimize.
	Plan string `yaml:"plan"`

	// Mode overrides the enumeration mode ("reference" or "distinct").
	Mode string `yaml:"mode,omitempty"`

	// Strict makes enumeration fail on nodes it cannot decompose.
	Strict bool `yaml:"strict,omitempty"`

	// SkipUnsupported drops candidates with no physical form instead of
	// failing the run.
	SkipUnsupported bool `yaml:"skip_unsupported,omitempty"`

	// Session is the fixed session id. Defaults to "test-session".
	Session string `yaml:"session,omitempty"`

	// Expect declares an expected optimizer failure. If nil the run must
	// succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`

	// Assertions validate a successful run.
	Assertions []Assertion `yaml:"assertions"`
}

// ExpectClause specifies expected failure behavior.
type ExpectClause struct {
	// Error is the expected optimizer error code, e.g. "UNDECOMPOSABLE".
	Error string `yaml:"error"`
}

// Assertion validates a scenario result.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Count is used by candidate_count, skipped_count, row_count and
	// leaf_count.
	Count int `yaml:"count,omitempty"`

	// Cost is used by selected_cost.
	Cost uint64 `yaml:"cost,omitempty"`

	// Text is used by plan_contains.
	Text string `yaml:"text,omitempty"`

	// Rows is used by rows_contain.
	Rows []string `yaml:"rows,omitempty"`
}

// Assertion type constants.
const (
	AssertCandidateCount          = "candidate_count"
	AssertSkippedCount            = "skipped_count"
	AssertSelectedCost            = "selected_cost"
	AssertRowCount                = "row_count"
	AssertRowsContain             = "rows_contain"
	AssertPlanContains            = "plan_contains"
	AssertLeafCount               = "leaf_count"
	AssertEquivalent              = "equivalent"
	AssertAllCandidatesEquivalent = "all_candidates_equivalent"
)

var errorCodes = []optimizer.ErrorCode{
	optimizer.ErrCodeInvalidInput,
	optimizer.ErrCodeUnsupportedOperator,
	optimizer.ErrCodeUndecomposable,
	optimizer.ErrCodeNoCandidates,
}

// LoadScenario reads and parses a scenario YAML file. Data and plan paths
// are resolved relative to the scenario file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	scenario.Data = resolve(base, scenario.Data)
	scenario.Plan = resolve(base, scenario.Plan)

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Data == "" {
		return fmt.Errorf("data is required")
	}
	if s.Plan == "" {
		return fmt.Errorf("plan is required")
	}
	for _, path := range []string{s.Data, s.Plan} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", path)
		}
	}
	if s.Mode != "" {
		if _, err := enumerate.ParseMode(s.Mode); err != nil {
			return err
		}
	}

	if s.Expect != nil {
		if !validErrorCode(s.Expect.Error) {
			return fmt.Errorf("expect: unknown error code %q", s.Expect.Error)
		}
		if len(s.Assertions) > 0 {
			return fmt.Errorf("assertions cannot be combined with an expected error")
		}
		return nil
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validErrorCode(code string) bool {
	for _, c := range errorCodes {
		if string(c) == code {
			return true
		}
	}
	return false
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCandidateCount, AssertSkippedCount, AssertRowCount, AssertLeafCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertSelectedCost:
	case AssertPlanContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for plan_contains", index)
		}
	case AssertRowsContain:
		if len(a.Rows) == 0 {
			return fmt.Errorf("assertions[%d]: rows list is required for rows_contain", index)
		}
	case AssertEquivalent, AssertAllCandidatesEquivalent:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
