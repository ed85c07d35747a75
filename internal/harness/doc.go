// Package harness runs optimizer scenarios as executable contract tests.
//
// A scenario names an N-Triples data file and a YAML plan file, runs the
// optimizer over them with a fixed session id, executes the selected
// physical plan and checks the outcome with assertions.
//
// # Scenario Format
//
// Scenarios are YAML files. Paths are relative to the scenario file:
//
//	name: people_filter
//	description: "Selected plan keeps the filter semantics"
//	data: people.nt
//	plan: people_plan.yaml
//	mode: distinct            # optional, reference or distinct
//	strict: false             # optional
//	skip_unsupported: true    # optional
//	session: people-session   # optional fixed session id
//	expect:
//	  error: UNDECOMPOSABLE   # optional, the optimizer error code
//	assertions:
//	  - type: candidate_count
//	    count: 3
//	  - type: rows_contain
//	    rows: ["?company=http://example.org/company ?name=Charlie"]
//
// # Assertion Types
//
//   - candidate_count: the number of enumerated candidates
//   - skipped_count: the number of candidates dropped as unsupported
//   - selected_cost: the cost of the selected plan
//   - row_count: the number of rows the selected plan returns
//   - rows_contain: the selected plan returns every listed row
//   - plan_contains: the explained physical plan contains text
//   - leaf_count: the number of table scans in the selected plan
//   - equivalent: the selected plan returns the same rows as the input plan
//   - all_candidates_equivalent: every convertible candidate does too
//
// Rows are written in exec.Canonical form.
//
// # Deterministic Testing
//
// Every run uses testutil.FixedSessionGenerator, so the session id in a
// result only depends on the scenario. RunWithGolden snapshots the
// deterministic part of a result in canonical JSON.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/people.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
