package harness

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when the run matched the expect clause and every
	// assertion held.
	Pass bool `json:"pass"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	Session    string `json:"session,omitempty"`
	Candidates int    `json:"candidates"`
	Skipped    int    `json:"skipped"`
	Cost       uint64 `json:"cost"`

	// ErrorCode is the optimizer error code when optimization failed.
	ErrorCode string `json:"error_code,omitempty"`

	// Plan is the explained physical plan.
	Plan string `json:"plan,omitempty"`

	// Rows are the selected plan's results in exec.Canonical form.
	Rows []string `json:"rows,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
