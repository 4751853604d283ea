package harness

// CaseResult is the outcome of one case.
type CaseResult struct {
	Name string `json:"name"`
	Pass bool   `json:"pass"`

	// SQL is the filled statement, empty if compiling or filling failed.
	SQL string `json:"sql,omitempty"`

	// Error is the error kind observed, if any.
	Error string `json:"error,omitempty"`

	// Rows is the number of rows returned or affected, set when executed.
	Rows *int64 `json:"rows,omitempty"`

	// Failures lists every check that did not hold.
	Failures []string `json:"failures,omitempty"`
}

// Fail records a failed check.
func (c *CaseResult) Fail(msg string) {
	c.Failures = append(c.Failures, msg)
	c.Pass = false
}

// Result is the outcome of running a suite.
type Result struct {
	Suite string `json:"suite"`
	RunID string `json:"run_id"`

	// Pass is true if every case passed.
	Pass bool `json:"pass"`

	Passed int `json:"passed"`
	Failed int `json:"failed"`

	// Cases holds per-case outcomes in suite order.
	Cases []CaseResult `json:"cases"`
}

// NewResult creates a new passing result.
// Used as the starting point for suite execution.
func NewResult(suite, runID string) *Result {
	return &Result{
		Suite: suite,
		RunID: runID,
		Pass:  true,
		Cases: []CaseResult{},
	}
}

// AddCase appends a case outcome and updates the totals.
func (r *Result) AddCase(c CaseResult) {
	r.Cases = append(r.Cases, c)
	if c.Pass {
		r.Passed++
		return
	}
	r.Failed++
	r.Pass = false
}
