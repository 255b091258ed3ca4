package models

import "time"

// CheckResult is the outcome of one named validation rule.
type CheckResult struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Reason   string `json:"reason,omitempty"`
	Observed string `json:"observed,omitempty"`
	Expected string `json:"expected,omitempty"`

	// Value carries the check's headline number (violations, rows, divergence)
	// for metric export. It can be +Inf, so it stays out of JSON.
	Value float64 `json:"-"`
}

// ValidationReport is the full result of one validation run.
type ValidationReport struct {
	RunID     string        `json:"run_id"`
	Current   string        `json:"current"`
	Reference string        `json:"reference"`
	Results   []CheckResult `json:"results"`
	Passed    bool          `json:"passed"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
}

// Failed returns the failing results in report order.
func (r *ValidationReport) Failed() []CheckResult {
	var out []CheckResult
	for _, c := range r.Results {
		if !c.Passed {
			out = append(out, c)
		}
	}
	return out
}

// Result looks a check up by name.
func (r *ValidationReport) Result(name string) (CheckResult, bool) {
	for _, c := range r.Results {
		if c.Name == name {
			return c, true
		}
	}
	return CheckResult{}, false
}
