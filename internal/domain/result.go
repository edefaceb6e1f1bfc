package domain

import "time"

// Outcome is the terminal status of one test in one run
type Outcome string

const (
	OutcomePassed  Outcome = "passed"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// Diagnostic is a failure message anchored at a source range
type Diagnostic struct {
	Message  string      `json:"message"`
	Range    SourceRange `json:"range"`
	Expected *string     `json:"expected,omitempty"`
	Actual   *string     `json:"actual,omitempty"`
	Diff     string      `json:"diff,omitempty"`
}

// IsValueDiff reports whether the diagnostic compares an actual and expected value
func (d Diagnostic) IsValueDiff() bool {
	return d.Actual != nil && d.Expected != nil
}

// TestResult is the outcome of one selected test
type TestResult struct {
	TestID      string        // Application test ID
	Module      string        // Owning module name
	Name        string        // Test name
	File        string        // Source file the test was declared in
	Outcome     Outcome       // passed, failed or skipped
	Diagnostics []Diagnostic  // Failure messages, empty unless failed
	Duration    time.Duration // Runtime reported by the application
}

// RunSummary describes a finished run
type RunSummary struct {
	RunID    string
	State    string
	Total    int // Tests the application reported at begin
	Passed   int
	Failed   int
	Skipped  int
	Duration time.Duration
	Results  []TestResult
}

// Failures returns the failed results in report order
func (s *RunSummary) Failures() []TestResult {
	var failed []TestResult
	for _, r := range s.Results {
		if r.Outcome == OutcomeFailed {
			failed = append(failed, r)
		}
	}
	return failed
}

// RunMeta contains metadata about a run for the JSON report
type RunMeta struct {
	RunID           string  `json:"run_id"`
	State           string  `json:"state"`
	SelectedTests   int     `json:"selected_tests"`
	PassedTests     int     `json:"passed_tests"`
	FailedTests     int     `json:"failed_tests"`
	SkippedTests    int     `json:"skipped_tests"`
	Duration        string  `json:"duration"`
	DurationSeconds float64 `json:"duration_seconds"`
	TargetURL       string  `json:"target_url"`
	Timestamp       string  `json:"timestamp"`
}

// RunReport is the complete structure written after a run
type RunReport struct {
	Meta    RunMeta       `json:"meta"`
	Details []TestFailure `json:"details"`
}
