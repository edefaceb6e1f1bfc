package domain

// TestFailure represents a failed test in the run report
type TestFailure struct {
	TestID      string       `json:"test_id"`
	TestName    string       `json:"test_name"`
	ModuleName  string       `json:"module_name"`
	FilePath    string       `json:"file_path"`
	Line        int          `json:"line"`
	Diagnostics []Diagnostic `json:"diagnostics"`
	Resolved    bool         `json:"resolved,omitempty"` // Toggled in the failure viewer
}

// NewTestFailure converts a failed result into its report form
func NewTestFailure(r TestResult) TestFailure {
	f := TestFailure{
		TestID:      r.TestID,
		TestName:    r.Name,
		ModuleName:  r.Module,
		FilePath:    r.File,
		Diagnostics: r.Diagnostics,
	}
	if len(r.Diagnostics) > 0 {
		f.Line = r.Diagnostics[0].Range.StartLine + 1
	}
	return f
}
