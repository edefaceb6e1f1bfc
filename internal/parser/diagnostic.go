package parser

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"qte/internal/domain"
)

// BuildDiagnostic turns a failed assertion into a diagnostic anchored at r.
// Assertions that carry an actual value get a value comparison with a
// unified diff; others report their message and source.
func BuildDiagnostic(log domain.Log, r domain.SourceRange) domain.Diagnostic {
	if log.Actual == nil {
		return domain.Diagnostic{
			Message: fmt.Sprintf("Message: %s\nSource: %s", log.Message, log.Source),
			Range:   r,
		}
	}

	expected := ""
	if log.Expected != nil {
		expected = *log.Expected
	}

	return domain.Diagnostic{
		Message:  "Actual: " + *log.Actual,
		Range:    r,
		Expected: &expected,
		Actual:   log.Actual,
		Diff:     Diff(expected, *log.Actual),
	}
}

// Diff returns a unified diff from expected to actual
func Diff(expected, actual string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(diff, "\n")
}

// Summary is the single diagnostic message for a failed test that produced
// no assertion diagnostics
func Summary(done domain.TestDone) string {
	return fmt.Sprintf("%d of %d assertions failed", done.Failed, done.Total)
}
