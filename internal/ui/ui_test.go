package ui

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/rivo/tview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qte/internal/config"
	"qte/internal/discovery"
	"qte/internal/domain"
	"qte/internal/tree"
)

func init() {
	color.NoColor = true
}

func failures() []domain.TestFailure {
	expected, actual := "2", "1"
	return []domain.TestFailure{
		{
			TestID:     "t1",
			TestName:   "bar",
			ModuleName: "Foo",
			FilePath:   "/app/tests/unit/foo-test.js",
			Line:       3,
			Diagnostics: []domain.Diagnostic{{
				Message:  "Actual: 1",
				Range:    domain.SourceRange{File: "/app/tests/unit/foo-test.js", StartLine: 2, StartColumn: 4},
				Expected: &expected,
				Actual:   &actual,
				Diff:     "--- expected\n+++ actual\n@@ -1 +1 @@\n-2\n+1",
			}},
		},
		{
			TestID:     "t9",
			TestName:   "renders [title]",
			ModuleName: "Header",
			FilePath:   "/app/tests/integration/header-test.js",
		},
	}
}

func TestFormatter_PrintSummary(t *testing.T) {
	cfg := config.New()
	cfg.ProjectPath = "/app"
	f := NewFormatter(cfg)
	var out bytes.Buffer
	f.SetOutput(&out)

	f.PrintSummary(domain.RunReport{
		Meta:    domain.RunMeta{RunID: "run-1", State: "completed", SelectedTests: 3, PassedTests: 1, FailedTests: 2, DurationSeconds: 1.25},
		Details: failures(),
	})

	text := out.String()
	assert.Contains(t, text, "Test Execution Statistics")
	assert.Contains(t, text, "1.25s")
	assert.Contains(t, text, "✗ 2 test(s) failed")
	assert.Contains(t, text, "foo-test.js")
	assert.Contains(t, text, "Foo > bar (line 3)")
	assert.Contains(t, text, "Header > renders [title]")
}

func TestFormatter_PrintSummary_AllPassed(t *testing.T) {
	f := NewFormatter(config.New())
	var out bytes.Buffer
	f.SetOutput(&out)

	f.PrintSummary(domain.RunReport{Meta: domain.RunMeta{SelectedTests: 2, PassedTests: 2}})
	assert.Contains(t, out.String(), "✓ All tests passed!")
}

func TestFormatter_PrintDiagnostics(t *testing.T) {
	f := NewFormatter(config.New())
	var out bytes.Buffer
	f.SetOutput(&out)

	f.PrintDiagnostics(failures()[:1])
	text := out.String()
	assert.Contains(t, text, "✗ Foo > bar")
	assert.Contains(t, text, "at /app/tests/unit/foo-test.js:3:5")
	assert.Contains(t, text, "    -2")
	assert.Contains(t, text, "    +1")
}

func TestFormatter_PrintTree(t *testing.T) {
	cfg := config.New()
	cfg.ProjectPath = "/app"

	tr := tree.New("unit", discovery.NewIndexer(), tree.OSReader{}, nil)
	tr.SetCatalog(context.Background(), domain.NewCatalog([]domain.RemoteModule{
		{Name: "Foo", ModuleID: "m1", Tests: []domain.RemoteTest{{Name: "bar", TestID: "t1"}}},
	}))
	tr.UpdateFromContents("/app/tests/unit/foo-test.js",
		[]byte(`module('Foo', function(){ test('bar', function(assert){ assert.ok(true); }); });`))
	tr.GetOrCreateFile("/app/tests/unit/new-test.js")

	f := NewFormatter(cfg)
	var out bytes.Buffer
	f.SetOutput(&out)
	f.PrintTree(tr)

	text := out.String()
	assert.Contains(t, text, "unit: 2 test file(s), 1 bound test(s)")
	assert.Contains(t, text, "tests/unit/foo-test.js")
	assert.Contains(t, text, "Foo [m1]")
	assert.Contains(t, text, "bar [t1, 1 assertion(s)]")
	assert.Contains(t, text, "(not indexed)")
}

func TestErrorViewer_FormatFailureDetails(t *testing.T) {
	ev := NewErrorViewer()
	details := ev.formatFailureDetails(failures()[0])

	assert.Contains(t, details, "Test: bar")
	assert.Contains(t, details, "Failure 1 at /app/tests/unit/foo-test.js:3:5")
	assert.Contains(t, details, "Expected: 2")
	assert.Contains(t, details, "Actual:   1")

	stats := ev.formatFailureStats(failures()[1], 2)
	assert.True(t, strings.Contains(stats, "header-test.js"))
	assert.Contains(t, stats, tview.Escape("renders [title]"))
}

func TestFailureBrowser_Toggle(t *testing.T) {
	report := &domain.RunReport{Details: failures()}
	b := newFailureBrowser(NewErrorViewer(), report)

	assert.Equal(t, len(report.Details), b.list.GetItemCount())
	assert.Equal(t, len(report.Details), b.unresolved())
	assert.Contains(t, b.header.GetText(true), fmt.Sprintf("unresolved: %d", len(report.Details)))

	b.toggle(0)
	assert.True(t, report.Details[0].Resolved)
	assert.Equal(t, len(report.Details)-1, b.unresolved())
	main, _ := b.list.GetItemText(0)
	assert.True(t, strings.HasPrefix(main, "[gray]✓ 1."))

	b.toggle(0)
	assert.False(t, report.Details[0].Resolved)
	b.toggle(len(report.Details))
	assert.Equal(t, len(report.Details), b.unresolved())
}

func TestErrorViewer_NoFailures(t *testing.T) {
	require.NoError(t, NewErrorViewer().View(&domain.RunReport{}))
}

func TestConsoleReporter_Counts(t *testing.T) {
	r := &ConsoleReporter{bar: newProgressBar(3, io.Discard), logger: discardLogger()}
	n := &tree.TestNode{Name: "bar", TestID: "t1", ModuleName: "Foo"}

	r.Enqueued(n)
	r.Started(n)
	r.Passed(n, domain.TestResult{})
	r.Failed(n, domain.TestResult{})
	r.Skipped(n)
	r.Status("Now running: Foo")
	r.Finish()

	passed, failed, skipped := r.Counts()
	assert.Equal(t, 1, passed)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 1, skipped)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
