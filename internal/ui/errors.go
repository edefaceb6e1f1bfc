package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"qte/internal/domain"
)

// ErrorViewer displays the failures of a run in an interactive TUI.
// Resolved marks are kept on the report and are not saved.
type ErrorViewer struct{}

// NewErrorViewer creates a new ErrorViewer
func NewErrorViewer() *ErrorViewer {
	return &ErrorViewer{}
}

// View opens the failure browser for report and blocks until it is closed
func (ev *ErrorViewer) View(report *domain.RunReport) error {
	if len(report.Details) == 0 {
		color.Green("✓ No test failures found!")
		return nil
	}

	b := newFailureBrowser(ev, report)
	if err := b.app.SetRoot(b.layout(), true).SetFocus(b.list).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// failureBrowser is one open viewer: a failure list, a location line and the
// diagnostics of the selected failure
type failureBrowser struct {
	viewer  *ErrorViewer
	report  *domain.RunReport
	app     *tview.Application
	header  *tview.TextView
	list    *tview.List
	where   *tview.TextView
	details *tview.TextView
}

func newFailureBrowser(ev *ErrorViewer, report *domain.RunReport) *failureBrowser {
	b := &failureBrowser{
		viewer:  ev,
		report:  report,
		app:     tview.NewApplication(),
		header:  tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter),
		list:    tview.NewList().ShowSecondaryText(false).SetHighlightFullLine(true),
		where:   tview.NewTextView().SetDynamicColors(true).SetWrap(false),
		details: tview.NewTextView().SetDynamicColors(true).SetWordWrap(true),
	}
	b.list.SetSelectedBackgroundColor(tcell.ColorDarkCyan)

	for i := range report.Details {
		b.list.AddItem(b.label(i), "", 0, nil)
	}
	b.list.SetChangedFunc(func(int, string, string, rune) { b.show() })
	b.list.SetInputCapture(b.listKeys)
	b.details.SetInputCapture(b.detailKeys)

	b.refreshHeader()
	b.show()
	return b
}

func (b *failureBrowser) layout() tview.Primitive {
	right := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(b.where, 2, 0, false).
		AddItem(b.details, 0, 1, false)
	body := tview.NewFlex().
		AddItem(b.list, 0, 1, true).
		AddItem(right, 0, 2, false)
	return tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(b.header, 2, 0, false).
		AddItem(body, 0, 1, true)
}

// label renders list entry i, dimmed once it is marked resolved
func (b *failureBrowser) label(i int) string {
	f := b.report.Details[i]
	name := tview.Escape(f.ModuleName + " > " + f.TestName)
	if f.Resolved {
		return fmt.Sprintf("[gray]✓ %d. %s", i+1, name)
	}
	return fmt.Sprintf("[yellow]%d.[white] %s", i+1, name)
}

func (b *failureBrowser) unresolved() int {
	n := 0
	for _, f := range b.report.Details {
		if !f.Resolved {
			n++
		}
	}
	return n
}

func (b *failureBrowser) refreshHeader() {
	b.header.SetText(fmt.Sprintf("Failures: %d, unresolved: %d | [yellow]r[white] resolve  [yellow]→[white] details  [yellow]q[white] quit",
		len(b.report.Details), b.unresolved()))
}

func (b *failureBrowser) show() {
	i := b.list.GetCurrentItem()
	if i < 0 || i >= len(b.report.Details) {
		return
	}
	f := b.report.Details[i]
	b.where.SetText(b.viewer.formatFailureStats(f, i+1))
	b.details.SetText(b.viewer.formatFailureDetails(f)).ScrollToBeginning()
}

// toggle flips the resolved mark of entry i
func (b *failureBrowser) toggle(i int) {
	if i < 0 || i >= len(b.report.Details) {
		return
	}
	b.report.Details[i].Resolved = !b.report.Details[i].Resolved
	b.list.SetItemText(i, b.label(i), "")
	b.refreshHeader()
}

func (b *failureBrowser) listKeys(event *tcell.EventKey) *tcell.EventKey {
	switch {
	case event.Key() == tcell.KeyEnter, event.Key() == tcell.KeyRight:
		b.app.SetFocus(b.details)
	case event.Rune() == 'r':
		b.toggle(b.list.GetCurrentItem())
	case event.Rune() == 'q':
		b.app.Stop()
	default:
		return event
	}
	return nil
}

func (b *failureBrowser) detailKeys(event *tcell.EventKey) *tcell.EventKey {
	switch {
	case event.Key() == tcell.KeyLeft, event.Key() == tcell.KeyEsc:
		b.app.SetFocus(b.list)
	case event.Rune() == 'q':
		b.app.Stop()
	default:
		return event
	}
	return nil
}

// formatFailureDetails formats a test failure for display using tview color tags ([red], [cyan], etc.)
func (ev *ErrorViewer) formatFailureDetails(failure domain.TestFailure) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "[red]✗ Test: %s[white]\n\n", tview.Escape(failure.TestName))
	fmt.Fprintf(&builder, "[cyan]Module: %s[white]\n", tview.Escape(failure.ModuleName))
	fmt.Fprintf(&builder, "[cyan]File: %s[white]\n\n", failure.FilePath)

	for i, d := range failure.Diagnostics {
		fmt.Fprintf(&builder, "[yellow]Failure %d at %s[white]\n", i+1, d.Range)
		fmt.Fprintf(&builder, "%s\n", tview.Escape(d.Message))
		if d.IsValueDiff() {
			fmt.Fprintf(&builder, "[green]Expected: %s[white]\n", tview.Escape(*d.Expected))
			fmt.Fprintf(&builder, "[red]Actual:   %s[white]\n", tview.Escape(*d.Actual))
		}
		if d.Diff != "" {
			fmt.Fprintf(&builder, "\n[gray]%s[white]\n", tview.Escape(d.Diff))
		}
		builder.WriteString("\n")
	}

	return builder.String()
}

// formatFailureStats formats the stats header for a test failure
func (ev *ErrorViewer) formatFailureStats(failure domain.TestFailure, number int) string {
	path := failure.FilePath
	if path == "" {
		path = "Unknown path"
	}

	testCase := failure.TestName
	if testCase == "" {
		testCase = fmt.Sprintf("Test %d", number)
	}

	location := path
	if failure.Line > 0 {
		location = fmt.Sprintf("%s:%d", path, failure.Line)
	}

	return fmt.Sprintf("[cyan]path:[white] [yellow]%s[white] > [yellow]%s[white]\n", location, tview.Escape(testCase))
}
