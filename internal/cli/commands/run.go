package commands

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"qte/internal/discovery"
	"qte/internal/execution"
	"qte/internal/metrics"
	"qte/internal/storage"
	"qte/internal/tree"
	"qte/internal/ui"
)

// RunCommand handles the run command
type RunCommand struct {
	app       *app
	filter    *discovery.Filter
	storage   storage.Storage
	formatter *ui.Formatter
	viewer    ui.Viewer
}

// NewRunCommand creates a new RunCommand
func NewRunCommand(
	a *app,
	filter *discovery.Filter,
	st storage.Storage,
	formatter *ui.Formatter,
	viewer ui.Viewer,
) *RunCommand {
	return &RunCommand{
		app:       a,
		filter:    filter,
		storage:   st,
		formatter: formatter,
		viewer:    viewer,
	}
}

// Execute runs the command
func (rc *RunCommand) Execute(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ws := newWorkspace(rc.app.config, rc.app.logger)
	defer ws.close()

	// Discover and bind tests
	if err := ws.load(ctx); err != nil {
		return err
	}
	if err := ws.bind(ctx); err != nil {
		return err
	}

	tests, err := ws.collect(ctx, args)
	if err != nil {
		return err
	}
	tests = rc.byName(tests)

	if len(tests) == 0 {
		color.Yellow("No tests to execute")
		return nil
	}

	coordinator := execution.NewCoordinator(
		sessionNavigator{manager: ws.manager, mode: ws.mode()},
		ws.channel,
		rc.app.config.IndexURL(),
		rc.app.config.RunTimeout,
		rc.app.logger,
	)
	return rc.execute(ctx, coordinator, tests)
}

// byName narrows tests to those whose "module > test" label matches the name filter
func (rc *RunCommand) byName(tests []*tree.TestNode) []*tree.TestNode {
	pattern := rc.app.config.Flags.NameFilter
	if pattern == "" {
		return tests
	}
	var out []*tree.TestNode
	for _, t := range tests {
		if rc.filter.Matches(t.Label(), pattern) {
			out = append(out, t)
		}
	}
	return out
}

// execute runs the selection and reports it. A run-level failure is returned
// after whatever partial results exist have been shown and saved.
func (rc *RunCommand) execute(ctx context.Context, executor execution.Executor, tests []*tree.TestNode) error {
	reporter := ui.NewConsoleReporter(len(tests), rc.app.logger)
	summary, runErr := executor.Run(ctx, tests, reporter)
	reporter.Finish()

	if summary == nil {
		return runErr
	}
	metrics.RecordRun(summary)

	report := storage.NewReport(summary, rc.app.config.IndexURL())
	path, err := rc.storage.Save(report)
	if err != nil {
		return fmt.Errorf("failed to save run report: %w", err)
	}

	// Print stats
	rc.formatter.PrintSummary(report)
	rc.formatter.PrintDiagnostics(report.Details)
	color.New(color.FgHiBlack).Printf("Report written to %s\n", path)

	if runErr != nil {
		return runErr
	}

	if rc.app.config.Flags.OpenFailures && len(report.Details) > 0 {
		return rc.viewer.View(&report)
	}

	if summary.Failed > 0 {
		return errTestsFailed
	}
	return nil
}

// errTestsFailed makes the process exit non-zero without another message
var errTestsFailed = silentError{msg: "tests failed"}

type silentError struct{ msg string }

func (e silentError) Error() string { return e.msg }

// IsSilent reports whether err has already been shown to the user
func IsSilent(err error) bool {
	_, ok := err.(silentError)
	return ok
}

