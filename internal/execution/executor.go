package execution

import (
	"context"

	"qte/internal/domain"
	"qte/internal/tree"
)

// Executor executes tests and returns results
type Executor interface {
	Run(ctx context.Context, tests []*tree.TestNode, reporter Reporter) (*domain.RunSummary, error)
}

// Navigator starts the application's runner at a URL
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// Reporter receives per-test progress. Every selected test gets exactly one
// terminal call (Passed, Failed or Skipped) unless the application could not
// be reached at all.
type Reporter interface {
	Enqueued(test *tree.TestNode)
	Started(test *tree.TestNode)
	Passed(test *tree.TestNode, result domain.TestResult)
	Failed(test *tree.TestNode, result domain.TestResult)
	Skipped(test *tree.TestNode)
	Status(message string)
}

// NopReporter ignores everything
type NopReporter struct{}

func (NopReporter) Enqueued(*tree.TestNode) {}
func (NopReporter) Started(*tree.TestNode) {}
func (NopReporter) Passed(*tree.TestNode, domain.TestResult) {}
func (NopReporter) Failed(*tree.TestNode, domain.TestResult) {}
func (NopReporter) Skipped(*tree.TestNode) {}
func (NopReporter) Status(string) {}
