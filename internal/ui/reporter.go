package ui

import (
	"log/slog"
	"sync"

	"qte/internal/domain"
	"qte/internal/tree"
)

// ConsoleReporter shows run progress on a progress bar
type ConsoleReporter struct {
	bar    *ProgressBar
	logger *slog.Logger

	mu                      sync.Mutex
	passed, failed, skipped int
}

// NewConsoleReporter creates a reporter for a run of count tests
func NewConsoleReporter(count int, logger *slog.Logger) *ConsoleReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConsoleReporter{bar: NewProgressBar(count), logger: logger}
}

// Enqueued implements execution.Reporter
func (r *ConsoleReporter) Enqueued(t *tree.TestNode) {
	r.logger.Debug("enqueued", "test", t.Label(), "test_id", t.TestID)
}

// Started implements execution.Reporter
func (r *ConsoleReporter) Started(t *tree.TestNode) {
	r.logger.Debug("started", "test", t.Label())
}

// Passed implements execution.Reporter
func (r *ConsoleReporter) Passed(_ *tree.TestNode, _ domain.TestResult) {
	r.update(func() { r.passed++ })
}

// Failed implements execution.Reporter
func (r *ConsoleReporter) Failed(t *tree.TestNode, result domain.TestResult) {
	r.logger.Debug("failed", "test", t.Label(), "diagnostics", len(result.Diagnostics))
	r.update(func() { r.failed++ })
}

// Skipped implements execution.Reporter
func (r *ConsoleReporter) Skipped(_ *tree.TestNode) {
	r.update(func() { r.skipped++ })
}

// Status implements execution.Reporter
func (r *ConsoleReporter) Status(message string) {
	r.logger.Debug(message)
}

// Counts returns the outcomes reported so far
func (r *ConsoleReporter) Counts() (passed, failed, skipped int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.passed, r.failed, r.skipped
}

// Finish completes the progress bar
func (r *ConsoleReporter) Finish() {
	r.bar.Finish()
}

func (r *ConsoleReporter) update(count func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count()
	r.bar.Update(r.passed, r.failed, r.skipped)
}
