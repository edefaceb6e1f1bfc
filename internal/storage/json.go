package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"qte/internal/domain"
)

// NewReport builds the report for a finished run
func NewReport(summary *domain.RunSummary, targetURL string) domain.RunReport {
	details := make([]domain.TestFailure, 0)
	for _, r := range summary.Failures() {
		details = append(details, domain.NewTestFailure(r))
	}

	return domain.RunReport{
		Meta: domain.RunMeta{
			RunID:           summary.RunID,
			State:           summary.State,
			SelectedTests:   len(summary.Results),
			PassedTests:     summary.Passed,
			FailedTests:     summary.Failed,
			SkippedTests:    summary.Skipped,
			Duration:        summary.Duration.String(),
			DurationSeconds: summary.Duration.Seconds(),
			TargetURL:       targetURL,
			Timestamp:       time.Now().Format(time.RFC3339),
		},
		Details: details,
	}
}

// Save writes the run report to the configured JSON file and returns its path.
func (s *JSONStorage) Save(report domain.RunReport) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	path := s.cfg.GetReportPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
