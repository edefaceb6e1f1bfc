package ui

import "qte/internal/domain"

// Viewer displays a run's failures in an interactive TUI
type Viewer interface {
	View(report *domain.RunReport) error
}
