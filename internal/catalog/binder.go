// Package catalog reads the module and test registry of the running application.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"qte/internal/domain"
)

// RegistryScript evaluates to the application's registered modules and tests
const RegistryScript = `() => (window.QUnit && window.QUnit.config && window.QUnit.config.modules || []).map((m) => ({
  name: m.name,
  moduleId: m.moduleId,
  tests: (m.tests || []).map((t) => ({ name: t.name, testId: t.testId })),
}))`

// Evaluator loads a page and evaluates a script in it, returning the JSON result
type Evaluator interface {
	EvaluateAt(ctx context.Context, url, js string) ([]byte, error)
}

// Binder fetches the catalog from the application's test index page
type Binder struct {
	eval     Evaluator
	indexURL string
	timeout  time.Duration
	logger   *slog.Logger
}

// NewBinder creates a Binder for the given index page
func NewBinder(eval Evaluator, indexURL string, timeout time.Duration, logger *slog.Logger) *Binder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Binder{eval: eval, indexURL: indexURL, timeout: timeout, logger: logger}
}

// URL returns the page the catalog is read from. testId=0 matches no test,
// so loading it registers everything without running anything.
func (b *Binder) URL() string {
	sep := "?"
	if strings.Contains(b.indexURL, "?") {
		sep = "&"
	}
	return b.indexURL + sep + "testId=0"
}

// Fetch loads the registry. Every failure wraps domain.ErrCatalogUnavailable;
// callers treat that as an empty catalog.
func (b *Binder) Fetch(ctx context.Context) (domain.Catalog, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := b.eval.EvaluateAt(ctx, b.URL(), RegistryScript)
	if err != nil {
		return domain.Catalog{}, fmt.Errorf("%w: %w", domain.ErrCatalogUnavailable, err)
	}

	var modules []domain.RemoteModule
	if err := json.Unmarshal(raw, &modules); err != nil {
		return domain.Catalog{}, fmt.Errorf("%w: decode registry: %w", domain.ErrCatalogUnavailable, err)
	}

	catalog := domain.NewCatalog(modules)
	b.logger.Debug("catalog fetched",
		"modules", catalog.Len(),
		"tests", catalog.TestCount(),
		"took", time.Since(start))
	return catalog, nil
}
