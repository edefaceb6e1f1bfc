// Package metrics exposes run and indexing counters for Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"qte/internal/domain"
)

const (
	MetricsNamespace = "qte"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "runs_total",
		Help:      "Count of runs by final state",
	}, []string{
		"state",
	})

	testOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "test_outcomes_total",
		Help:      "Count of test outcomes",
	}, []string{
		"outcome",
	})

	runDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Name:      "run_duration_seconds",
		Help:      "Duration of runs",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
	})

	filesIndexedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "files_indexed_total",
		Help:      "Count of test file re-indexes",
	}, []string{
		"suite",
	})

	boundTests = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "bound_tests",
		Help:      "Tests bound to the application catalog",
	}, []string{
		"suite",
	})
)

// RecordRun records the outcome counts and duration of a finished run
func RecordRun(summary *domain.RunSummary) {
	if summary == nil {
		return
	}
	runsTotal.WithLabelValues(summary.State).Inc()
	testOutcomesTotal.WithLabelValues(string(domain.OutcomePassed)).Add(float64(summary.Passed))
	testOutcomesTotal.WithLabelValues(string(domain.OutcomeFailed)).Add(float64(summary.Failed))
	testOutcomesTotal.WithLabelValues(string(domain.OutcomeSkipped)).Add(float64(summary.Skipped))
	runDuration.Observe(summary.Duration.Seconds())
}

// RecordIndexed counts a re-index of one file in suite
func RecordIndexed(suite string) {
	filesIndexedTotal.WithLabelValues(suite).Inc()
}

// SetBoundTests records how many tests of suite are bound
func SetBoundTests(suite string, n int) {
	boundTests.WithLabelValues(suite).Set(float64(n))
}

// Serve exposes /metrics on addr until ctx ends
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
