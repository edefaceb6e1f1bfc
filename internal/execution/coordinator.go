package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"qte/internal/domain"
	"qte/internal/events"
	"qte/internal/parser"
	"qte/internal/tree"
)

var (
	// ErrRunInProgress is returned when a run is requested while another is active
	ErrRunInProgress = errors.New("a run is already in progress")
	// ErrRunAbandoned is returned when the browser session was replaced mid-run
	ErrRunAbandoned = errors.New("run abandoned: browser session was reset")
)

// State is the lifecycle position of a run
type State string

const (
	StateIdle          State = "idle"
	StateAwaitingBegin State = "awaiting_begin"
	StateRunning       State = "running"
	StateDraining      State = "draining"
	StateCompleted     State = "completed"
	StateCancelled     State = "cancelled"
	StateTimedOut      State = "timed_out"
	StateFailed        State = "failed"
)

// Coordinator runs selected tests through the browser and correlates the
// streamed events back to their source locations
type Coordinator struct {
	nav      Navigator
	channel  *events.Channel[domain.Event]
	indexURL string
	timeout  time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	state   State
}

// NewCoordinator creates a Coordinator. The timeout bounds each run.
func NewCoordinator(nav Navigator, channel *events.Channel[domain.Event], indexURL string, timeout time.Duration, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		nav:      nav,
		channel:  channel,
		indexURL: indexURL,
		timeout:  timeout,
		logger:   logger.With("component", "coordinator"),
		state:    StateIdle,
	}
}

// State returns the state of the current or last run
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// testProgress tracks the assertion cursor of one test
type testProgress struct {
	node        *tree.TestNode
	cursor      int
	diagnostics []domain.Diagnostic
}

// run is the bookkeeping of a single Run call
type run struct {
	summary  *domain.RunSummary
	reporter Reporter
	pending  map[string]*testProgress
	order    []*tree.TestNode
}

// Run executes tests in one batched navigation. Cancelling ctx before the
// navigation reports every test skipped; after it, cancellation has no effect
// since the application runs the batch on its own.
func (c *Coordinator) Run(ctx context.Context, tests []*tree.TestNode, reporter Reporter) (*domain.RunSummary, error) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil, ErrRunInProgress
	}
	c.running = true
	c.state = StateIdle
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	if reporter == nil {
		reporter = NopReporter{}
	}

	start := time.Now()
	r := &run{
		summary:  &domain.RunSummary{RunID: uuid.NewString()},
		reporter: reporter,
		pending:  make(map[string]*testProgress),
	}
	defer func() { r.summary.Duration = time.Since(start) }()

	seen := make(map[string]bool, len(tests))
	for _, t := range tests {
		if seen[t.TestID] {
			continue
		}
		seen[t.TestID] = true
		if ctx.Err() != nil {
			r.skip(t)
			continue
		}
		reporter.Enqueued(t)
		r.pending[t.TestID] = &testProgress{node: t}
		r.order = append(r.order, t)
	}

	if len(r.order) == 0 {
		state := StateCompleted
		if ctx.Err() != nil {
			state = StateCancelled
		}
		return r.finish(c, state), nil
	}

	c.channel.Reset()
	sub := c.channel.Subscribe()
	defer sub.Close()

	// Once dispatched the run is bounded by its own timer only
	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	c.setState(StateAwaitingBegin)
	url := Query(c.indexURL, r.order)
	c.logger.Info("dispatching run", "run_id", r.summary.RunID, "tests", len(r.order), "url", url)

	if err := c.nav.Navigate(runCtx, url); err != nil {
		if errors.Is(err, domain.ErrNetworkUnavailable) {
			return r.finish(c, StateFailed), err
		}
		r.skipPending()
		return r.finish(c, StateFailed), fmt.Errorf("navigate: %w", err)
	}

	return c.consume(runCtx, sub, r)
}

func (c *Coordinator) consume(ctx context.Context, sub *events.Subscription[domain.Event], r *run) (*domain.RunSummary, error) {
	begun := false

	for {
		ev, err := sub.Next(ctx)
		if err != nil {
			r.skipPending()
			switch {
			case errors.Is(err, context.DeadlineExceeded):
				return r.finish(c, StateTimedOut), fmt.Errorf("%w after %s", domain.ErrTimedOut, c.timeout)
			case errors.Is(err, events.ErrReset):
				return r.finish(c, StateCancelled), ErrRunAbandoned
			default:
				return r.finish(c, StateFailed), err
			}
		}

		// Anything before Begin belongs to an earlier run
		if !begun {
			if b, ok := ev.(domain.Begin); ok {
				begun = true
				r.summary.Total = b.TotalTests
				c.setState(StateRunning)
			}
			continue
		}

		switch ev := ev.(type) {
		case domain.Begin:
			r.summary.Total = ev.TotalTests
		case domain.ModuleStart:
			r.reporter.Status("Now running: " + ev.Name)
		case domain.ModuleDone:
			r.reporter.Status(fmt.Sprintf("Finished running: %s Failed/total: %d/%d", ev.Name, ev.Failed, ev.Total))
		case domain.TestStart:
			if p, ok := r.pending[ev.TestID]; ok {
				p.cursor = 0
				p.diagnostics = nil
				r.reporter.Started(p.node)
			}
		case domain.Log:
			if p, ok := r.pending[ev.TestID]; ok {
				p.record(ev)
			}
		case domain.TestDone:
			if p, ok := r.pending[ev.TestID]; ok {
				r.complete(p, ev)
			}
		case domain.Done:
			c.setState(StateDraining)
			r.skipPending()
			return r.finish(c, StateCompleted), nil
		case domain.BridgeFailure:
			r.skipPending()
			return r.finish(c, StateFailed), fmt.Errorf("%s callback: %w", ev.From, ev.Err)
		}
	}
}

// record advances the cursor by one assertion. A failed value comparison
// anchors at the assertion at the cursor, other failures at the test itself.
// When more assertions arrive than were found in source the test range is used.
func (p *testProgress) record(log domain.Log) {
	defer func() { p.cursor++ }()
	if log.Result {
		return
	}

	at := p.node.Range
	if log.Actual != nil && p.cursor < len(p.node.Assertions) {
		at = p.node.Assertions[p.cursor]
	}
	p.diagnostics = append(p.diagnostics, parser.BuildDiagnostic(log, at))
}

func (r *run) complete(p *testProgress, done domain.TestDone) {
	delete(r.pending, done.TestID)

	result := domain.TestResult{
		TestID:   p.node.TestID,
		Module:   p.node.ModuleName,
		Name:     p.node.Name,
		File:     p.node.File,
		Duration: time.Duration(done.Runtime * float64(time.Millisecond)),
	}

	switch {
	case done.Skipped:
		r.skip(p.node)
		return
	case done.Failed > 0:
		result.Outcome = domain.OutcomeFailed
		result.Diagnostics = p.diagnostics
		if len(result.Diagnostics) == 0 {
			result.Diagnostics = []domain.Diagnostic{{
				Message: parser.Summary(done),
				Range:   p.node.Range,
			}}
		}
		r.summary.Failed++
		r.reporter.Failed(p.node, result)
	default:
		result.Outcome = domain.OutcomePassed
		r.summary.Passed++
		r.reporter.Passed(p.node, result)
	}
	r.summary.Results = append(r.summary.Results, result)
}

func (r *run) skip(t *tree.TestNode) {
	r.summary.Skipped++
	r.summary.Results = append(r.summary.Results, domain.TestResult{
		TestID:  t.TestID,
		Module:  t.ModuleName,
		Name:    t.Name,
		File:    t.File,
		Outcome: domain.OutcomeSkipped,
	})
	r.reporter.Skipped(t)
}

// skipPending reports every test that never finished, in selection order
func (r *run) skipPending() {
	for _, t := range r.order {
		if _, ok := r.pending[t.TestID]; ok {
			delete(r.pending, t.TestID)
			r.skip(t)
		}
	}
}

func (r *run) finish(c *Coordinator, state State) *domain.RunSummary {
	c.setState(state)
	r.summary.State = string(state)
	c.logger.Info("run finished",
		"run_id", r.summary.RunID,
		"state", state,
		"passed", r.summary.Passed,
		"failed", r.summary.Failed,
		"skipped", r.summary.Skipped)
	return r.summary
}
