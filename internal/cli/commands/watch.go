package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"qte/internal/domain"
	"qte/internal/execution"
	"qte/internal/metrics"
	"qte/internal/tree"
	"qte/internal/ui"
	"qte/internal/watch"
)

// WatchCommand handles the watch command
type WatchCommand struct {
	app       *app
	formatter *ui.Formatter
	runner    *RunCommand
}

// NewWatchCommand creates a new WatchCommand. Re-runs are reported the way
// the run command reports them.
func NewWatchCommand(a *app, formatter *ui.Formatter, runner *RunCommand) *WatchCommand {
	return &WatchCommand{app: a, formatter: formatter, runner: runner}
}

// suiteEvent is a file event tagged with the tree it belongs to
type suiteEvent struct {
	suite suiteTree
	event tree.FileEvent
}

// Execute runs the command until interrupted
func (wc *WatchCommand) Execute(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := wc.app.config
	logger := wc.app.logger
	ws := newWorkspace(cfg, logger)
	defer ws.close()

	if err := ws.load(ctx); err != nil {
		return err
	}
	if len(ws.trees) == 0 {
		color.Yellow("No suite directories to watch")
		return nil
	}
	if err := ws.bind(ctx); err != nil {
		return err
	}

	if addr := cfg.Flags.MetricsAddr; addr != "" {
		go func() {
			if err := metrics.Serve(ctx, addr); err != nil {
				logger.Error("metrics server", "addr", addr, "error", err)
			}
		}()
		color.Cyan("Metrics on http://%s/metrics", addr)
	}

	var coordinator *execution.Coordinator
	if cfg.Flags.RunOnChange {
		coordinator = execution.NewCoordinator(
			sessionNavigator{manager: ws.manager, mode: ws.mode()},
			ws.channel,
			cfg.IndexURL(),
			cfg.RunTimeout,
			logger,
		)
	}

	changes := make(chan suiteEvent)
	errCh := make(chan error, len(ws.trees))
	for _, st := range ws.trees {
		w, err := watch.New(st.dir, cfg.TestExtension, cfg.PathsToIgnore, logger)
		if err != nil {
			return err
		}
		defer w.Close()

		st := st
		go func() {
			errCh <- w.Run(ctx, func(ev tree.FileEvent) {
				select {
				case changes <- suiteEvent{suite: st, event: ev}:
				case <-ctx.Done():
				}
			})
		}()
	}

	color.Cyan("Watching %d suite(s), press Ctrl+C to stop", len(ws.trees))

	// Changes are applied and re-run one at a time
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if err != nil {
				return err
			}
		case change := <-changes:
			wc.apply(ctx, change, coordinator)
		}
	}
}

func (wc *WatchCommand) apply(ctx context.Context, change suiteEvent, coordinator *execution.Coordinator) {
	st, ev := change.suite, change.event
	file := st.tree.Apply(ctx, ev)

	switch ev.Op {
	case tree.Deleted:
		color.Red("- %s", ev.Path)
		return
	case tree.Created:
		color.Green("+ %s", ev.Path)
		return
	}
	if file == nil || !file.Resolved {
		return
	}

	metrics.RecordIndexed(st.suite.Name)
	tests := file.Tests()
	color.Yellow("~ %s", ev.Path)
	wc.formatter.PrintFiles(st.suite.Name, []*tree.FileNode{file})

	if coordinator == nil || len(tests) == 0 {
		return
	}
	if err := wc.runner.execute(ctx, coordinator, tests); err != nil && !IsSilent(err) {
		if errors.Is(err, execution.ErrRunInProgress) {
			return
		}
		color.Red(domain.UserMessage(err))
	}
}
