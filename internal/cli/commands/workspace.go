package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fatih/color"

	"qte/internal/browser"
	"qte/internal/catalog"
	"qte/internal/config"
	"qte/internal/discovery"
	"qte/internal/domain"
	"qte/internal/events"
	"qte/internal/metrics"
	"qte/internal/tree"
)

// reachableInterval is how often --wait polls the application
const reachableInterval = 5 * time.Second

// suiteTree pairs a suite with its test tree
type suiteTree struct {
	suite config.Suite
	dir   string
	tree  *tree.Tree
}

// workspace holds the state shared by every command of one invocation: the
// suite trees, the event channel and the browser manager.
type workspace struct {
	config  *config.Config
	logger  *slog.Logger
	scanner *discovery.Scanner
	indexer *discovery.Indexer
	channel *events.Channel[domain.Event]
	manager *browser.Manager
	trees   []suiteTree
}

func newWorkspace(cfg *config.Config, logger *slog.Logger) *workspace {
	channel := events.NewChannel[domain.Event]()
	opts := browser.Options{
		ExecutablePath:    cfg.ExecutablePath,
		Pages:             cfg.Pages,
		NavigationTimeout: cfg.CatalogTimeout,
	}
	return &workspace{
		config:  cfg,
		logger:  logger,
		scanner: discovery.NewScanner(cfg.PathsToIgnore, cfg.TestExtension),
		indexer: discovery.NewIndexer(),
		channel: channel,
		manager: browser.NewManager(opts, channel, logger),
	}
}

func (w *workspace) mode() browser.Mode {
	if w.config.Flags.Debug {
		return browser.ModeDebug
	}
	return browser.ModeHeadless
}

// load scans the selected suites and indexes every test file. Files whose
// suite directory is missing are reported and skipped.
func (w *workspace) load(ctx context.Context) error {
	suites, err := w.config.SelectedSuites()
	if err != nil {
		return err
	}
	if err := w.scanner.UseGitignore(w.config.ProjectPath); err != nil {
		w.logger.Warn("gitignore ignored", "error", err)
	}

	w.trees = w.trees[:0]
	for _, s := range suites {
		dir := w.config.SuiteDir(s)
		files, err := w.scanner.Scan(dir)
		if err != nil {
			w.logger.Info("suite skipped", "suite", s.Name, "error", err)
			continue
		}

		t := tree.New(s.Name, w.indexer, tree.OSReader{}, w.logger)
		for _, f := range files {
			t.UpdateFromDisk(ctx, f)
			metrics.RecordIndexed(s.Name)
		}
		w.trees = append(w.trees, suiteTree{suite: s, dir: dir, tree: t})
	}
	return nil
}

// bind fetches the application's catalog and binds every tree to it. An
// unavailable catalog binds nothing but is not an error; the trees stay
// listed without runnable tests.
func (w *workspace) bind(ctx context.Context) error {
	if w.config.Flags.Wait {
		color.Cyan("Waiting for %s ...", w.config.IndexURL())
		if err := browser.WaitReachable(ctx, w.config.IndexURL(), reachableInterval); err != nil {
			return err
		}
	}

	session, err := w.manager.Session(ctx, w.mode())
	if err != nil {
		return err
	}

	binder := catalog.NewBinder(session, w.config.IndexURL(), w.config.CatalogTimeout, w.logger)
	cat, err := binder.Fetch(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrCatalogUnavailable) {
			return err
		}
		color.Yellow("Test catalog unavailable, no tests can be run: %v", err)
		if hint := domain.Remediation(err); hint != "" {
			color.Yellow(hint)
		}
		cat = domain.NewCatalog(nil)
	}

	for _, st := range w.trees {
		st.tree.SetCatalog(ctx, cat)
		bound := 0
		for _, f := range st.tree.Files() {
			bound += len(f.Tests())
		}
		metrics.SetBoundTests(st.suite.Name, bound)
	}
	return nil
}

// collect expands node keys (file paths, moduleIds or testIds) into tests in
// tree order. No keys selects every test.
func (w *workspace) collect(ctx context.Context, keys []string) ([]*tree.TestNode, error) {
	found := make(map[string]bool, len(keys))
	var tests []*tree.TestNode
	for _, st := range w.trees {
		var include []tree.Node
		for _, key := range keys {
			if n, ok := w.lookup(st.tree, key); ok {
				include = append(include, n)
				found[key] = true
			}
		}
		if len(keys) > 0 && len(include) == 0 {
			continue
		}
		collected, err := st.tree.Collect(ctx, include, nil)
		if err != nil {
			return nil, err
		}
		tests = append(tests, collected...)
	}
	for _, key := range keys {
		if !found[key] {
			return nil, fmt.Errorf("no file, module or test %q", key)
		}
	}
	return tests, nil
}

func (w *workspace) lookup(t *tree.Tree, key string) (tree.Node, bool) {
	if n, ok := t.Find(key); ok {
		return n, true
	}
	return t.Find(filepath.Join(w.config.ProjectPath, key))
}

func (w *workspace) close() {
	w.manager.Close()
}

// sessionNavigator navigates whichever session the manager currently holds,
// so a run always uses a live browser even after the session was replaced.
type sessionNavigator struct {
	manager *browser.Manager
	mode    browser.Mode
}

func (n sessionNavigator) Navigate(ctx context.Context, url string) error {
	s, err := n.manager.Session(ctx, n.mode)
	if err != nil {
		return err
	}
	return s.Navigate(ctx, url)
}
