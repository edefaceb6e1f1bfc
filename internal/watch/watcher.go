// Package watch turns filesystem notifications under a suite directory into
// test file events.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"qte/internal/tree"
)

// Watcher reports created, changed and deleted test files below a root
type Watcher struct {
	root      string
	extension string
	skipDirs  map[string]bool
	fsw       *fsnotify.Watcher
	logger    *slog.Logger
}

// New watches root and every directory below it that is not skipped
func New(root, extension string, skipDirs []string, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	skip := make(map[string]bool, len(skipDirs))
	for _, d := range skipDirs {
		skip[d] = true
	}

	w := &Watcher{
		root:      filepath.Clean(root),
		extension: extension,
		skipDirs:  skip,
		fsw:       fsw,
		logger:    logger,
	}
	if err := w.addTree(w.root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) skipped(name string) bool {
	return w.skipDirs[name] || (strings.HasPrefix(name, ".") && name != ".")
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && w.skipped(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) isTestFile(path string) bool {
	return strings.HasSuffix(path, w.extension)
}

// translate maps one notification to a file event. Directory creation is
// handled by watching the new directory and reporting the test files it
// already contains.
func (w *Watcher) translate(ev fsnotify.Event) []tree.FileEvent {
	switch {
	case ev.Has(fsnotify.Create):
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if w.skipped(filepath.Base(ev.Name)) {
				return nil
			}
			if err := w.addTree(ev.Name); err != nil {
				w.logger.Warn("watch new directory", "path", ev.Name, "error", err)
			}
			return w.existing(ev.Name)
		}
		if w.isTestFile(ev.Name) {
			return []tree.FileEvent{{Op: tree.Created, Path: ev.Name}}
		}
	case ev.Has(fsnotify.Write):
		if w.isTestFile(ev.Name) {
			return []tree.FileEvent{{Op: tree.Changed, Path: ev.Name}}
		}
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		if w.isTestFile(ev.Name) {
			return []tree.FileEvent{{Op: tree.Deleted, Path: ev.Name}}
		}
	}
	return nil
}

func (w *Watcher) existing(dir string) []tree.FileEvent {
	var out []tree.FileEvent
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && w.skipped(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if w.isTestFile(path) {
			out = append(out, tree.FileEvent{Op: tree.Created, Path: path})
		}
		return nil
	})
	return out
}

// Run delivers events to handle until ctx ends or the watcher fails
func (w *Watcher) Run(ctx context.Context, handle func(tree.FileEvent)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			for _, fe := range w.translate(ev) {
				w.logger.Debug("test file event", "op", fe.Op, "path", fe.Path)
				handle(fe)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch %s: %w", w.root, err)
		}
	}
}

// Close stops watching
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
