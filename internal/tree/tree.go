package tree

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"qte/internal/domain"
)

// Indexer extracts declarations from test source
type Indexer interface {
	Index(file string, source []byte) []domain.ModuleDeclaration
}

// FileReader reads a test file as text
type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// OSReader reads files from the local disk
type OSReader struct{}

// ReadFile implements FileReader
func (OSReader) ReadFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// Op is the kind of a file change
type Op int

const (
	Created Op = iota
	Changed
	Deleted
)

func (o Op) String() string {
	switch o {
	case Created:
		return "created"
	case Changed:
		return "changed"
	case Deleted:
		return "deleted"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// FileEvent reports a change to a test file on disk
type FileEvent struct {
	Op   Op
	Path string
}

// Tree is the bound test hierarchy of one suite. It is safe for concurrent use.
type Tree struct {
	Name string

	mu      sync.Mutex
	indexer Indexer
	reader  FileReader
	catalog domain.Catalog
	files   map[string]*FileNode
	logger  *slog.Logger
}

// New creates an empty tree
func New(name string, indexer Indexer, reader FileReader, logger *slog.Logger) *Tree {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tree{
		Name:    name,
		indexer: indexer,
		reader:  reader,
		files:   make(map[string]*FileNode),
		logger:  logger,
	}
}

// SetCatalog replaces the catalog and re-binds every resolved file from disk
func (t *Tree) SetCatalog(ctx context.Context, catalog domain.Catalog) {
	t.mu.Lock()
	t.catalog = catalog
	var resolved []string
	for path, f := range t.files {
		if f.Resolved {
			resolved = append(resolved, path)
		}
	}
	t.mu.Unlock()

	sort.Strings(resolved)
	for _, path := range resolved {
		t.UpdateFromDisk(ctx, path)
	}
}

// Catalog returns the catalog the tree is bound to
func (t *Tree) Catalog() domain.Catalog {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.catalog
}

// GetOrCreateFile returns the file node for path, adding an unresolved one if needed
func (t *Tree) GetOrCreateFile(path string) *FileNode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.getOrCreate(path)
}

func (t *Tree) getOrCreate(path string) *FileNode {
	if f, ok := t.files[path]; ok {
		return f
	}
	f := &FileNode{Path: path}
	t.files[path] = f
	return f
}

// Delete removes the file and everything under it
func (t *Tree) Delete(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.files, path)
}

// File returns the node for path
func (t *Tree) File(path string) (*FileNode, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	f, ok := t.files[path]
	return f, ok
}

// Files returns every file node sorted by path
func (t *Tree) Files() []*FileNode {
	t.mu.Lock()
	defer t.mu.Unlock()
	files := make([]*FileNode, 0, len(t.files))
	for _, f := range t.files {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files
}

// Find looks a node up by key: file path, moduleId or testId
func (t *Tree) Find(key string) (Node, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if f, ok := t.files[key]; ok {
		return f, true
	}
	for _, f := range t.files {
		for _, m := range f.Modules {
			if m.ModuleID == key {
				return m, true
			}
			for _, tn := range m.Tests {
				if tn.TestID == key {
					return tn, true
				}
			}
		}
	}
	return nil, false
}

// UpdateFromContents re-indexes the file from the given text and reconciles it
func (t *Tree) UpdateFromContents(path string, source []byte) *FileNode {
	topology := t.indexer.Index(path, source)

	t.mu.Lock()
	defer t.mu.Unlock()
	f := t.getOrCreate(path)
	Reconcile(f, topology, t.catalog)
	return f
}

// UpdateFromDisk re-indexes the file from disk. A read failure is logged and
// leaves the file resolved with no modules.
func (t *Tree) UpdateFromDisk(ctx context.Context, path string) *FileNode {
	source, err := t.reader.ReadFile(ctx, path)
	if err != nil {
		t.logger.Warn("read test file", "path", path, "error", err)
		source = nil
	}
	return t.UpdateFromContents(path, source)
}

// Apply handles a change reported by the file watcher. Changed files are only
// re-indexed once they have been resolved.
func (t *Tree) Apply(ctx context.Context, ev FileEvent) *FileNode {
	switch ev.Op {
	case Created:
		return t.GetOrCreateFile(ev.Path)
	case Changed:
		t.mu.Lock()
		f, ok := t.files[ev.Path]
		if !ok || !f.Resolved {
			f = t.getOrCreate(ev.Path)
			t.mu.Unlock()
			return f
		}
		t.mu.Unlock()
		return t.UpdateFromDisk(ctx, ev.Path)
	case Deleted:
		t.Delete(ev.Path)
	}
	return nil
}

// Collect expands the selection into tests in tree order. An empty include
// selects every file. Unresolved files are read from disk first. Excluded
// nodes, and everything under them, are left out.
func (t *Tree) Collect(ctx context.Context, include, exclude []Node) ([]*TestNode, error) {
	if len(include) == 0 {
		for _, f := range t.Files() {
			include = append(include, f)
		}
	}

	skip := make(map[Node]bool, len(exclude))
	for _, n := range exclude {
		skip[n] = true
	}

	// Unresolved files are indexed first, outside the lock
	for _, n := range include {
		if f, ok := n.(*FileNode); ok && !skip[n] && !t.isResolved(f) {
			t.UpdateFromDisk(ctx, f.Path)
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var tests []*TestNode
	seen := make(map[*TestNode]bool)
	add := func(tn *TestNode) {
		if !skip[tn] && !seen[tn] {
			seen[tn] = true
			tests = append(tests, tn)
		}
	}

	for _, n := range include {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if skip[n] {
			continue
		}

		switch n := n.(type) {
		case *FileNode:
			f := n
			if current, ok := t.files[f.Path]; ok {
				f = current
			}
			for _, m := range f.Modules {
				if skip[m] {
					continue
				}
				for _, tn := range m.Tests {
					add(tn)
				}
			}
		case *ModuleNode:
			for _, tn := range n.Tests {
				add(tn)
			}
		case *TestNode:
			add(n)
		}
	}

	return tests, nil
}

func (t *Tree) isResolved(f *FileNode) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return f.Resolved
}
