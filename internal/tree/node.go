package tree

import (
	"sync/atomic"

	"qte/internal/domain"
)

// Node is one of *FileNode, *ModuleNode or *TestNode
type Node interface {
	// Key identifies the node: path for files, moduleId for modules, testId for tests
	Key() string
	Label() string
	node()
}

// FileNode is a test file. Modules are only known once the file is resolved.
type FileNode struct {
	Path     string
	Resolved bool
	Modules  []*ModuleNode
}

// ModuleNode is a module bound to the application's catalog
type ModuleNode struct {
	Name       string
	ModuleID   string
	File       string
	Range      domain.SourceRange
	Generation uint64
	Tests      []*TestNode
}

// TestNode is a test bound to the application's catalog
type TestNode struct {
	Name       string
	TestID     string
	ModuleName string
	ModuleID   string
	File       string
	Range      domain.SourceRange
	Assertions []domain.SourceRange
}

func (f *FileNode) Key() string { return f.Path }
func (m *ModuleNode) Key() string { return m.ModuleID }
func (t *TestNode) Key() string { return t.TestID }

func (f *FileNode) Label() string { return f.Path }
func (m *ModuleNode) Label() string { return m.Name }
func (t *TestNode) Label() string { return t.ModuleName + " > " + t.Name }

func (*FileNode) node() {}
func (*ModuleNode) node() {}
func (*TestNode) node() {}

// Tests returns every test under the file in tree order
func (f *FileNode) Tests() []*TestNode {
	var tests []*TestNode
	for _, m := range f.Modules {
		tests = append(tests, m.Tests...)
	}
	return tests
}

// generationCounter stamps parse passes. It only ever grows.
type generationCounter struct {
	n atomic.Uint64
}

// Next starts a new pass and returns its stamp
func (g *generationCounter) Next() uint64 {
	return g.n.Add(1)
}

// Current returns the stamp of the latest pass
func (g *generationCounter) Current() uint64 {
	return g.n.Load()
}

// Generations is shared by every tree of the process
var Generations generationCounter
