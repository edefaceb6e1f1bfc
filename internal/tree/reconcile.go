package tree

import "qte/internal/domain"

// Reconcile brings the file's subtree in line with a freshly indexed topology.
// Modules and tests absent from the catalog are dropped. Nodes whose identifier
// survives the pass keep their identity, so unrelated tests stay untouched.
func Reconcile(file *FileNode, topology []domain.ModuleDeclaration, catalog domain.Catalog) {
	gen := Generations.Next()

	previous := make(map[string]*ModuleNode, len(file.Modules))
	for _, m := range file.Modules {
		previous[m.ModuleID] = m
	}

	var modules []*ModuleNode
	for _, decl := range topology {
		remote, ok := catalog.Module(decl.Name)
		if !ok {
			continue
		}

		node, ok := previous[remote.ModuleID]
		if !ok {
			node = &ModuleNode{ModuleID: remote.ModuleID}
			previous[remote.ModuleID] = node
		}

		if node.Generation == gen {
			// Same module declared twice in this pass, merge into the first block
			node.Tests = bindTests(node, node.Tests, decl, remote, true)
			continue
		}

		node.Name = decl.Name
		node.File = file.Path
		node.Range = decl.Range
		node.Generation = gen
		node.Tests = bindTests(node, node.Tests, decl, remote, false)
		modules = append(modules, node)
	}

	file.Modules = modules
	file.Resolved = true
}

// bindTests builds the module's children for one declaration block.
// Existing TestNodes are reused by testId. With merge set the result extends
// current instead of replacing it.
func bindTests(module *ModuleNode, current []*TestNode, decl domain.ModuleDeclaration, remote domain.RemoteModule, merge bool) []*TestNode {
	reuse := make(map[string]*TestNode, len(current))
	for _, t := range current {
		reuse[t.TestID] = t
	}

	var tests []*TestNode
	seen := make(map[string]bool)
	if merge {
		tests = append(tests, current...)
		for _, t := range current {
			seen[t.TestID] = true
		}
	}

	for _, td := range decl.Tests {
		rt, ok := remote.Test(td.Name)
		if !ok || seen[rt.TestID] {
			continue
		}
		seen[rt.TestID] = true

		node, ok := reuse[rt.TestID]
		if !ok {
			node = &TestNode{TestID: rt.TestID}
		}
		node.Name = td.Name
		node.ModuleName = module.Name
		node.ModuleID = module.ModuleID
		node.File = module.File
		node.Range = td.Range
		node.Assertions = td.Assertions
		tests = append(tests, node)
	}

	return tests
}
