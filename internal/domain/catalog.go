package domain

// RemoteTest is a test as registered by the running application
type RemoteTest struct {
	Name   string `json:"name"`
	TestID string `json:"testId"`
}

// RemoteModule is a module as registered by the running application
type RemoteModule struct {
	Name     string       `json:"name"`
	ModuleID string       `json:"moduleId"`
	Tests    []RemoteTest `json:"tests"`
}

// Catalog is the application's registry of modules and tests.
// It is read-only once built; the zero value is an empty catalog.
type Catalog struct {
	modules []RemoteModule
	byName  map[string]int
}

// NewCatalog indexes modules by exact name. When a name repeats the first
// registration wins, matching how the application resolves filters.
func NewCatalog(modules []RemoteModule) Catalog {
	c := Catalog{
		modules: modules,
		byName:  make(map[string]int, len(modules)),
	}
	for i, m := range modules {
		if _, ok := c.byName[m.Name]; !ok {
			c.byName[m.Name] = i
		}
	}
	return c
}

// Modules returns the registered modules in application order
func (c Catalog) Modules() []RemoteModule {
	return c.modules
}

// Len returns the number of registered modules
func (c Catalog) Len() int {
	return len(c.modules)
}

// Module looks up a module by exact name
func (c Catalog) Module(name string) (RemoteModule, bool) {
	i, ok := c.byName[name]
	if !ok {
		return RemoteModule{}, false
	}
	return c.modules[i], true
}

// Test looks up a test by exact name inside the module
func (m RemoteModule) Test(name string) (RemoteTest, bool) {
	for _, t := range m.Tests {
		if t.Name == name {
			return t, true
		}
	}
	return RemoteTest{}, false
}

// TestCount returns the number of tests across all modules
func (c Catalog) TestCount() int {
	n := 0
	for _, m := range c.modules {
		n += len(m.Tests)
	}
	return n
}
