package domain

import "fmt"

// SourceRange is a span of text inside a test file.
// Lines and columns are zero-based; columns count bytes.
type SourceRange struct {
	File        string `json:"file"`
	StartLine   int    `json:"start_line"`
	StartColumn int    `json:"start_column"`
	EndLine     int    `json:"end_line"`
	EndColumn   int    `json:"end_column"`
}

// String renders the range as file:line:col with one-based coordinates
func (r SourceRange) String() string {
	return fmt.Sprintf("%s:%d:%d", r.File, r.StartLine+1, r.StartColumn+1)
}

// IsZero reports whether the range was never set
func (r SourceRange) IsZero() bool {
	return r == SourceRange{}
}

// TestDeclaration is a single test(name, fn) call found in a module body
type TestDeclaration struct {
	Name       string        // First argument of the test call
	Range      SourceRange   // The whole test(...) call
	Assertions []SourceRange // One range per assert call site, in source order
}

// ModuleDeclaration is a top-level module(name, fn) call
type ModuleDeclaration struct {
	Name  string
	Range SourceRange
	Tests []TestDeclaration
}
