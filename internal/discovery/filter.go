package discovery

import (
	"path/filepath"
	"strings"
)

// Filter filters test files and test labels by name pattern
type Filter struct{}

// NewFilter creates a new Filter
func NewFilter() *Filter {
	return &Filter{}
}

// FilterByName filters test files by their base name.
// Supports patterns like "*user-test.js" or "*payment*"
func (f *Filter) FilterByName(files []string, pattern string) []string {
	if pattern == "" {
		return files
	}

	var filtered []string
	for _, file := range files {
		if f.Matches(filepath.Base(file), pattern) {
			filtered = append(filtered, file)
		}
	}
	return filtered
}

// Matches reports whether name matches pattern. Patterns without wildcards
// match as a substring; with wildcards every literal part must appear.
func (f *Filter) Matches(name, pattern string) bool {
	if pattern == "" {
		return true
	}

	// Try to match using filepath.Match (supports * and ? wildcards)
	if matched, err := filepath.Match(pattern, name); err == nil && matched {
		return true
	}

	if !strings.Contains(pattern, "*") {
		if strings.Contains(pattern, "?") {
			return false
		}
		return strings.Contains(name, pattern)
	}

	// Flexible match for patterns like "*Payment*" or "Checkout*totals"
	hasPart := false
	for _, part := range strings.Split(pattern, "*") {
		if part == "" {
			continue
		}
		hasPart = true
		if !strings.Contains(name, part) {
			return false
		}
	}
	return hasPart
}
