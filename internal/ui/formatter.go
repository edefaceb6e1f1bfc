package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"

	"qte/internal/config"
	"qte/internal/domain"
	"qte/internal/tree"
)

var (
	cyan   = color.New(color.FgCyan)
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	white  = color.New(color.FgWhite)
	gray   = color.New(color.FgHiBlack)
)

// Formatter formats and displays output
type Formatter struct {
	config *config.Config
	out    io.Writer
}

// NewFormatter creates a new Formatter writing to the terminal
func NewFormatter(cfg *config.Config) *Formatter {
	return &Formatter{config: cfg, out: color.Output}
}

// SetOutput redirects the formatter
func (f *Formatter) SetOutput(w io.Writer) {
	f.out = w
}

func (f *Formatter) rel(path string) string {
	if rel, err := filepath.Rel(f.config.ProjectPath, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return path
}

// PrintTree prints a suite's files with their bound modules and tests
func (f *Formatter) PrintTree(t *tree.Tree) {
	f.PrintFiles(t.Name, t.Files())
}

// PrintFiles prints the given files of a suite
func (f *Formatter) PrintFiles(suite string, files []*tree.FileNode) {
	tests := 0
	for _, file := range files {
		tests += len(file.Tests())
	}
	green.Fprintf(f.out, "%s: %d test file(s), %d bound test(s)\n", suite, len(files), tests)

	for i, file := range files {
		isLastFile := i == len(files)-1
		branch, indent := "├── ", "│   "
		if isLastFile {
			branch, indent = "└── ", "    "
		}
		cyan.Fprintf(f.out, "%s%s\n", branch, f.rel(file.Path))

		if !file.Resolved {
			fmt.Fprintf(f.out, "%s└── %s\n", indent, gray.Sprint("(not indexed)"))
			continue
		}
		if len(file.Modules) == 0 {
			fmt.Fprintf(f.out, "%s└── %s\n", indent, red.Sprint("(no bound modules)"))
			continue
		}

		for j, m := range file.Modules {
			isLastModule := j == len(file.Modules)-1
			mBranch, mIndent := "├── ", "│   "
			if isLastModule {
				mBranch, mIndent = "└── ", "    "
			}
			fmt.Fprintf(f.out, "%s%s%s %s\n", indent, mBranch, yellow.Sprint(m.Name), gray.Sprintf("[%s]", m.ModuleID))

			for k, tn := range m.Tests {
				tBranch := "├── "
				if k == len(m.Tests)-1 {
					tBranch = "└── "
				}
				fmt.Fprintf(f.out, "%s%s%s%s %s\n", indent, mIndent, tBranch, tn.Name,
					gray.Sprintf("[%s, %d assertion(s)]", tn.TestID, len(tn.Assertions)))
			}
		}
	}
}

// PrintSummary displays the statistics of a run and the failed tests
func (f *Formatter) PrintSummary(report domain.RunReport) {
	meta := report.Meta
	w := f.out

	// Print header
	fmt.Fprint(w, "\n")
	cyan.Fprintln(w, "╔═══════════════════════════════════════════════════════════════╗")
	cyan.Fprintln(w, "║                    Test Execution Statistics                  ║")
	cyan.Fprintln(w, "╚═══════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(w)

	row := func(label string, c *color.Color, value string, last bool) {
		fmt.Fprintf(w, "│ %-31s │ ", label)
		c.Fprintf(w, "%-27s", value)
		fmt.Fprintln(w, " │")
		if !last {
			fmt.Fprintln(w, "├─────────────────────────────────┼─────────────────────────────┤")
		}
	}

	fmt.Fprintln(w, "┌─────────────────────────────────┬─────────────────────────────┐")
	row("Selected Tests", white, fmt.Sprint(meta.SelectedTests), false)
	row("Passed Tests", green, fmt.Sprint(meta.PassedTests), false)
	row("Failed Tests", red, fmt.Sprint(meta.FailedTests), false)
	row("Skipped Tests", yellow, fmt.Sprint(meta.SkippedTests), false)
	row("State", white, meta.State, false)
	row("Duration", white, fmt.Sprintf("%.2fs", meta.DurationSeconds), false)
	row("Run ID", white, truncate(meta.RunID, 27), true)
	fmt.Fprintln(w, "└─────────────────────────────────┴─────────────────────────────┘")

	// Print summary line
	fmt.Fprintln(w)
	switch {
	case meta.FailedTests == 0 && meta.SkippedTests == 0:
		green.Fprintln(w, "✓ All tests passed!")
	case meta.FailedTests == 0:
		yellow.Fprintf(w, "- %d test(s) did not run\n", meta.SkippedTests)
	default:
		red.Fprintf(w, "✗ %d test(s) failed\n", meta.FailedTests)
		fmt.Fprintln(w)
		f.printFailedTestsTree(report.Details)
	}
}

// treeNode represents a node in the file tree structure
type treeNode struct {
	Name     string
	Children map[string]*treeNode
	Failures []domain.TestFailure
	IsFile   bool
}

// printFailedTestsTree prints a tree structure of failed tests
func (f *Formatter) printFailedTestsTree(failures []domain.TestFailure) {
	if len(failures) == 0 {
		return
	}

	// Group failures by file path
	fileMap := make(map[string][]domain.TestFailure)
	for _, failure := range failures {
		path := f.rel(failure.FilePath)
		fileMap[path] = append(fileMap[path], failure)
	}

	root := &treeNode{Children: make(map[string]*treeNode)}

	for filePath, fileFailures := range fileMap {
		parts := strings.Split(strings.TrimPrefix(filePath, "./"), "/")
		current := root

		// Navigate/create tree nodes for each path part
		for i, part := range parts {
			if part == "" {
				continue
			}

			if current.Children[part] == nil {
				current.Children[part] = &treeNode{
					Name:     part,
					Children: make(map[string]*treeNode),
					IsFile:   i == len(parts)-1,
				}
			}

			current = current.Children[part]

			// If this is the file (last part), add failures
			if i == len(parts)-1 {
				current.Failures = fileFailures
			}
		}
	}

	f.printTreeNode(root, "", true)
}

func (f *Formatter) printTreeNode(node *treeNode, prefix string, isRoot bool) {
	// Sort children for consistent output
	var keys []string
	for key := range node.Children {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for i, key := range keys {
		child := node.Children[key]
		isLastChild := i == len(keys)-1

		var connector string
		if isRoot {
			connector = ""
		} else if isLastChild {
			connector = prefix + "   |_"
		} else {
			connector = prefix + "  |_"
		}

		if child.IsFile {
			yellow.Fprintf(f.out, "%s%s\n", connector, child.Name)
		} else {
			cyan.Fprintf(f.out, "%s%s\n", connector, child.Name)
		}

		// Print test cases if this is a file
		for _, failure := range child.Failures {
			casePrefix := strings.ReplaceAll(prefix, "|", " ") + "        |_"
			red.Fprintf(f.out, "%s%s > %s", casePrefix, failure.ModuleName, failure.TestName)
			if failure.Line > 0 {
				gray.Fprintf(f.out, " (line %d)", failure.Line)
			}
			fmt.Fprintln(f.out)
		}

		var newPrefix string
		if isRoot {
			newPrefix = "  "
		} else if isLastChild {
			newPrefix = strings.ReplaceAll(prefix, "|", " ") + "  "
		} else {
			newPrefix = prefix + "  |"
		}
		f.printTreeNode(child, newPrefix, false)
	}
}

// PrintDiagnostics prints each failed test with its diagnostics
func (f *Formatter) PrintDiagnostics(failures []domain.TestFailure) {
	for _, failure := range failures {
		red.Fprintf(f.out, "✗ %s > %s\n", failure.ModuleName, failure.TestName)
		for _, d := range failure.Diagnostics {
			gray.Fprintf(f.out, "  at %s\n", d.Range)
			for _, line := range strings.Split(d.Message, "\n") {
				fmt.Fprintf(f.out, "  %s\n", line)
			}
			if d.Diff != "" {
				printDiff(f.out, d.Diff)
			}
		}
		fmt.Fprintln(f.out)
	}
}

func printDiff(w io.Writer, diff string) {
	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "@@"):
			gray.Fprintf(w, "    %s\n", line)
		case strings.HasPrefix(line, "-"):
			green.Fprintf(w, "    %s\n", line)
		case strings.HasPrefix(line, "+"):
			red.Fprintf(w, "    %s\n", line)
		default:
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
