package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// Scanner scans for test files in a directory
type Scanner struct {
	skipDirs  map[string]bool
	extension string

	// gitignore rules and the directory they are relative to
	ignore     *ignore.GitIgnore
	ignoreBase string
}

// NewScanner creates a new Scanner with the given directories to skip.
// Only files ending in extension are reported.
func NewScanner(skipDirs []string, extension string) *Scanner {
	skipMap := make(map[string]bool)
	for _, dir := range skipDirs {
		skipMap[dir] = true
	}
	return &Scanner{skipDirs: skipMap, extension: extension}
}

// UseGitignore loads <projectRoot>/.gitignore. A missing file is not an error.
func (s *Scanner) UseGitignore(projectRoot string) error {
	path := filepath.Join(projectRoot, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load gitignore: %w", err)
	}
	s.ignore = gi
	s.ignoreBase = projectRoot
	return nil
}

// Scan finds all test files in the given root directory, sorted by path
func (s *Scanner) Scan(root string) ([]string, error) {
	var testfiles []string

	// Clean and validate the root path
	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("test path does not exist: %s", root)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("test path is not a directory: %s", root)
	}

	err = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			name := d.Name()
			// Skip hidden directories (starting with .)
			if strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}

			if s.skipDirs[name] || s.ignored(path) {
				return filepath.SkipDir
			}

			return nil
		}

		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		if strings.HasSuffix(d.Name(), s.extension) && !s.ignored(path) {
			testfiles = append(testfiles, path)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(testfiles)
	return testfiles, nil
}

func (s *Scanner) ignored(path string) bool {
	if s.ignore == nil {
		return false
	}
	rel, err := filepath.Rel(s.ignoreBase, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	return s.ignore.MatchesPath(filepath.ToSlash(rel))
}
