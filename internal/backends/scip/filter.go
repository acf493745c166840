package scip

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// PathFilter excludes index documents by gitignore-style patterns.
type PathFilter struct {
	patterns []string
	matcher  *ignore.GitIgnore
}

// NewPathFilter compiles patterns plus the lines of ignoreFile, which may
// be empty or missing.
func NewPathFilter(patterns []string, ignoreFile string) (*PathFilter, error) {
	lines := append([]string{}, patterns...)
	if ignoreFile != "" {
		data, err := os.ReadFile(ignoreFile)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read ignore file: %w", err)
		}
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
	}

	var kept []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		kept = append(kept, line)
	}
	if len(kept) == 0 {
		return nil, nil
	}
	return &PathFilter{patterns: kept, matcher: ignore.CompileIgnoreLines(kept...)}, nil
}

// Excluded reports whether path matches a pattern. A nil filter excludes
// nothing.
func (f *PathFilter) Excluded(path string) bool {
	if f == nil {
		return false
	}
	return f.matcher.MatchesPath(path)
}

// Patterns returns the effective patterns in order.
func (f *PathFilter) Patterns() []string {
	if f == nil {
		return nil
	}
	return append([]string{}, f.patterns...)
}
