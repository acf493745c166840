package architecture

import (
	"fmt"
	"strings"
)

// RootPath is the full path of the module tree root.
const RootPath = "project"

// extractDirectoryPath returns the directory part of a repo-relative file
// path, or "." for top-level files.
func extractDirectoryPath(filePath string) string {
	lastSlash := strings.LastIndex(filePath, "/")
	if lastSlash == -1 {
		return "."
	}
	return filePath[:lastSlash]
}

// dominantDirectory returns the directory holding most of files. Ties go
// to the lexicographically smallest directory.
func dominantDirectory(files []string) string {
	if len(files) == 0 {
		return "."
	}
	counts := make(map[string]int)
	for _, f := range files {
		counts[extractDirectoryPath(f)]++
	}

	best := ""
	bestCount := -1
	for dir, n := range counts {
		if n > bestCount || (n == bestCount && dir < best) {
			best = dir
			bestCount = n
		}
	}
	return best
}

// sanitizeName lowercases s and keeps letters, digits, '-' and '_'.
// Anything else becomes '_'; an empty result becomes "module".
func sanitizeName(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return "module"
	}
	return name
}

// baseName derives a module name from its dominant directory.
func baseName(dir string) string {
	if dir == "." || dir == "" {
		return "root"
	}
	return sanitizeName(dir[strings.LastIndex(dir, "/")+1:])
}

// nameAllocator hands out unique module names, suffixing repeats with -2,
// -3 and so on.
type nameAllocator struct {
	used map[string]int
}

func newNameAllocator() *nameAllocator {
	return &nameAllocator{used: make(map[string]int)}
}

func (a *nameAllocator) allocate(base string) string {
	n := a.used[base]
	a.used[base] = n + 1
	if n == 0 {
		return base
	}
	name := fmt.Sprintf("%s-%d", base, n+1)
	for a.used[name] > 0 {
		n++
		name = fmt.Sprintf("%s-%d", base, n+1)
	}
	a.used[name] = 1
	a.used[base] = n + 1
	return name
}

// modulePath returns the dotted full path of a top-level module.
func modulePath(name string) string {
	return RootPath + "." + name
}
