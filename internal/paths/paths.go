package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DataDirName is the per-repository state directory.
	DataDirName = ".squint"
	// DatabaseFile holds ingested symbols and analysis results.
	DatabaseFile = "squint.db"
	// ConfigFile is the JSON configuration inside the data directory.
	ConfigFile = "config.json"
	// LogsSubdir holds squint.log and its rotated backups.
	LogsSubdir = "logs"
	// LogFile is the CLI log file name.
	LogFile = "squint.log"
	// LayersFile holds manual module layer overrides, at the repo root.
	LayersFile = "LAYERS.toml"
	// IgnoreFile holds gitignore-style ingest exclusions, at the repo root.
	IgnoreFile = ".squintignore"
)

// GetDataDir returns <repoRoot>/.squint
func GetDataDir(repoRoot string) string {
	return filepath.Join(repoRoot, DataDirName)
}

// EnsureDataDir creates <repoRoot>/.squint if needed.
func EnsureDataDir(repoRoot string) (string, error) {
	dir := GetDataDir(repoRoot)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dir, nil
}

// GetDatabasePath returns <repoRoot>/.squint/squint.db
func GetDatabasePath(repoRoot string) string {
	return filepath.Join(GetDataDir(repoRoot), DatabaseFile)
}

// GetConfigPath returns <repoRoot>/.squint/config.json
func GetConfigPath(repoRoot string) string {
	return filepath.Join(GetDataDir(repoRoot), ConfigFile)
}

// GetLogsDir returns <repoRoot>/.squint/logs
func GetLogsDir(repoRoot string) string {
	return filepath.Join(GetDataDir(repoRoot), LogsSubdir)
}

// EnsureLogsDir creates the logs directory if needed.
func EnsureLogsDir(repoRoot string) (string, error) {
	dir := GetLogsDir(repoRoot)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create logs directory: %w", err)
	}
	return dir, nil
}

// GetLogPath returns <repoRoot>/.squint/logs/squint.log
func GetLogPath(repoRoot string) string {
	return filepath.Join(GetLogsDir(repoRoot), LogFile)
}

// GetLayersPath returns <repoRoot>/LAYERS.toml
func GetLayersPath(repoRoot string) string {
	return filepath.Join(repoRoot, LayersFile)
}

// GetIgnorePath returns <repoRoot>/.squintignore
func GetIgnorePath(repoRoot string) string {
	return filepath.Join(repoRoot, IgnoreFile)
}

// ResolveRepoPath makes p absolute against repoRoot unless it already is.
func ResolveRepoPath(repoRoot, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return JoinRepoPath(repoRoot, p)
}

// FindRepoRoot walks up from dir looking for a .squint or .git directory.
// It returns dir itself when neither is found.
func FindRepoRoot(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	for cur := abs; ; {
		for _, marker := range []string{DataDirName, ".git"} {
			if info, err := os.Stat(filepath.Join(cur, marker)); err == nil && info.IsDir() {
				return cur
			}
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs
		}
		cur = parent
	}
}

// CanonicalizePath converts an absolute path to a repo-relative path with
// forward slashes, resolving symlinks when the path exists.
func CanonicalizePath(absolutePath string, repoRoot string) (string, error) {
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		resolved = absolutePath
	}

	rootResolved, err := filepath.EvalSymlinks(repoRoot)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}
		rootResolved = repoRoot
	}

	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// NormalizePath converts backslashes to forward slashes and strips a
// leading "./".
func NormalizePath(path string) string {
	p := strings.ReplaceAll(path, "\\", "/")
	return strings.TrimPrefix(p, "./")
}

// JoinRepoPath joins a repo root with a canonical path
func JoinRepoPath(repoRoot string, canonicalPath string) string {
	parts := strings.Split(NormalizePath(canonicalPath), "/")
	return filepath.Join(append([]string{repoRoot}, parts...)...)
}
