package paths

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDataLayout(t *testing.T) {
	root := "/my/repo"

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"data dir", GetDataDir(root), filepath.Join(root, ".squint")},
		{"database", GetDatabasePath(root), filepath.Join(root, ".squint", "squint.db")},
		{"config", GetConfigPath(root), filepath.Join(root, ".squint", "config.json")},
		{"logs dir", GetLogsDir(root), filepath.Join(root, ".squint", "logs")},
		{"log file", GetLogPath(root), filepath.Join(root, ".squint", "logs", "squint.log")},
		{"layers", GetLayersPath(root), filepath.Join(root, "LAYERS.toml")},
		{"ignore", GetIgnorePath(root), filepath.Join(root, ".squintignore")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %s, want %s", tt.got, tt.want)
			}
		})
	}
}

func TestEnsureDirs(t *testing.T) {
	root := t.TempDir()

	dir, err := EnsureDataDir(root)
	if err != nil {
		t.Fatalf("EnsureDataDir failed: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("data dir not created: %v", err)
	}

	logs, err := EnsureLogsDir(root)
	if err != nil {
		t.Fatalf("EnsureLogsDir failed: %v", err)
	}
	if !strings.HasPrefix(logs, dir) {
		t.Errorf("logs dir %s should live under %s", logs, dir)
	}
	if _, err := os.Stat(logs); err != nil {
		t.Errorf("logs dir not created: %v", err)
	}
}

func TestFindRepoRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, ".squint"), 0755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	want, _ := filepath.Abs(root)
	if got := FindRepoRoot(nested); got != want {
		t.Errorf("FindRepoRoot = %s, want %s", got, want)
	}
}

func TestResolveRepoPath(t *testing.T) {
	if got := ResolveRepoPath("/repo", "index.scip"); got != filepath.Join("/repo", "index.scip") {
		t.Errorf("relative path: got %s", got)
	}
	if got := ResolveRepoPath("/repo", "/abs/index.scip"); got != "/abs/index.scip" {
		t.Errorf("absolute path should be unchanged, got %s", got)
	}
	if got := ResolveRepoPath("/repo", ""); got != "" {
		t.Errorf("empty path should stay empty, got %s", got)
	}
}

func TestCanonicalizePath(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "src", "main.go")
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(file, []byte("package main"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := CanonicalizePath(file, root)
	if err != nil {
		t.Fatalf("CanonicalizePath failed: %v", err)
	}
	if got != "src/main.go" {
		t.Errorf("got %s, want src/main.go", got)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"src/main.go", "src/main.go"},
		{"src\\main.go", "src/main.go"},
		{"./src/main.go", "src/main.go"},
	}
	for _, tt := range tests {
		if got := NormalizePath(tt.input); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestJoinRepoPath(t *testing.T) {
	got := JoinRepoPath("/repo", "src/pkg/file.go")
	want := filepath.Join("/repo", "src", "pkg", "file.go")
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}
