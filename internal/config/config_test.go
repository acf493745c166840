package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Community.Resolution != 1.0 {
		t.Errorf("Resolution = %v, want 1.0", cfg.Community.Resolution)
	}
	if cfg.Community.MinCommunitySize != 3 {
		t.Errorf("MinCommunitySize = %d, want 3", cfg.Community.MinCommunitySize)
	}
	if cfg.Community.MaxIterations != 100 {
		t.Errorf("MaxIterations = %d, want 100", cfg.Community.MaxIterations)
	}
	if cfg.Flows.MinOverlapRatio != 0.5 {
		t.Errorf("MinOverlapRatio = %v, want 0.5", cfg.Flows.MinOverlapRatio)
	}
	if !cfg.Process.Enabled {
		t.Error("process classification should be enabled by default")
	}
	if len(cfg.Ingest.Exclude) != 2 || cfg.Ingest.WatchDebounceMs != 500 {
		t.Errorf("Ingest = %+v", cfg.Ingest)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad version", func(c *Config) { c.Version = 99 }, "version"},
		{"zero resolution", func(c *Config) { c.Community.Resolution = 0 }, "community.resolution"},
		{"negative gain", func(c *Config) { c.Community.MinGain = -1 }, "community.minGain"},
		{"zero iterations", func(c *Config) { c.Community.MaxIterations = 0 }, "community.maxIterations"},
		{"zero min size", func(c *Config) { c.Community.MinCommunitySize = 0 }, "community.minCommunitySize"},
		{"overlap above one", func(c *Config) { c.Flows.MinOverlapRatio = 1.5 }, "flows.minOverlapRatio"},
		{"negative debounce", func(c *Config) { c.Ingest.WatchDebounceMs = -1 }, "ingest.watchDebounceMs"},
		{"bad export format", func(c *Config) { c.Export.Format = "xml" }, "export.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			ce, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("error type = %T, want *ConfigError", err)
			}
			if ce.Field != tt.wantErr {
				t.Errorf("Field = %q, want %q", ce.Field, tt.wantErr)
			}
		})
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Field: "community.resolution", Message: "must be positive"}
	want := "config error in field 'community.resolution': must be positive"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestLoadConfig_Default(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Version != CurrentVersion {
		t.Errorf("Version = %d, want %d", cfg.Version, CurrentVersion)
	}
	if cfg.Community.MinGain != 0.0001 {
		t.Errorf("MinGain = %v, want 0.0001", cfg.Community.MinGain)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	tmpDir := t.TempDir()
	dir := filepath.Join(tmpDir, ".squint")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create .squint dir: %v", err)
	}

	content := `{
		"version": 1,
		"community": {"resolution": 2.0, "minCommunitySize": 5},
		"flows": {"minOverlapRatio": 0.75},
		"ingest": {"indexPath": "build/index.scip"}
	}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Community.Resolution != 2.0 {
		t.Errorf("Resolution = %v, want 2.0", cfg.Community.Resolution)
	}
	if cfg.Community.MinCommunitySize != 5 {
		t.Errorf("MinCommunitySize = %d, want 5", cfg.Community.MinCommunitySize)
	}
	if cfg.Community.MaxIterations != 100 {
		t.Errorf("MaxIterations = %d, want default 100", cfg.Community.MaxIterations)
	}
	if cfg.Flows.MinOverlapRatio != 0.75 {
		t.Errorf("MinOverlapRatio = %v, want 0.75", cfg.Flows.MinOverlapRatio)
	}
	if cfg.Ingest.IndexPath != "build/index.scip" {
		t.Errorf("IndexPath = %q", cfg.Ingest.IndexPath)
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SQUINT_COMMUNITY_RESOLUTION", "0.5")
	t.Setenv("SQUINT_PROCESS_ENABLED", "false")
	t.Setenv("SQUINT_EXPORT_FORMAT", "yaml")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Community.Resolution != 0.5 {
		t.Errorf("Resolution = %v, want 0.5", cfg.Community.Resolution)
	}
	if cfg.Process.Enabled {
		t.Error("SQUINT_PROCESS_ENABLED=false should disable classification")
	}
	if cfg.Export.Format != "yaml" {
		t.Errorf("Export.Format = %q, want yaml", cfg.Export.Format)
	}
}

func TestLoadConfigFromPath_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfigFromPath(path); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestLoadConfigFromPath_NotFound(t *testing.T) {
	if _, err := LoadConfigFromPath(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestConfig_Save(t *testing.T) {
	tmpDir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Community.MinCommunitySize = 7
	cfg.Export.Compress = true

	if err := cfg.Save(tmpDir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig() after save error = %v", err)
	}
	if loaded.Community.MinCommunitySize != 7 {
		t.Errorf("MinCommunitySize = %d, want 7", loaded.Community.MinCommunitySize)
	}
	if !loaded.Export.Compress {
		t.Error("Export.Compress should round trip")
	}
}
