package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = 1

// EnvPrefix prefixes environment overrides, e.g. SQUINT_COMMUNITY_RESOLUTION.
const EnvPrefix = "SQUINT"

// Config represents the complete squint configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Community CommunityConfig `json:"community" mapstructure:"community"`
	Flows     FlowsConfig     `json:"flows" mapstructure:"flows"`
	Process   ProcessConfig   `json:"process" mapstructure:"process"`
	Analysis  AnalysisConfig  `json:"analysis" mapstructure:"analysis"`
	Ingest    IngestConfig    `json:"ingest" mapstructure:"ingest"`
	Export    ExportConfig    `json:"export" mapstructure:"export"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`
}

// CommunityConfig tunes module detection
type CommunityConfig struct {
	Resolution       float64 `json:"resolution" mapstructure:"resolution"`
	MinGain          float64 `json:"minGain" mapstructure:"minGain"`
	MaxIterations    int     `json:"maxIterations" mapstructure:"maxIterations"`
	MinCommunitySize int     `json:"minCommunitySize" mapstructure:"minCommunitySize"`
	MaxLevels        int     `json:"maxLevels" mapstructure:"maxLevels"`
}

// FlowsConfig tunes flow deduplication
type FlowsConfig struct {
	MinOverlapRatio float64 `json:"minOverlapRatio" mapstructure:"minOverlapRatio"`
}

// ProcessConfig controls process-group classification
type ProcessConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
	// GateInferred drops inferred interactions that cross process groups.
	GateInferred bool `json:"gateInferred" mapstructure:"gateInferred"`
}

// AnalysisConfig controls the analyze pipeline outside the core algorithms
type AnalysisConfig struct {
	KeySymbols int    `json:"keySymbols" mapstructure:"keySymbols"`
	LayersPath string `json:"layersPath" mapstructure:"layersPath"`
	// Force reruns analysis even when the input fingerprint is unchanged.
	Force bool `json:"force" mapstructure:"force"`
}

// IngestConfig locates the SCIP index
type IngestConfig struct {
	IndexPath string `json:"indexPath" mapstructure:"indexPath"`
	// Exclude lists gitignore-style patterns of documents to skip.
	Exclude []string `json:"exclude" mapstructure:"exclude"`
	// WatchDebounceMs is the quiet period `squint watch` waits for after
	// the index changes.
	WatchDebounceMs int `json:"watchDebounceMs" mapstructure:"watchDebounceMs"`
}

// ExportConfig controls snapshot export
type ExportConfig struct {
	Format   string `json:"format" mapstructure:"format"`
	Compress bool   `json:"compress" mapstructure:"compress"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format     string `json:"format" mapstructure:"format"`
	Level      string `json:"level" mapstructure:"level"`
	File       bool   `json:"file" mapstructure:"file"`
	MaxSize    string `json:"maxSize" mapstructure:"maxSize"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Community: CommunityConfig{
			Resolution:       1.0,
			MinGain:          0.0001,
			MaxIterations:    100,
			MinCommunitySize: 3,
			MaxLevels:        1,
		},
		Flows: FlowsConfig{
			MinOverlapRatio: 0.5,
		},
		Process: ProcessConfig{
			Enabled:      true,
			GateInferred: true,
		},
		Analysis: AnalysisConfig{
			KeySymbols: 5,
			LayersPath: "LAYERS.toml",
		},
		Ingest: IngestConfig{
			IndexPath:       "index.scip",
			Exclude:         []string{"vendor/", "node_modules/"},
			WatchDebounceMs: 500,
		},
		Export: ExportConfig{
			Format: "json",
		},
		Logging: LoggingConfig{
			Format:     "human",
			Level:      "info",
			File:       true,
			MaxSize:    "10MB",
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads .squint/config.json, applying SQUINT_* environment
// overrides on top. A missing file yields the defaults plus overrides.
func LoadConfig(repoRoot string) (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(repoRoot, ".squint"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return unmarshal(v)
}

// LoadConfigFromPath loads an explicit config file.
func LoadConfigFromPath(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// setDefaults registers every key so AutomaticEnv can resolve it on Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)

	v.SetDefault("community.resolution", d.Community.Resolution)
	v.SetDefault("community.minGain", d.Community.MinGain)
	v.SetDefault("community.maxIterations", d.Community.MaxIterations)
	v.SetDefault("community.minCommunitySize", d.Community.MinCommunitySize)
	v.SetDefault("community.maxLevels", d.Community.MaxLevels)

	v.SetDefault("flows.minOverlapRatio", d.Flows.MinOverlapRatio)

	v.SetDefault("process.enabled", d.Process.Enabled)
	v.SetDefault("process.gateInferred", d.Process.GateInferred)

	v.SetDefault("analysis.keySymbols", d.Analysis.KeySymbols)
	v.SetDefault("analysis.layersPath", d.Analysis.LayersPath)
	v.SetDefault("analysis.force", d.Analysis.Force)

	v.SetDefault("ingest.indexPath", d.Ingest.IndexPath)
	v.SetDefault("ingest.exclude", d.Ingest.Exclude)
	v.SetDefault("ingest.watchDebounceMs", d.Ingest.WatchDebounceMs)

	v.SetDefault("export.format", d.Export.Format)
	v.SetDefault("export.compress", d.Export.Compress)

	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.maxSize", d.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", d.Logging.MaxBackups)
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration to .squint/config.json
func (c *Config) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, ".squint")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch {
	case c.Version != CurrentVersion:
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	case c.Community.Resolution <= 0:
		return &ConfigError{Field: "community.resolution", Message: "must be positive"}
	case c.Community.MinGain < 0:
		return &ConfigError{Field: "community.minGain", Message: "must not be negative"}
	case c.Community.MaxIterations <= 0:
		return &ConfigError{Field: "community.maxIterations", Message: "must be positive"}
	case c.Community.MinCommunitySize < 1:
		return &ConfigError{Field: "community.minCommunitySize", Message: "must be at least 1"}
	case c.Community.MaxLevels < 1:
		return &ConfigError{Field: "community.maxLevels", Message: "must be at least 1"}
	case c.Flows.MinOverlapRatio <= 0 || c.Flows.MinOverlapRatio > 1:
		return &ConfigError{Field: "flows.minOverlapRatio", Message: "must be in (0, 1]"}
	case c.Analysis.KeySymbols < 0:
		return &ConfigError{Field: "analysis.keySymbols", Message: "must not be negative"}
	case c.Ingest.WatchDebounceMs < 0:
		return &ConfigError{Field: "ingest.watchDebounceMs", Message: "must not be negative"}
	}

	switch c.Export.Format {
	case "json", "yaml", "toml", "text":
	default:
		return &ConfigError{Field: "export.format", Message: "must be one of json, yaml, toml, text"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
