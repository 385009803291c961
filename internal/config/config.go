// Package config loads a project's indexer configuration from
// <repo>/.codeindex/config.yaml, per spec §4.0. Missing entirely is not an
// error — Load falls back to Default — only malformed YAML is.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	ConfigDir      = ".codeindex"
	ConfigFileName = "config.yaml"
	StoreFileName  = "index.db"
)

// LSPOverride replaces the default command/args used to launch a
// language's server, for languages whose server isn't on PATH under its
// conventional name.
type LSPOverride struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

// CacheConfig sizes the two-level extraction cache (internal/cache).
type CacheConfig struct {
	L1Entries int   `yaml:"l1_entries"`
	L2Bytes   int64 `yaml:"l2_bytes"`
}

// TelemetryConfig toggles process-wide tracing (internal/telemetry).
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled"`
}

// WatchConfig tunes the fsnotify-driven reindex loop (internal/watch).
type WatchConfig struct {
	DebounceMs int `yaml:"debounce_ms"`
}

// Config is a project's complete indexer configuration.
type Config struct {
	Languages   []string               `yaml:"languages"`
	Parallelism int                    `yaml:"parallelism"` // 0 = core count
	Ignore      []string               `yaml:"ignore"`      // doublestar glob patterns
	LSP         map[string]LSPOverride `yaml:"lsp,omitempty"`
	Cache       CacheConfig            `yaml:"cache"`
	Telemetry   TelemetryConfig        `yaml:"telemetry"`
	Watch       WatchConfig            `yaml:"watch"`
}

// Default returns the configuration used when a project has no config file,
// and the base every loaded file is decoded onto.
func Default() *Config {
	return &Config{
		Languages:   []string{"go", "typescript", "python", "rust"},
		Parallelism: 0,
		Ignore: []string{
			".git", ".codeindex", "node_modules", "vendor",
			"dist", "build", "target", ".venv",
		},
		Cache: CacheConfig{
			L1Entries: 1000,
			L2Bytes:   256 << 20,
		},
		Telemetry: TelemetryConfig{Enabled: true},
		Watch:     WatchConfig{DebounceMs: 300},
	}
}

// Dir returns <root>/.codeindex.
func Dir(root string) string { return filepath.Join(root, ConfigDir) }

// Path returns <root>/.codeindex/config.yaml.
func Path(root string) string { return filepath.Join(Dir(root), ConfigFileName) }

// StorePath returns <root>/.codeindex/index.db.
func StorePath(root string) string { return filepath.Join(Dir(root), StoreFileName) }

// Load reads and parses root's config file on top of Default(): a field the
// file does not set keeps its default value, while a field the file sets,
// even to a zero value, takes the file's value. A missing file is not an
// error: Load returns Default() unchanged. A malformed file is.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(Path(root))
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	return cfg, nil
}
