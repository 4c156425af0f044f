// Package config provides configuration loading and structs for the CampusLens server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Catalog CatalogConfig `yaml:"catalog"`
	Model   ModelConfig   `yaml:"model"`
	Chat    ChatConfig    `yaml:"chat"`
	Watch   WatchConfig   `yaml:"watch"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds paths for the record database and the scholarship name index.
type StorageConfig struct {
	DatabasePath         string `yaml:"database_path"`
	ScholarshipIndexPath string `yaml:"scholarship_index_path"`
}

// CatalogConfig points at the static institution catalog file.
type CatalogConfig struct {
	Path string `yaml:"path"`
}

// ModelConfig holds generative model settings. APIKey may be left empty and
// supplied via the GEMINI_API_KEY environment variable instead.
type ModelConfig struct {
	Name            string  `yaml:"name"`
	APIKey          string  `yaml:"api_key"`
	MaxOutputTokens int32   `yaml:"max_output_tokens"`
	Temperature     float32 `yaml:"temperature"`
}

// ChatConfig holds chat pipeline settings.
type ChatConfig struct {
	// MaxCandidates caps how many institution mentions one message can fan
	// out into record fetches.
	MaxCandidates int `yaml:"max_candidates"`
	// SnippetLength is how many characters of a scholarship's raw text are
	// included in the composed prompt.
	SnippetLength int `yaml:"snippet_length"`
}

// WatchConfig holds data-directory watch settings. Record files dropped into
// a watched directory are loaded into the store without a restart.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.ScholarshipIndexPath = expandPath(cfg.Storage.ScholarshipIndexPath, configDir)
	cfg.Catalog.Path = expandPath(cfg.Catalog.Path, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
