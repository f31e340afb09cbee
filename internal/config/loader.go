package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// NewFileLoader creates a loader that reads a specific config file instead of
// searching the root directory.
func NewFileLoader(configFile string) Loader {
	return &loader{
		configFile: configFile,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (CODESCOPE_*)
// 2. Config file (.codescope/config.yml or .codescope/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		configDir := filepath.Join(l.rootDir, ".codescope")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir)
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("CODESCOPE")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., CODESCOPE_GRAPH_MAX_NODES)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("graph.max_nodes")
	v.BindEnv("graph.max_edges")
	v.BindEnv("graph.show_external")
	v.BindEnv("graph.max_snippet_lines")
	// Comma-separated: viper's default decode hooks split it into a slice.
	v.BindEnv("paths.ignore")
	v.BindEnv("cache.enabled")
	v.BindEnv("cache.max_entries")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - defaults + env vars apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("graph.max_nodes", defaults.Graph.MaxNodes)
	v.SetDefault("graph.max_edges", defaults.Graph.MaxEdges)
	v.SetDefault("graph.show_external", defaults.Graph.ShowExternal)
	v.SetDefault("graph.max_snippet_lines", defaults.Graph.MaxSnippetLines)

	v.SetDefault("paths.ignore", defaults.Paths.Ignore)

	v.SetDefault("cache.enabled", defaults.Cache.Enabled)
	v.SetDefault("cache.max_entries", defaults.Cache.MaxEntries)
}

// LoadConfig is a convenience function that creates a loader and loads config.
// It uses the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}

// LoadConfigFromFile loads configuration from an explicit config file.
// Unlike directory search, a missing explicit file is an error.
func LoadConfigFromFile(configFile string) (*Config, error) {
	return NewFileLoader(configFile).Load()
}
