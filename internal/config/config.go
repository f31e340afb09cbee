package config

// Config represents the complete codescope configuration.
// It can be loaded from .codescope/config.yml with environment variable overrides.
type Config struct {
	Graph GraphConfig `yaml:"graph" mapstructure:"graph"`
	Paths PathsConfig `yaml:"paths" mapstructure:"paths"`
	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`
}

// GraphConfig bounds the size and shape of built call graphs.
type GraphConfig struct {
	MaxNodes        int  `yaml:"max_nodes" mapstructure:"max_nodes"`                 // node budget per build
	MaxEdges        int  `yaml:"max_edges" mapstructure:"max_edges"`                 // edge budget per build
	ShowExternal    bool `yaml:"show_external" mapstructure:"show_external"`         // synthesize nodes for unresolved callees
	MaxSnippetLines int  `yaml:"max_snippet_lines" mapstructure:"max_snippet_lines"` // snippet middle-truncation threshold
}

// PathsConfig defines which changed files to exclude from analysis.
type PathsConfig struct {
	Ignore []string `yaml:"ignore" mapstructure:"ignore"` // glob patterns to ignore
}

// CacheConfig defines memoization behavior for built graphs.
type CacheConfig struct {
	Enabled    bool `yaml:"enabled" mapstructure:"enabled"`         // memoize graphs by (revision, files, options)
	MaxEntries int  `yaml:"max_entries" mapstructure:"max_entries"` // in-memory cache capacity
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Graph: GraphConfig{
			MaxNodes:        80,
			MaxEdges:        150,
			ShowExternal:    true,
			MaxSnippetLines: 20,
		},
		Paths: PathsConfig{
			Ignore: []string{
				"node_modules/**",
				"dist/**",
				"build/**",
				"**/*.min.js",
				"**/*.d.ts",
			},
		},
		Cache: CacheConfig{
			Enabled:    true,
			MaxEntries: 128,
		},
	}
}
