package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

var (
	// ErrInvalidNodeLimit indicates a non-positive node budget
	ErrInvalidNodeLimit = errors.New("invalid node limit")

	// ErrInvalidEdgeLimit indicates a non-positive edge budget
	ErrInvalidEdgeLimit = errors.New("invalid edge limit")

	// ErrInvalidSnippetLines indicates a non-positive snippet threshold
	ErrInvalidSnippetLines = errors.New("invalid snippet line limit")

	// ErrInvalidIgnorePattern indicates an unparseable ignore glob
	ErrInvalidIgnorePattern = errors.New("invalid ignore pattern")

	// ErrInvalidCacheSettings indicates invalid cache configuration
	ErrInvalidCacheSettings = errors.New("invalid cache settings")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validateGraph(&cfg.Graph); err != nil {
		errs = append(errs, err)
	}
	if err := validatePaths(&cfg.Paths); err != nil {
		errs = append(errs, err)
	}
	if err := validateCache(&cfg.Cache); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateGraph(cfg *GraphConfig) error {
	var errs []error

	if cfg.MaxNodes <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_nodes must be positive, got %d", ErrInvalidNodeLimit, cfg.MaxNodes))
	}
	if cfg.MaxEdges <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_edges must be positive, got %d", ErrInvalidEdgeLimit, cfg.MaxEdges))
	}
	if cfg.MaxSnippetLines <= 0 {
		errs = append(errs, fmt.Errorf("%w: max_snippet_lines must be positive, got %d", ErrInvalidSnippetLines, cfg.MaxSnippetLines))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validatePaths(cfg *PathsConfig) error {
	var errs []error

	for _, pattern := range cfg.Ignore {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q: %v", ErrInvalidIgnorePattern, pattern, err))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateCache(cfg *CacheConfig) error {
	if cfg.Enabled && cfg.MaxEntries <= 0 {
		return fmt.Errorf("%w: max_entries must be positive when cache is enabled, got %d", ErrInvalidCacheSettings, cfg.MaxEntries)
	}
	return nil
}

// joinErrors combines multiple errors into one message per line.
func joinErrors(errs []error) error {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return errors.New(strings.Join(msgs, "\n"))
}
