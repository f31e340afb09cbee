package cache

import (
	"fmt"

	"github.com/maypok86/otter"

	"github.com/codescope/codescope/internal/callgraph"
)

// Memo is an in-memory, capacity-bounded cache of built graphs keyed by
// BuildKey. Entries are evicted by the underlying cache policy once the
// capacity is reached.
type Memo interface {
	// Get returns the cached graph for a build key, if present.
	Get(key string) (*callgraph.CallGraph, bool)

	// Put stores a built graph under its build key.
	Put(key string, g *callgraph.CallGraph)

	// Close releases the cache's background resources.
	Close()
}

type memo struct {
	cache otter.Cache[string, *callgraph.CallGraph]
}

// NewMemo creates an in-memory graph memo with the given entry capacity.
func NewMemo(maxEntries int) (Memo, error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("memo capacity must be positive, got %d", maxEntries)
	}

	cache, err := otter.MustBuilder[string, *callgraph.CallGraph](maxEntries).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build memo cache: %w", err)
	}

	return &memo{cache: cache}, nil
}

func (m *memo) Get(key string) (*callgraph.CallGraph, bool) {
	return m.cache.Get(key)
}

func (m *memo) Put(key string, g *callgraph.CallGraph) {
	m.cache.Set(key, g)
}

func (m *memo) Close() {
	m.cache.Close()
}
