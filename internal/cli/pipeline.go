package cli

import (
	"fmt"
	"log"

	"github.com/gobwas/glob"

	"github.com/codescope/codescope/internal/cache"
	"github.com/codescope/codescope/internal/callgraph"
	"github.com/codescope/codescope/internal/config"
	"github.com/codescope/codescope/internal/diff"
	"github.com/codescope/codescope/internal/git"
)

// pipeline wires git, config, caching, and the graph builder into the flow
// shared by the graph and watch commands.
type pipeline struct {
	ops     git.Operations
	cfg     *config.Config
	rootDir string
	ignore  []glob.Glob
	memo    cache.Memo
	store   *cache.Store
}

// newPipeline resolves the worktree root, loads configuration, and opens the
// graph caches when enabled.
func newPipeline(repoPath string) (*pipeline, error) {
	ops := git.NewOperations()
	rootDir := ops.GetWorktreeRoot(repoPath)

	var cfg *config.Config
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadConfigFromFile(cfgFile)
	} else {
		cfg, err = config.LoadConfigFromDir(rootDir)
	}
	if err != nil {
		return nil, err
	}

	p := &pipeline{
		ops:     ops,
		cfg:     cfg,
		rootDir: rootDir,
	}

	for _, pattern := range cfg.Paths.Ignore {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid ignore pattern %q: %w", pattern, err)
		}
		p.ignore = append(p.ignore, g)
	}

	if cfg.Cache.Enabled {
		memo, err := cache.NewMemo(cfg.Cache.MaxEntries)
		if err != nil {
			return nil, err
		}
		store, err := cache.OpenStore(rootDir, cfg.Cache.MaxEntries)
		if err != nil {
			memo.Close()
			return nil, err
		}
		p.memo = memo
		p.store = store
	}

	return p, nil
}

// Close releases cache resources.
func (p *pipeline) Close() {
	if p.memo != nil {
		p.memo.Close()
	}
	if p.store != nil {
		p.store.Close()
	}
}

// Options returns the graph options from configuration.
func (p *pipeline) Options() callgraph.Options {
	return callgraph.Options{
		MaxNodes:        p.cfg.Graph.MaxNodes,
		MaxEdges:        p.cfg.Graph.MaxEdges,
		ShowExternal:    p.cfg.Graph.ShowExternal,
		MaxSnippetLines: p.cfg.Graph.MaxSnippetLines,
	}
}

// BuildGraph builds the call graph for a commit, or for the working tree when
// commit is empty. Results are memoized by revision, file set, and options.
func (p *pipeline) BuildGraph(commit string, progress callgraph.ProgressReporter) (*callgraph.CallGraph, error) {
	var patch string
	var err error
	if commit != "" {
		patch, err = p.ops.GetCommitDiff(p.rootDir, commit)
	} else {
		patch, err = p.ops.GetWorkingDiff(p.rootDir)
	}
	if err != nil {
		return nil, err
	}

	changed, err := diff.RangesFromPatch(patch)
	if err != nil {
		return nil, err
	}
	changed = p.filterIgnored(changed)

	// Post-image content: the commit itself for commit builds, the working
	// tree otherwise.
	revision := commit
	files := make([]callgraph.SourceFile, 0, len(changed))
	for _, fc := range changed {
		if !callgraph.IsSupported(fc.FilePath) {
			continue
		}
		content, err := p.ops.ReadFile(p.rootDir, fc.FilePath, revision)
		if err != nil {
			log.Printf("Warning: failed to read %s: %v", fc.FilePath, err)
			continue
		}
		files = append(files, callgraph.SourceFile{Path: fc.FilePath, Content: content})
	}

	opts := p.Options()

	cacheRev := revision
	if cacheRev == "" {
		cacheRev = p.ops.GetHeadRevision(p.rootDir)
	}
	key := cache.BuildKey(cacheRev, changed, files, opts)

	if g, ok := p.lookupCached(key); ok {
		return g, nil
	}

	g := callgraph.NewBuilder(opts, callgraph.WithProgress(progress)).Build(files, changed)
	p.storeCached(key, cacheRev, g)
	return g, nil
}

// filterIgnored drops changed files matching any configured ignore glob.
func (p *pipeline) filterIgnored(changed []diff.FileChangedRanges) []diff.FileChangedRanges {
	if len(p.ignore) == 0 {
		return changed
	}
	kept := changed[:0]
	for _, fc := range changed {
		if p.isIgnored(fc.FilePath) {
			continue
		}
		kept = append(kept, fc)
	}
	return kept
}

func (p *pipeline) isIgnored(filePath string) bool {
	for _, g := range p.ignore {
		if g.Match(filePath) {
			return true
		}
	}
	return false
}

func (p *pipeline) lookupCached(key string) (*callgraph.CallGraph, bool) {
	if p.memo != nil {
		if g, ok := p.memo.Get(key); ok {
			return g, true
		}
	}
	if p.store != nil {
		g, ok, err := p.store.Get(key)
		if err != nil {
			log.Printf("Warning: cache read failed: %v", err)
			return nil, false
		}
		if ok {
			if p.memo != nil {
				p.memo.Put(key, g)
			}
			return g, true
		}
	}
	return nil, false
}

func (p *pipeline) storeCached(key, revision string, g *callgraph.CallGraph) {
	if p.memo != nil {
		p.memo.Put(key, g)
	}
	if p.store != nil {
		if err := p.store.Put(key, revision, g); err != nil {
			log.Printf("Warning: cache write failed: %v", err)
		}
	}
}
