package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/codescope/codescope/internal/callgraph"
	"github.com/codescope/codescope/internal/diff"
)

// BuildKey returns the memoization key for a graph build.
// The key combines the revision, the full changed-file set (paths and ranges,
// including files that are changed but not parseable), the analyzed file
// contents, and the graph options, so any change to the inputs produces a
// new key.
// Format: {revisionHash}-{changedHash}-{filesHash}-{optionsHash} where each
// hash is 8 chars.
func BuildKey(revision string, changed []diff.FileChangedRanges, files []callgraph.SourceFile, opts callgraph.Options) string {
	return revisionHash(revision) + "-" + changedHash(changed) + "-" + filesHash(files) + "-" + optionsHash(opts)
}

// revisionHash returns an 8-char hash of the revision.
// Returns "00000000" for an empty revision (no HEAD, e.g. a fresh repo).
func revisionHash(revision string) string {
	if revision == "" {
		return "00000000"
	}
	return hashString(revision)[:8]
}

// changedHash returns an 8-char hash of the changed-file set: every path and
// its merged ranges. Unsupported files carry no content but still shape the
// result (the changed-vs-parseable counters), so they must shape the key too.
func changedHash(changed []diff.FileChangedRanges) string {
	entries := make([]string, len(changed))
	for i, fc := range changed {
		spans := make([]string, len(fc.Ranges))
		for j, r := range fc.Ranges {
			spans[j] = fmt.Sprintf("%d-%d", r.Start, r.End)
		}
		entries[i] = fc.FilePath + "\x00" + strings.Join(spans, ",")
	}
	sort.Strings(entries)
	return hashString(strings.Join(entries, "\n"))[:8]
}

// filesHash returns an 8-char hash of the file set. File order does not
// affect the key: entries are hashed in sorted path order.
func filesHash(files []callgraph.SourceFile) string {
	entries := make([]string, len(files))
	for i, f := range files {
		entries[i] = f.Path + "\x00" + hashString(string(f.Content))
	}
	sort.Strings(entries)
	return hashString(strings.Join(entries, "\n"))[:8]
}

// optionsHash returns an 8-char hash of the graph options.
func optionsHash(opts callgraph.Options) string {
	s := fmt.Sprintf("nodes=%d;edges=%d;external=%t;snippet=%d",
		opts.MaxNodes, opts.MaxEdges, opts.ShowExternal, opts.MaxSnippetLines)
	return hashString(s)[:8]
}

// hashString returns SHA-256 hash of the input string as hex.
func hashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}
