package callgraph

import (
	"sort"
	"strings"
)

// NameLookup maps a callable name to its candidate symbols. It is built once
// per build and never mutated afterwards; later phases read it by reference.
type NameLookup map[string][]*FunctionSymbol

// BuildNameLookup indexes symbols by name. Each symbol is inserted under its
// full (possibly qualified) name; qualified methods are additionally aliased
// under their bare method name so this.method() calls resolve. Aliases
// augment, never replace, the qualified-name bucket.
func BuildNameLookup(symbols []FunctionSymbol) NameLookup {
	lookup := make(NameLookup, len(symbols))
	for i := range symbols {
		sym := &symbols[i]
		lookup[sym.Name] = append(lookup[sym.Name], sym)

		if idx := strings.LastIndex(sym.Name, "."); idx >= 0 {
			bare := sym.Name[idx+1:]
			if bare != "" && bare != sym.Name {
				lookup[bare] = append(lookup[bare], sym)
			}
		}
	}
	return lookup
}

// ResolveCallTarget resolves a call site against the lookup, mutating it in
// place. A candidate in the caller's own file wins; otherwise the candidate
// with the lowest (filePath, range start) is chosen so cross-file name
// collisions resolve deterministically. Returns nil when unresolved.
func ResolveCallTarget(cs *CallSite, callerFilePath string, lookup NameLookup) *FunctionSymbol {
	candidates := lookup[cs.Callee]
	if len(candidates) == 0 {
		return nil
	}

	var sameFile []*FunctionSymbol
	for _, c := range candidates {
		if c.FilePath == callerFilePath {
			sameFile = append(sameFile, c)
		}
	}

	pool := candidates
	if len(sameFile) > 0 {
		pool = sameFile
	}

	target := pool[0]
	if len(pool) > 1 {
		sorted := make([]*FunctionSymbol, len(pool))
		copy(sorted, pool)
		sort.SliceStable(sorted, func(i, j int) bool {
			if sorted[i].FilePath != sorted[j].FilePath {
				return sorted[i].FilePath < sorted[j].FilePath
			}
			return sorted[i].Range.Start < sorted[j].Range.Start
		})
		target = sorted[0]
	}

	cs.Resolved = true
	cs.TargetID = target.ID
	return target
}
