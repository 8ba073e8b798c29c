// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package index

import (
	"sort"

	"github.com/petar-djukic/photon/internal/repomap"
	"github.com/petar-djukic/photon/pkg/types"
)

// RankedSymbols scores every symbol in the index by file-level PageRank
// computed over the resolved call graph, optionally personalizing
// personalize (files whose symbols should rank higher, e.g. the files a
// task is currently touching). It is an optional ranking sidecar, not
// part of the core scan/search contract: list_project_files and
// read_code_block use it to order a file's symbol summary by call-graph
// importance instead of declaration order when a file has many symbols.
func (idx *SymbolIndex) RankedSymbols(personalize ...string) []types.RankedSymbol {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var refs []types.SymbolRef
	for path, syms := range idx.fileSymbols {
		for _, s := range syms {
			refs = append(refs, types.SymbolRef{Name: s.Name, FilePath: path, Line: s.Line, Kind: types.Definition})
		}
	}
	for _, sites := range idx.symbolCalls {
		for _, cs := range sites {
			refs = append(refs, types.SymbolRef{Name: cs.Callee, FilePath: cs.CallerPath, Line: cs.Line, Kind: types.Reference})
		}
	}

	g := repomap.BuildGraph(refs)
	return repomap.Rank(g, refs, repomap.RankConfig{PersonalizedFiles: personalize})
}

// RankedFileSymbols returns path's symbols ordered by call-graph
// importance (highest PageRank score first), falling back to the
// index's declared order for symbols the ranker has no score for (e.g.
// a file with no incoming or outgoing call edges).
func (idx *SymbolIndex) RankedFileSymbols(path string) []types.Symbol {
	syms := idx.FileSymbols(path)
	if len(syms) == 0 {
		return syms
	}

	scores := make(map[string]float64, len(syms))
	for _, r := range idx.RankedSymbols(path) {
		if r.FilePath == path {
			scores[r.Name] = r.Score
		}
	}

	ranked := append([]types.Symbol(nil), syms...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i].Name] > scores[ranked[j].Name]
	})
	return ranked
}
