// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package index

import (
	"strings"

	"github.com/petar-djukic/photon/pkg/types"
)

// bareCalleeName strips a "Ns::" qualifier prefix from a callee name as
// spelled at the call site. Every calleeCnt entry is keyed by this bare
// form, whichever path (scan, watcher merge, snapshot load) built it.
func bareCalleeName(name string) string {
	if i := strings.LastIndex(name, "::"); i >= 0 {
		return name[i+2:]
	}
	return name
}

// resolveCallee resolves a single callee name against the full symbol
// table, in tie-break order: (a) exactly one local symbol in the same
// file, (b) exactly one global symbol by name or by stripped
// "Ns::Name" qualifier, (c) case-insensitive match, (d) LSP
// goto-definition as a last resort. Returns a sentinel key when no
// resolution is possible.
func (idx *SymbolIndex) resolveCallee(site types.CallSite, allSymbols map[string]types.Symbol) string {
	name := site.Callee
	bare := bareCalleeName(name)

	var local, global, ci []types.Symbol
	for _, s := range allSymbols {
		switch {
		case s.FilePath == site.CallerPath && (s.Name == name || s.Name == bare):
			local = append(local, s)
		case s.Name == name || s.Name == bare:
			global = append(global, s)
		case strings.EqualFold(s.Name, bare):
			ci = append(ci, s)
		}
	}

	if len(local) == 1 {
		return local[0].Identity()
	}
	if len(global) == 1 {
		return global[0].Identity()
	}
	if len(ci) == 1 {
		return ci[0].Identity()
	}

	if idx.lsp != nil {
		if key := idx.lsp.Definition(site.CallerPath, site.Line, site.Column); key != "" {
			if _, ok := allSymbols[key]; ok {
				return key
			}
		}
	}

	if len(local) > 1 || len(global) > 1 || len(ci) > 1 {
		return types.AmbiguousKey(bare)
	}
	return types.UnresolvedKey(bare)
}

// rebuildCallGraph fully resets the call-graph tables and rebuilds them
// from results, the complete per-file scan output of a full ScanBlocking
// pass. Must be called with the write lock held.
func (idx *SymbolIndex) rebuildCallGraph(results []*fileResult, allSymbols map[string]types.Symbol) {
	idx.symbolCalls = make(map[string][]types.CallSite)
	idx.callGraph = make(map[string][]string)
	idx.callerOut = make(map[string]int)

	for _, r := range results {
		for _, sc := range r.calls {
			idx.addCallerEdges(sc, allSymbols)
		}
	}
	idx.recountCallees()
}

// mergeFileCalls incrementally adds one file's call edges into the
// existing tables (used by the watcher's per-file update path), then
// recomputes the global callee-name counts from the merged state. Must
// be called with the write lock held.
func (idx *SymbolIndex) mergeFileCalls(r *fileResult, allSymbols map[string]types.Symbol) {
	for _, sc := range r.calls {
		idx.addCallerEdges(sc, allSymbols)
	}
	idx.recountCallees()
}

// recountCallees rebuilds calleeCnt from the raw call-site table: every
// call site counts, keyed by the bare callee name, resolved or not. The
// full scan, the watcher merge, and the snapshot load all arrive at the
// same counts this way. Must be called with the write lock held.
func (idx *SymbolIndex) recountCallees() {
	idx.calleeCnt = make(map[string]int)
	for _, sites := range idx.symbolCalls {
		for _, s := range sites {
			idx.calleeCnt[bareCalleeName(s.Callee)]++
		}
	}
}

// addCallerEdges resolves every call site for one caller symbol and
// records the resulting edges and raw call sites; callee counts are
// rebuilt afterwards by recountCallees.
func (idx *SymbolIndex) addCallerEdges(sc symbolCalls, allSymbols map[string]types.Symbol) {
	idx.symbolCalls[sc.key] = sc.sites

	seen := make(map[string]bool)
	var edges []string
	for _, site := range sc.sites {
		callee := idx.resolveCallee(site, allSymbols)
		if seen[callee] {
			continue
		}
		seen[callee] = true
		edges = append(edges, callee)
	}
	idx.callGraph[sc.key] = edges
	idx.callerOut[sc.key] = len(edges)
}
