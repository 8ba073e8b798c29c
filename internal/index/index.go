// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package index

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/petar-djukic/photon/pkg/types"
)

// FileMeta caches a file's size, mtime and content hash so a scan can
// short-circuit reparse of files that haven't changed.
type FileMeta struct {
	Size  int64  `json:"size"`
	MTime int64  `json:"mtime"`
	Hash  uint64 `json:"hash"`
}

// symbolCalls holds the unresolved call sites gathered for one symbol,
// keyed by the caller symbol's identity.
type symbolCalls struct {
	key   string
	sites []types.CallSite
}

// SymbolIndex is the queryable map from files to their symbols and from
// symbols to call sites. A single
// reader/writer lock guards the in-memory tables; a full scan releases
// the lock between files, and the watcher never holds it during I/O.
type SymbolIndex struct {
	mu sync.RWMutex

	root        string
	registry    *Registry
	lsp         LSPSource
	concurrency int
	extraIgnore map[string]bool

	fileSymbols map[string][]types.Symbol // path -> ordered symbols
	fileMeta    map[string]FileMeta        // path -> cached meta
	symbolCalls map[string][]types.CallSite // caller key -> call sites
	callGraph   map[string][]string         // caller key -> callee keys
	calleeCnt   map[string]int              // callee name -> global count
	callerOut   map[string]int              // caller key -> out-degree

	scanning bool // true while a full scan is in flight; watcher yields
}

// Option configures a SymbolIndex at construction time.
type Option func(*SymbolIndex)

// WithLSP attaches the LSP Subprocess Bridge consulted for the
// documentSymbol fallback and goto-definition tie-break.
func WithLSP(lsp LSPSource) Option { return func(idx *SymbolIndex) { idx.lsp = lsp } }

// WithConcurrency bounds the worker pool used by scans; defaults to 2
// when unset.
func WithConcurrency(n int) Option { return func(idx *SymbolIndex) { idx.concurrency = n } }

// WithIgnore adds extra directory names to the default ignore set
// (.git, node_modules, build, .venv, .photon).
func WithIgnore(names ...string) Option {
	return func(idx *SymbolIndex) {
		for _, n := range names {
			idx.extraIgnore[n] = true
		}
	}
}

// New constructs a SymbolIndex rooted at root with an empty provider
// registry; callers register providers with RegisterProvider before the
// first scan.
func New(root string, opts ...Option) *SymbolIndex {
	idx := &SymbolIndex{
		root:        root,
		registry:    NewRegistry(),
		concurrency: 2,
		extraIgnore: make(map[string]bool),
		fileSymbols: make(map[string][]types.Symbol),
		fileMeta:    make(map[string]FileMeta),
		symbolCalls: make(map[string][]types.CallSite),
		callGraph:   make(map[string][]string),
		calleeCnt:   make(map[string]int),
		callerOut:   make(map[string]int),
	}
	for _, o := range opts {
		o(idx)
	}
	return idx
}

// RegisterProvider attaches an extraction provider. Providers are tried
// in registration order, so tree-sitter providers must be registered
// before the regex provider, which must precede the legacy provider.
func (idx *SymbolIndex) RegisterProvider(p Provider) {
	idx.registry.Register(p)
}

// reuseCached returns the cached fileResult for task if its (size,
// mtime) matches the cached FileMeta, without reading the file's
// contents. Called lock-free from scanConcurrent; it only reads fields
// that scan mutations replace wholesale under the write lock, so a
// torn read here at worst causes an unnecessary reparse, never
// corruption.
func (idx *SymbolIndex) reuseCached(t fileTask) (*fileResult, bool) {
	idx.mu.RLock()
	meta, ok := idx.fileMeta[t.relPath]
	syms := idx.fileSymbols[t.relPath]
	idx.mu.RUnlock()

	if !ok || meta.Size != t.size || meta.MTime != t.mtime {
		return nil, false
	}

	idx.mu.RLock()
	calls := idx.symbolCallsFor(syms)
	idx.mu.RUnlock()

	return &fileResult{path: t.relPath, meta: meta, symbols: syms, calls: calls}, true
}

// symbolCallsFor rebuilds the symbolCalls slice for a cached file's
// symbols from the already-indexed call-site table. Must be called with
// at least a read lock held.
func (idx *SymbolIndex) symbolCallsFor(syms []types.Symbol) []symbolCalls {
	var out []symbolCalls
	for _, s := range syms {
		key := s.Identity()
		if sites, ok := idx.symbolCalls[key]; ok {
			out = append(out, symbolCalls{key: key, sites: sites})
		}
	}
	return out
}

// ScanBlocking walks root, extracts symbols and call sites for every
// file, resolves the call graph, and commits the result, all before
// returning. It never runs concurrently with the watcher's tick; callers
// that also run Watch must not call ScanBlocking from more than one
// goroutine at a time.
func (idx *SymbolIndex) ScanBlocking() error {
	idx.mu.Lock()
	idx.scanning = true
	idx.mu.Unlock()
	defer func() {
		idx.mu.Lock()
		idx.scanning = false
		idx.mu.Unlock()
	}()

	tasks, err := walkFiles(idx.root, idx.extraIgnore)
	if err != nil {
		return err
	}

	results := idx.scanConcurrent(tasks)
	idx.commit(tasks, results)
	return nil
}

// ScanAsync starts ScanBlocking on a background goroutine and returns
// immediately; done (if non-nil) receives the terminal error.
func (idx *SymbolIndex) ScanAsync(done chan<- error) {
	go func() {
		err := idx.ScanBlocking()
		if done != nil {
			done <- err
		}
	}()
}

// commit replaces the in-memory tables with the scan's results under a
// single write-lock critical section: present files are updated, files
// no longer on disk are purged, and the call graph is rebuilt from the
// new symbol set, satisfying the invariant that no table entry refers to
// a path absent from the current tree.
func (idx *SymbolIndex) commit(tasks []fileTask, results []*fileResult) {
	present := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		present[t.relPath] = true
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for path := range idx.fileMeta {
		if !present[path] {
			delete(idx.fileMeta, path)
			delete(idx.fileSymbols, path)
		}
	}

	allSymbols := make(map[string]types.Symbol)
	for _, r := range results {
		idx.fileMeta[r.path] = r.meta
		idx.fileSymbols[r.path] = r.symbols
		for _, s := range r.symbols {
			allSymbols[s.Identity()] = s
		}
	}

	idx.rebuildCallGraph(results, allSymbols)
}

// updateFile reparses a single file and commits only that file's
// symbols and call edges, used by the watcher's per-file update path
// so a single changed file doesn't trigger a full-tree rescan.
func (idx *SymbolIndex) updateFile(relPath string) error {
	abs := filepath.Join(idx.root, relPath)
	info, err := os.Stat(abs)
	if err != nil {
		idx.removeFile(relPath)
		return nil
	}

	task := fileTask{relPath: relPath, absPath: abs, size: info.Size(), mtime: info.ModTime().Unix()}
	cached, ok := idx.reuseCached(task)
	if ok {
		idx.commitOne(cached)
		return nil
	}

	r, err := idx.scanFile(task)
	if err != nil {
		return err
	}
	idx.commitOne(r)
	return nil
}

// commitOne merges a single file's scan result into the index tables.
func (idx *SymbolIndex) commitOne(r *fileResult) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	oldSyms := idx.fileSymbols[r.path]
	idx.fileMeta[r.path] = r.meta
	idx.fileSymbols[r.path] = r.symbols

	for _, s := range oldSyms {
		key := s.Identity()
		delete(idx.symbolCalls, key)
		delete(idx.callGraph, key)
		delete(idx.callerOut, key)
	}

	allSymbols := make(map[string]types.Symbol)
	for _, syms := range idx.fileSymbols {
		for _, s := range syms {
			allSymbols[s.Identity()] = s
		}
	}
	idx.mergeFileCalls(r, allSymbols)
}

// removeFile purges a deleted file's symbols, call sites and graph edges
// from the index.
func (idx *SymbolIndex) removeFile(relPath string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	syms := idx.fileSymbols[relPath]
	delete(idx.fileMeta, relPath)
	delete(idx.fileSymbols, relPath)
	for _, s := range syms {
		key := s.Identity()
		delete(idx.symbolCalls, key)
		delete(idx.callGraph, key)
		delete(idx.callerOut, key)
	}
}

// Search performs a case-insensitive substring match over symbol names.
// Results are ordered: exact-name matches (case-insensitive) first, then
// by provider priority, then alphabetically.
func (idx *SymbolIndex) Search(q string) []types.Symbol {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	lowerQ := strings.ToLower(q)
	var matches []types.Symbol
	for _, syms := range idx.fileSymbols {
		for _, s := range syms {
			if strings.Contains(strings.ToLower(s.Name), lowerQ) {
				matches = append(matches, s)
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		aExact := strings.EqualFold(a.Name, q)
		bExact := strings.EqualFold(b.Name, q)
		if aExact != bExact {
			return aExact
		}
		if a.Source.Priority() != b.Source.Priority() {
			return a.Source.Priority() < b.Source.Priority()
		}
		return a.Name < b.Name
	})
	return matches
}

// FileSymbols returns the ordered symbols parsed from path.
func (idx *SymbolIndex) FileSymbols(path string) []types.Symbol {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	syms := idx.fileSymbols[path]
	out := make([]types.Symbol, len(syms))
	copy(out, syms)
	return out
}

// FindEnclosing returns the symbol in path with the smallest [start,end]
// span containing line, breaking ties by largest start-line.
func (idx *SymbolIndex) FindEnclosing(path string, line int) (types.Symbol, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var best types.Symbol
	found := false
	bestSpan := -1

	for _, s := range idx.fileSymbols[path] {
		end := s.EndLine
		if end == 0 {
			end = s.Line
		}
		if line < s.Line || line > end {
			continue
		}
		span := end - s.Line
		if !found || span < bestSpan || (span == bestSpan && s.Line > best.Line) {
			best = s
			bestSpan = span
			found = true
		}
	}
	return best, found
}

// CallsFor returns the call sites recorded inside symbol's body.
func (idx *SymbolIndex) CallsFor(symbol types.Symbol) []types.CallSite {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	sites := idx.symbolCalls[symbol.Identity()]
	out := make([]types.CallSite, len(sites))
	copy(out, sites)
	return out
}

// Callees returns the resolved (or sentinel) callee keys for symbol.
func (idx *SymbolIndex) Callees(symbol types.Symbol) []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	edges := idx.callGraph[symbol.Identity()]
	out := make([]string, len(edges))
	copy(out, edges)
	return out
}

// GlobalCalleeCount returns how many call sites across the whole tree
// name this callee, by its bare (unqualified) name.
func (idx *SymbolIndex) GlobalCalleeCount(name string) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.calleeCnt[name]
}

// CallerOutDegree returns the number of distinct callees symbol's body
// calls out to.
func (idx *SymbolIndex) CallerOutDegree(symbol types.Symbol) int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.callerOut[symbol.Identity()]
}

// AllSymbols returns every symbol currently indexed; the concatenation
// of FileSymbols across every indexed path.
func (idx *SymbolIndex) AllSymbols() []types.Symbol {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var out []types.Symbol
	for _, syms := range idx.fileSymbols {
		out = append(out, syms...)
	}
	return out
}

// Scanning reports whether a full scan is currently in flight; the
// watcher consults this to yield rather than run concurrently.
func (idx *SymbolIndex) Scanning() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.scanning
}
