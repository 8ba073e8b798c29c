// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package index

import (
	"hash/fnv"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/petar-djukic/photon/pkg/types"
)

// defaultIgnore is the directory-name ignore list applied during a walk.
var defaultIgnore = map[string]bool{
	".git":         true,
	"node_modules": true,
	"build":        true,
	".venv":        true,
	".photon":      true,
}

// fileTask is one file discovered by walkFiles, ready for metadata
// comparison and, if needed, parsing.
type fileTask struct {
	relPath string
	absPath string
	size    int64
	mtime   int64
}

// walkFiles walks root, skipping defaultIgnore directory names (and any
// extra names in ignore), and returns every regular file found with its
// relative path, size and mtime. Inaccessible entries are skipped, not
// fatal: a single unreadable file never aborts a scan.
func walkFiles(root string, extraIgnore map[string]bool) ([]fileTask, error) {
	var tasks []fileTask

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (defaultIgnore[name] || extraIgnore[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)
		tasks = append(tasks, fileTask{
			relPath: rel,
			absPath: path,
			size:    info.Size(),
			mtime:   info.ModTime().Unix(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].relPath < tasks[j].relPath })
	return tasks, nil
}

// fnvHash computes the 64-bit FNV-1a content hash used by FileMeta to
// short-circuit reparse of unchanged files. FNV-1a is a checksum, not a
// cryptographic primitive; no domain library in the pack covers this
// concern, so stdlib hash/fnv is used directly.
func fnvHash(content []byte) uint64 {
	h := fnv.New64a()
	h.Write(content)
	return h.Sum64()
}

// scanFile reads path, computes its content hash, extracts symbols
// through the provider registry (falling through to the lower-priority
// providers that claim the extension), and extracts call sites for every
// extracted symbol that supports it. The LSP source (idx.lsp), when set,
// is consulted once if the registry's first matching provider returns no
// symbols, before falling through to the remaining providers.
func (idx *SymbolIndex) scanFile(task fileTask) (*fileResult, error) {
	content, err := os.ReadFile(task.absPath)
	if err != nil {
		return nil, err
	}

	hash := fnvHash(content)
	ext := extOf(task.relPath)

	// (size, mtime) changed but the bytes didn't: reuse the cached
	// symbols under refreshed metadata instead of reparsing.
	idx.mu.RLock()
	cachedMeta, cachedOK := idx.fileMeta[task.relPath]
	cachedSyms := idx.fileSymbols[task.relPath]
	var cachedCalls []symbolCalls
	if cachedOK && cachedMeta.Hash == hash {
		cachedCalls = idx.symbolCallsFor(cachedSyms)
	}
	idx.mu.RUnlock()
	if cachedOK && cachedMeta.Hash == hash {
		return &fileResult{
			path:    task.relPath,
			meta:    FileMeta{Size: task.size, MTime: task.mtime, Hash: hash},
			symbols: cachedSyms,
			calls:   cachedCalls,
		}, nil
	}

	syms := idx.extractWithFallback(task.relPath, ext, content)
	syms = dedupeSymbols(syms)

	var calls []symbolCalls
	for _, sym := range syms {
		end := sym.EndLine
		if end == 0 {
			end = sym.Line
		}
		for _, p := range idx.registry.Providers(ext) {
			ce, ok := p.(CallExtractor)
			if !ok {
				continue
			}
			sites := ce.ExtractCalls(task.relPath, content, sym.Name, sym.Line, end)
			if len(sites) > 0 {
				calls = append(calls, symbolCalls{key: sym.Identity(), sites: sites})
				break
			}
		}
	}

	return &fileResult{
		path:    task.relPath,
		meta:    FileMeta{Size: task.size, MTime: task.mtime, Hash: hash},
		symbols: syms,
		calls:   calls,
	}, nil
}

// extractWithFallback runs the registry's provider chain, consulting the
// LSP bridge (if configured for ext) as a one-time fallback when the
// highest-priority matching provider returns nothing, then continuing to
// fall through to lower-priority providers.
func (idx *SymbolIndex) extractWithFallback(path, ext string, content []byte) []types.Symbol {
	providers := idx.registry.Providers(ext)
	if len(providers) == 0 {
		return nil
	}

	first := providers[0].ExtractSymbols(path, content)
	if len(first) > 0 {
		return first
	}

	if idx.lsp != nil {
		if syms := idx.lsp.DocumentSymbols(path); len(syms) > 0 {
			return syms
		}
	}

	for _, p := range providers[1:] {
		syms := p.ExtractSymbols(path, content)
		if len(syms) > 0 {
			return syms
		}
	}
	return nil
}

// dedupeSymbols removes duplicate symbols by the composite key
// kind|name|source|path|line|signature, collapsing the same declaration
// reported by more than one provider.
func dedupeSymbols(in []types.Symbol) []types.Symbol {
	if len(in) == 0 {
		return in
	}
	seen := make(map[string]bool, len(in))
	out := make([]types.Symbol, 0, len(in))
	for _, s := range in {
		key := strings.Join([]string{
			s.Kind.String(), s.Name, string(s.Source), s.FilePath,
			itoaCache(s.Line), s.Signature,
		}, "|")
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

// fileResult is the outcome of scanning a single file.
type fileResult struct {
	path    string
	meta    FileMeta
	symbols []types.Symbol
	calls   []symbolCalls
}

// scanConcurrent parses every task with a bounded worker pool, releasing
// the index's lock between files so queries stay responsive during a
// full scan.
func (idx *SymbolIndex) scanConcurrent(tasks []fileTask) []*fileResult {
	concurrency := idx.concurrency
	if concurrency <= 0 {
		concurrency = 2
	}

	var mu sync.Mutex
	var results []*fileResult

	p := pool.New().WithMaxGoroutines(concurrency)
	for _, t := range tasks {
		t := t
		p.Go(func() {
			cached, ok := idx.reuseCached(t)
			if ok {
				mu.Lock()
				results = append(results, cached)
				mu.Unlock()
				return
			}
			r, err := idx.scanFile(t)
			if err != nil {
				// I/O or parse error for one file never aborts the scan.
				return
			}
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
		})
	}
	p.Wait()

	return results
}
