// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package index

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/photon/pkg/types"
)

func newTestIndex(t *testing.T) (*SymbolIndex, string) {
	t.Helper()
	dir := t.TempDir()
	idx := New(dir)
	idx.RegisterProvider(NewTreeSitterProvider())
	idx.RegisterProvider(NewRegexProvider())
	idx.RegisterProvider(NewLegacyGoProvider())
	return idx, dir
}

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScanExtractsSymbols(t *testing.T) {
	idx, dir := newTestIndex(t)
	writeFile(t, dir, "a.go", "package a\n\nfunc Bar() {}\n")

	require.NoError(t, idx.ScanBlocking())

	syms := idx.FileSymbols("a.go")
	require.NotEmpty(t, syms)
	assert.Equal(t, "Bar", syms[0].Name)
}

func TestScanIsIdempotentForUnchangedFiles(t *testing.T) {
	idx, dir := newTestIndex(t)
	writeFile(t, dir, "a.go", "package a\n\nfunc Bar() {}\n")

	require.NoError(t, idx.ScanBlocking())
	first := idx.FileSymbols("a.go")

	require.NoError(t, idx.ScanBlocking())
	second := idx.FileSymbols("a.go")

	assert.Equal(t, first, second)
}

func TestScanReusesSymbolsWhenOnlyMTimeChanges(t *testing.T) {
	idx, dir := newTestIndex(t)
	writeFile(t, dir, "a.go", "package a\n\nfunc Bar() {}\n")
	require.NoError(t, idx.ScanBlocking())
	before := idx.FileSymbols("a.go")

	// Touch the file: new mtime, identical bytes. The content hash must
	// short-circuit the reparse and keep the cached symbols.
	newTime := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "a.go"), newTime, newTime))
	require.NoError(t, idx.ScanBlocking())

	assert.Equal(t, before, idx.FileSymbols("a.go"))
}

func TestScanPurgesDeletedFiles(t *testing.T) {
	idx, dir := newTestIndex(t)
	writeFile(t, dir, "a.go", "package a\n\nfunc Bar() {}\n")
	require.NoError(t, idx.ScanBlocking())
	require.NotEmpty(t, idx.FileSymbols("a.go"))

	require.NoError(t, os.Remove(filepath.Join(dir, "a.go")))
	require.NoError(t, idx.ScanBlocking())

	assert.Empty(t, idx.FileSymbols("a.go"))
}

func TestSearchOrdersExactMatchFirst(t *testing.T) {
	idx, dir := newTestIndex(t)
	writeFile(t, dir, "a.go", "package a\n\nfunc Run() {}\nfunc RunAll() {}\n")
	require.NoError(t, idx.ScanBlocking())

	results := idx.Search("run")
	require.NotEmpty(t, results)
	assert.Equal(t, "Run", results[0].Name)
}

func TestFindEnclosingPicksSmallestSpan(t *testing.T) {
	idx, _ := newTestIndex(t)
	idx.mu.Lock()
	idx.fileSymbols["a.go"] = []types.Symbol{
		{Name: "Outer", FilePath: "a.go", Line: 1, EndLine: 20},
		{Name: "Inner", FilePath: "a.go", Line: 5, EndLine: 10},
	}
	idx.mu.Unlock()

	sym, ok := idx.FindEnclosing("a.go", 7)
	require.True(t, ok)
	assert.Equal(t, "Inner", sym.Name)
}

func TestCallGraphSentinelOnUnresolved(t *testing.T) {
	idx, dir := newTestIndex(t)
	writeFile(t, dir, "a.go", "package a\n\nfunc Bar() {\n\tcompletelyUnknownCallee()\n}\n")
	require.NoError(t, idx.ScanBlocking())

	syms := idx.FileSymbols("a.go")
	require.NotEmpty(t, syms)

	var bar types.Symbol
	for _, s := range syms {
		if s.Name == "Bar" {
			bar = s
		}
	}
	callees := idx.Callees(bar)
	assert.Contains(t, callees, types.UnresolvedKey("completelyUnknownCallee"))
}

func TestPersistAndLoadRoundTrip(t *testing.T) {
	idx, dir := newTestIndex(t)
	writeFile(t, dir, "a.go", "package a\n\nfunc Bar() {}\n")
	require.NoError(t, idx.ScanBlocking())
	require.NoError(t, idx.Persist())

	idx2 := New(dir)
	idx2.RegisterProvider(NewTreeSitterProvider())
	idx2.RegisterProvider(NewRegexProvider())
	idx2.RegisterProvider(NewLegacyGoProvider())
	require.NoError(t, idx2.Load())

	assert.Equal(t, idx.FileSymbols("a.go"), idx2.FileSymbols("a.go"))
}

// scan ; scan produces identical on-disk index JSON: the slice-backed
// documents are sorted before writing, so repeated persists of the same
// tree are byte-identical.
func TestPersistIsByteIdenticalAcrossRescans(t *testing.T) {
	idx, dir := newTestIndex(t)
	writeFile(t, dir, "a.go", "package a\n\nfunc Helper() {}\n\nfunc Bar() {\n\tHelper()\n}\n")
	writeFile(t, dir, "b.go", "package a\n\nfunc Baz() {\n\tHelper()\n\tBar()\n}\n")

	require.NoError(t, idx.ScanBlocking())
	require.NoError(t, idx.Persist())

	readIndexFiles := func() map[string][]byte {
		out := make(map[string][]byte)
		for _, name := range []string{"symbols.json", "symbol_calls.json", "call_graph.json"} {
			data, err := os.ReadFile(filepath.Join(dir, ".photon", "index", name))
			require.NoError(t, err)
			out[name] = data
		}
		return out
	}
	first := readIndexFiles()

	require.NoError(t, idx.ScanBlocking())
	require.NoError(t, idx.Persist())
	second := readIndexFiles()

	for name := range first {
		assert.Equal(t, string(first[name]), string(second[name]), name)
	}
}

// The global callee counts follow one rule everywhere: a full scan, a
// snapshot reload, and a watcher-path single-file update all agree.
func TestGlobalCalleeCountConsistentAcrossScanLoadAndUpdate(t *testing.T) {
	idx, dir := newTestIndex(t)
	writeFile(t, dir, "a.go", "package a\n\nfunc Helper() {}\n\nfunc Bar() {\n\tHelper()\n\tHelper()\n}\n")

	require.NoError(t, idx.ScanBlocking())
	scanned := idx.GlobalCalleeCount("Helper")
	require.NoError(t, idx.Persist())

	loaded := New(dir)
	loaded.RegisterProvider(NewTreeSitterProvider())
	loaded.RegisterProvider(NewRegexProvider())
	loaded.RegisterProvider(NewLegacyGoProvider())
	require.NoError(t, loaded.Load())
	assert.Equal(t, scanned, loaded.GlobalCalleeCount("Helper"))

	require.NoError(t, idx.updateFile("a.go"))
	assert.Equal(t, scanned, idx.GlobalCalleeCount("Helper"))
}

func TestDedupeSymbolsRemovesDuplicateCompositeKeys(t *testing.T) {
	in := []types.Symbol{
		{Name: "Foo", FilePath: "a.go", Line: 1, Kind: types.Function, Source: types.SourceRegex},
		{Name: "Foo", FilePath: "a.go", Line: 1, Kind: types.Function, Source: types.SourceRegex},
	}
	out := dedupeSymbols(in)
	assert.Len(t, out, 1)
}
