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
)

// newBareWatcher builds a Watcher wired to idx without starting its
// background goroutines, so tick() can be driven synchronously in tests.
func newBareWatcher(idx *SymbolIndex) *Watcher {
	return &Watcher{idx: idx, interval: time.Hour, dirty: make(map[string]bool)}
}

func TestWatcher_TickReparsesChangedFile(t *testing.T) {
	idx, dir := newTestIndex(t)
	writeFile(t, dir, "a.go", "package a\n\nfunc Bar() {}\n")
	require.NoError(t, idx.ScanBlocking())

	time.Sleep(10 * time.Millisecond)
	writeFile(t, dir, "a.go", "package a\n\nfunc Bar() {}\nfunc Baz() {}\n")

	w := newBareWatcher(idx)
	w.tick()

	names := make([]string, 0)
	for _, s := range idx.FileSymbols("a.go") {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "Baz")
}

func TestWatcher_TickPurgesDeletedFile(t *testing.T) {
	idx, dir := newTestIndex(t)
	writeFile(t, dir, "a.go", "package a\n\nfunc Bar() {}\n")
	require.NoError(t, idx.ScanBlocking())
	require.NotEmpty(t, idx.FileSymbols("a.go"))

	require.NoError(t, os.Remove(filepath.Join(dir, "a.go")))

	w := newBareWatcher(idx)
	w.tick()

	assert.Empty(t, idx.FileSymbols("a.go"))
}

func TestWatcher_TickNoOpWhenNothingChanged(t *testing.T) {
	idx, dir := newTestIndex(t)
	writeFile(t, dir, "a.go", "package a\n\nfunc Bar() {}\n")
	require.NoError(t, idx.ScanBlocking())
	before := idx.FileSymbols("a.go")

	w := newBareWatcher(idx)
	w.tick()

	assert.Equal(t, before, idx.FileSymbols("a.go"))
}

func TestWatcher_TickSkippedDuringFullScan(t *testing.T) {
	idx, dir := newTestIndex(t)
	writeFile(t, dir, "a.go", "package a\n\nfunc Bar() {}\n")
	require.NoError(t, idx.ScanBlocking())

	idx.mu.Lock()
	idx.scanning = true
	idx.mu.Unlock()

	require.NoError(t, os.Remove(filepath.Join(dir, "a.go")))
	w := newBareWatcher(idx)
	w.tick()

	idx.mu.Lock()
	idx.scanning = false
	idx.mu.Unlock()

	assert.NotEmpty(t, idx.FileSymbols("a.go"), "tick must yield to an in-flight full scan")
}
