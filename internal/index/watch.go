// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package index

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher runs the Symbol Index's interval-tick metadata rescan with an
// fsnotify dirty-path set layered on top, grounded on the debounce-map
// pattern of ternarybob-iter's index watcher: raw fsnotify events land in
// a dirty-path set drained by the ticker rather than reindexing
// synchronously on every event.
type Watcher struct {
	idx      *SymbolIndex
	interval time.Duration
	fsw      *fsnotify.Watcher

	mu      sync.Mutex
	dirty   map[string]bool
	stopCh  chan struct{}
	stopped chan struct{}
}

// Watch starts a background loop that, every interval, rescans file
// metadata only: files whose (size, mtime) changed are reparsed
// individually, and files missing from the tree are purged. It never
// runs while a full scan is in flight; it yields to ScanBlocking.
func (idx *SymbolIndex) Watch(interval time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := addRecursive(fsw, idx.root, idx.extraIgnore); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		idx:      idx,
		interval: interval,
		fsw:      fsw,
		dirty:    make(map[string]bool),
		stopCh:   make(chan struct{}),
		stopped:  make(chan struct{}),
	}

	go w.watchEvents()
	go w.tickLoop()

	return w, nil
}

// Stop terminates the watcher's goroutines and releases the fsnotify
// watcher's file descriptors.
func (w *Watcher) Stop() {
	close(w.stopCh)
	<-w.stopped
	w.fsw.Close()
}

// watchEvents drains fsnotify events into the dirty-path debounce map;
// it performs no index I/O itself.
func (w *Watcher) watchEvents() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			rel, err := filepath.Rel(w.idx.root, ev.Name)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			w.mu.Lock()
			w.dirty[rel] = true
			w.mu.Unlock()
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			// Watch errors are logged and swallowed; the interval tick
			// remains the authoritative rescan path.
		case <-w.stopCh:
			return
		}
	}
}

// tickLoop drives the periodic metadata rescan on every interval tick.
// Paths in the dirty set are picked up at the next tick; a non-empty
// dirty set does not trigger a tick earlier.
func (w *Watcher) tickLoop() {
	defer close(w.stopped)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.tick()
		case <-w.stopCh:
			return
		}
	}
}

// tick performs one metadata-only rescan pass: it never runs while a
// full scan is in flight.
func (w *Watcher) tick() {
	if w.idx.Scanning() {
		return
	}

	w.mu.Lock()
	paths := make([]string, 0, len(w.dirty))
	for p := range w.dirty {
		paths = append(paths, p)
	}
	w.dirty = make(map[string]bool)
	w.mu.Unlock()

	tasks, err := walkFiles(w.idx.root, w.idx.extraIgnore)
	if err != nil {
		return
	}
	present := make(map[string]fileTask, len(tasks))
	for _, t := range tasks {
		present[t.relPath] = t
	}

	w.idx.mu.RLock()
	changed := make(map[string]bool)
	for path, meta := range w.idx.fileMeta {
		t, ok := present[path]
		if !ok {
			changed[path] = true // deleted
			continue
		}
		if t.size != meta.Size || t.mtime != meta.MTime {
			changed[path] = true
		}
	}
	w.idx.mu.RUnlock()

	for _, p := range paths {
		changed[p] = true
	}

	for path := range changed {
		if _, ok := present[path]; !ok {
			w.idx.removeFile(path)
			continue
		}
		_ = w.idx.updateFile(path)
	}

	// A tick with no changes writes nothing; a tick that touched the
	// tables refreshes the on-disk snapshot.
	if len(changed) > 0 {
		_ = w.idx.Persist()
	}
}

// addRecursive registers every directory under root (minus the ignore
// set) with the fsnotify watcher; fsnotify only watches the directories
// explicitly added to it, not their descendants.
func addRecursive(fsw *fsnotify.Watcher, root string, extraIgnore map[string]bool) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		name := info.Name()
		if path != root && (defaultIgnore[name] || extraIgnore[name]) {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}
