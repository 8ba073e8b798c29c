// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package tools

import (
	"hash/fnv"
	"sync"
)

// ReadTracker records the content hash of every file read_code_block has
// read in the current session, so apply_patch can detect a conflict: a
// file changed on disk since the model last saw it. Shared by value
// (pointer) between the read_code_block and apply_patch tool instances.
type ReadTracker struct {
	mu     sync.Mutex
	hashes map[string]uint64
}

// NewReadTracker builds an empty tracker.
func NewReadTracker() *ReadTracker {
	return &ReadTracker{hashes: make(map[string]uint64)}
}

// Record stores the content hash observed for path at read time.
func (t *ReadTracker) Record(path string, content []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hashes[path] = contentHash(content)
}

// HashAtRead returns the hash recorded for path and whether one exists.
func (t *ReadTracker) HashAtRead(path string) (uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.hashes[path]
	return h, ok
}

// Forget removes path's recorded hash, called after a successful
// apply_patch write so the next read re-establishes the baseline.
func (t *ReadTracker) Forget(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.hashes, path)
}

// contentHash computes the 64-bit FNV-1a hash used for conflict
// detection; a checksum, not a cryptographic primitive, so stdlib
// hash/fnv is used directly, matching internal/index's FileMeta hash.
func contentHash(content []byte) uint64 {
	h := fnv.New64a()
	h.Write(content)
	return h.Sum64()
}
