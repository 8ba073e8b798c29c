// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package index

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/petar-djukic/photon/pkg/types"
)

const (
	symbolsVersion     = 2
	symbolCallsVersion = 1
	callGraphVersion   = 1
)

// fileEntry is one path's cached symbols plus its FileMeta, the on-disk
// v2 symbols.json object shape.
type fileEntry struct {
	Meta    FileMeta      `json:"meta"`
	Symbols []types.Symbol `json:"symbols"`
}

type symbolsDoc struct {
	Version int                  `json:"version"`
	Files   map[string]fileEntry `json:"files"`
}

type callEntry struct {
	Key     string           `json:"key"`
	Entries []types.CallSite `json:"entries"`
}

type symbolCallsDoc struct {
	Version int         `json:"version"`
	Calls   []callEntry `json:"calls"`
}

type edgeEntry struct {
	From string   `json:"from"`
	To   []string `json:"to"`
}

type callGraphDoc struct {
	Version int         `json:"version"`
	Edges   []edgeEntry `json:"edges"`
}

// indexDir returns the .photon/index directory under root, creating it
// if necessary.
func indexDir(root string) (string, error) {
	dir := filepath.Join(root, ".photon", "index")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating index directory: %w", err)
	}
	return dir, nil
}

// Persist writes symbols.json, symbol_calls.json and call_graph.json
// under root/.photon/index. Called after every scan completion and
// after every individual file update.
func (idx *SymbolIndex) Persist() error {
	dir, err := indexDir(idx.root)
	if err != nil {
		return err
	}

	idx.mu.RLock()
	symDoc := symbolsDoc{Version: symbolsVersion, Files: make(map[string]fileEntry, len(idx.fileSymbols))}
	for path, syms := range idx.fileSymbols {
		symDoc.Files[path] = fileEntry{Meta: idx.fileMeta[path], Symbols: syms}
	}

	callDoc := symbolCallsDoc{Version: symbolCallsVersion}
	for key, sites := range idx.symbolCalls {
		callDoc.Calls = append(callDoc.Calls, callEntry{Key: key, Entries: sites})
	}

	graphDoc := callGraphDoc{Version: callGraphVersion}
	for from, to := range idx.callGraph {
		sorted := append([]string(nil), to...)
		sort.Strings(sorted)
		graphDoc.Edges = append(graphDoc.Edges, edgeEntry{From: from, To: sorted})
	}
	idx.mu.RUnlock()

	// The two slice-backed documents come off unordered map iteration;
	// sort them so scan;scan yields byte-identical JSON on disk.
	sort.Slice(callDoc.Calls, func(i, j int) bool { return callDoc.Calls[i].Key < callDoc.Calls[j].Key })
	sort.Slice(graphDoc.Edges, func(i, j int) bool { return graphDoc.Edges[i].From < graphDoc.Edges[j].From })

	if err := writeJSON(filepath.Join(dir, "symbols.json"), symDoc); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "symbol_calls.json"), callDoc); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, "call_graph.json"), graphDoc); err != nil {
		return err
	}
	return nil
}

// Load reads a prior Persist snapshot from root/.photon/index, enabling
// the zero-rebuild fast path on startup. Missing files are treated as an
// empty index, not an error.
func (idx *SymbolIndex) Load() error {
	dir := filepath.Join(idx.root, ".photon", "index")

	var symDoc symbolsDoc
	if err := readJSON(filepath.Join(dir, "symbols.json"), &symDoc); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}
	var callDoc symbolCallsDoc
	if err := readJSON(filepath.Join(dir, "symbol_calls.json"), &callDoc); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}
	var graphDoc callGraphDoc
	if err := readJSON(filepath.Join(dir, "call_graph.json"), &graphDoc); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for path, fe := range symDoc.Files {
		idx.fileMeta[path] = fe.Meta
		idx.fileSymbols[path] = fe.Symbols
	}
	for _, ce := range callDoc.Calls {
		idx.symbolCalls[ce.Key] = ce.Entries
	}
	for _, ee := range graphDoc.Edges {
		idx.callGraph[ee.From] = ee.To
		idx.callerOut[ee.From] = len(ee.To)
	}
	idx.recountCallees()
	return nil
}

// writeJSON marshals v as indented JSON and writes it atomically (temp
// file in the same directory, then rename), the same pattern as
// internal/editor's atomicWrite.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".photon-index-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming to %s: %w", path, err)
	}
	return nil
}

// readJSON reads and unmarshals the JSON document at path into v.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
