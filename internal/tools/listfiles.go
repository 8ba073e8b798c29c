// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package tools

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/petar-djukic/photon/pkg/types"
)

// ListProjectFiles walks the project tree and renders a directory entry
// tree, optionally decorating each code file with a one-line symbol
// summary drawn from a single batched read of the symbol table.
type ListProjectFiles struct {
	Root        string
	Index       SymbolSource
	Ranker      SymbolRanker
	ExtraIgnore map[string]bool
	MaxDepth    int
}

// SymbolRanker is implemented by the Symbol Index's optional PageRank
// sidecar to order each file's symbols by call-graph importance instead
// of declaration order. A nil Ranker falls back to declaration order.
// The ranking runs once per listing, not once per file.
type SymbolRanker interface {
	RankedSymbols(personalize ...string) []types.RankedSymbol
}

// NewListProjectFiles constructs the list_project_files tool rooted at
// root; idx may be nil, in which case include_symbols is ignored.
func NewListProjectFiles(root string, idx SymbolSource) *ListProjectFiles {
	return &ListProjectFiles{Root: root, Index: idx, MaxDepth: 8}
}

func (t *ListProjectFiles) Name() string { return "list_project_files" }

func (t *ListProjectFiles) Description() string {
	return "List files and directories under a start path, optionally decorated with each code file's class/function symbol summary."
}

func (t *ListProjectFiles) ParametersSchema() Schema {
	return Schema{
		"type": "object",
		"properties": Schema{
			"path":             Schema{"type": "string"},
			"max_depth":        Schema{"type": "integer"},
			"include_symbols":  Schema{"type": "boolean"},
		},
	}
}

type listFilesArgs struct {
	Path           string `json:"path"`
	MaxDepth       int    `json:"max_depth"`
	IncludeSymbols bool   `json:"include_symbols"`
}

// entry is one node in the rendered file tree.
type entry struct {
	Name        string  `json:"name"`
	IsDirectory bool    `json:"is_directory"`
	Sym         string  `json:"sym,omitempty"`
	Children    []entry `json:"children,omitempty"`
}

var defaultListIgnore = map[string]bool{
	".git": true, "node_modules": true, "build": true, ".venv": true, ".photon": true,
}

func (t *ListProjectFiles) Execute(rawArgs string) types.ToolResult {
	var args listFilesArgs
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return types.ErrorText("invalid arguments: " + err.Error())
		}
	}
	maxDepth := args.MaxDepth
	if maxDepth <= 0 {
		maxDepth = t.MaxDepth
		if maxDepth <= 0 {
			maxDepth = 8
		}
	}

	start := args.Path
	if start == "" {
		start = "."
	}
	startAbs := filepath.Join(t.Root, start)

	var symCache map[string][]types.Symbol
	if args.IncludeSymbols && t.Index != nil {
		symCache = t.batchSymbols(startAbs)
	}

	entries, err := t.walk(startAbs, "", 0, maxDepth, symCache)
	if err != nil {
		return types.ErrorText(err.Error())
	}

	out, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return types.ErrorText(err.Error())
	}
	return types.Text(string(out))
}

// batchSymbols collects every file under startAbs, at any depth, and
// fetches its symbols (one FileSymbols lookup per file) in one walk ahead
// of the tree render, so the tree walk below reads symbols from the map.
func (t *ListProjectFiles) batchSymbols(startAbs string) map[string][]types.Symbol {
	var scores map[string]float64
	if t.Ranker != nil {
		scores = make(map[string]float64)
		for _, r := range t.Ranker.RankedSymbols() {
			scores[r.FilePath+":"+r.Name] = r.Score
		}
	}

	cache := make(map[string][]types.Symbol)
	_ = filepath.Walk(startAbs, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(t.Root, path)
		if relErr != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		syms := t.Index.FileSymbols(rel)
		if scores != nil && len(syms) > 1 {
			syms = append([]types.Symbol(nil), syms...)
			sort.SliceStable(syms, func(i, j int) bool {
				return scores[rel+":"+syms[i].Name] > scores[rel+":"+syms[j].Name]
			})
		}
		cache[rel] = syms
		return nil
	})
	return cache
}

// walk renders the tree rooted at absPath, respecting the ignore list
// and the depth cap.
func (t *ListProjectFiles) walk(absPath, relPath string, depth, maxDepth int, symCache map[string][]types.Symbol) ([]entry, error) {
	if depth > maxDepth {
		return nil, nil
	}
	dirEntries, err := os.ReadDir(absPath)
	if err != nil {
		return nil, err
	}
	sort.Slice(dirEntries, func(i, j int) bool { return dirEntries[i].Name() < dirEntries[j].Name() })

	var out []entry
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() {
			if defaultListIgnore[name] || t.ExtraIgnore[name] {
				continue
			}
			childPath := filepath.Join(absPath, name)
			childRel := filepath.ToSlash(filepath.Join(relPath, name))
			children, err := t.walk(childPath, childRel, depth+1, maxDepth, symCache)
			if err != nil {
				continue
			}
			out = append(out, entry{Name: name, IsDirectory: true, Children: children})
			continue
		}

		e := entry{Name: name, IsDirectory: false}
		if symCache != nil {
			rel := filepath.ToSlash(filepath.Join(relPath, name))
			if sym := symSummaryLine(symCache[rel]); sym != "" {
				e.Sym = sym
			}
		}
		out = append(out, e)
	}
	return out, nil
}

// symSummaryLine renders "C:<class-name>[, …]; F:<function-name>[, …]"
// from syms, omitting either half when that kind isn't present.
func symSummaryLine(syms []types.Symbol) string {
	var classes, funcs []string
	for _, s := range syms {
		switch s.Kind {
		case types.Class, types.Struct, types.Interface, types.Enum:
			classes = append(classes, s.Name)
		case types.Function, types.Method:
			funcs = append(funcs, s.Name)
		}
	}
	var parts []string
	if len(classes) > 0 {
		parts = append(parts, "C:"+strings.Join(classes, ", "))
	}
	if len(funcs) > 0 {
		parts = append(parts, "F:"+strings.Join(funcs, ", "))
	}
	return strings.Join(parts, "; ")
}
