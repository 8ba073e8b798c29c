// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package tools

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/petar-djukic/photon/pkg/types"
)

// SymbolSource is the narrow read surface of the Symbol Index that
// read_code_block needs: per-file symbol lists. Defined here rather than importing internal/index directly so
// the tool layer has no dependency on the index's scan/watch machinery.
type SymbolSource interface {
	FileSymbols(path string) []types.Symbol
}

// FileRanker orders one file's symbols by call-graph importance; the
// Symbol Index's PageRank sidecar implements it. Optional: without one,
// symbol summaries list symbols in declaration order.
type FileRanker interface {
	RankedFileSymbols(path string) []types.Symbol
}

// ReadCodeBlock is the symbol-aware read tool. It returns the exact
// text between the chosen lines (or a symbol's body), prefixed with a
// line-numbered rendering, capped at 500 lines for code files.
type ReadCodeBlock struct {
	Root    string
	Index   SymbolSource
	Ranker  FileRanker
	Tracker *ReadTracker
}

// NewReadCodeBlock constructs the read_code_block tool rooted at root,
// consulting idx for symbol-aware reads and recording each file it
// reads into tracker for apply_patch's conflict detection.
func NewReadCodeBlock(root string, idx SymbolSource, tracker *ReadTracker) *ReadCodeBlock {
	return &ReadCodeBlock{Root: root, Index: idx, Tracker: tracker}
}

func (t *ReadCodeBlock) Name() string { return "read_code_block" }

func (t *ReadCodeBlock) Description() string {
	return "Read a symbol-aware block of a source file: a named symbol's body, an explicit line range, or (for non-code files, or code files with no extracted symbols) the whole file. Supports batched requests."
}

func (t *ReadCodeBlock) ParametersSchema() Schema {
	requestSchema := Schema{
		"type": "object",
		"properties": Schema{
			"file_path":   Schema{"type": "string"},
			"symbol_name": Schema{"type": "string"},
			"start_line":  Schema{"type": "integer"},
			"end_line":    Schema{"type": "integer"},
		},
		"required": []string{"file_path"},
	}
	return Schema{
		"type":       "object",
		"properties": Schema{
			"file_path":   Schema{"type": "string"},
			"symbol_name": Schema{"type": "string"},
			"start_line":  Schema{"type": "integer"},
			"end_line":    Schema{"type": "integer"},
			"requests":    Schema{"type": "array", "items": requestSchema},
		},
	}
}

// readRequest is one entry of either the top-level args or a batched
// requests[] element.
type readRequest struct {
	FilePath   string `json:"file_path"`
	SymbolName string `json:"symbol_name"`
	StartLine  int    `json:"start_line"`
	EndLine    int    `json:"end_line"`
}

type readArgs struct {
	readRequest
	Requests []readRequest `json:"requests"`
}

func (t *ReadCodeBlock) Execute(rawArgs string) types.ToolResult {
	var args readArgs
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return types.ErrorText("invalid arguments: " + err.Error())
		}
	}

	requests := args.Requests
	if len(requests) == 0 {
		requests = []readRequest{args.readRequest}
	}

	var blocks []types.ContentBlock
	for _, req := range requests {
		text, err := t.readOne(req)
		if err != nil {
			blocks = append(blocks, types.ContentBlock{Type: "text", Text: fmt.Sprintf("%s: %s", req.FilePath, err.Error())})
			continue
		}
		blocks = append(blocks, types.ContentBlock{Type: "text", Text: text})
	}
	return types.ToolResult{Content: blocks}
}

// readOne resolves and renders a single read request.
func (t *ReadCodeBlock) readOne(req readRequest) (string, error) {
	if req.FilePath == "" {
		return "", fmt.Errorf("file_path is required")
	}

	hasRange := req.StartLine > 0
	nonCode := isNonCode(req.FilePath)

	var syms []types.Symbol
	if t.Index != nil {
		syms = t.Index.FileSymbols(req.FilePath)
	}

	if req.SymbolName == "" && !hasRange && !nonCode && len(syms) > 0 {
		if t.Ranker != nil {
			if ranked := t.Ranker.RankedFileSymbols(req.FilePath); len(ranked) == len(syms) {
				syms = ranked
			}
		}
		return renderSymbolSummary(req.FilePath, syms), nil
	}

	abs := filepath.Join(t.Root, req.FilePath)
	content, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	if t.Tracker != nil {
		t.Tracker.Record(req.FilePath, content)
	}
	lines := strings.Split(string(content), "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	if req.SymbolName != "" {
		sym, ok := findSymbolByName(syms, req.SymbolName)
		if !ok {
			return "", fmt.Errorf("symbol %q not found", req.SymbolName)
		}
		end := sym.EndLine
		if end == 0 {
			end = sym.Line
		}
		return t.renderRange(req.FilePath, lines, sym.Line, end, nonCode)
	}

	if hasRange {
		end := req.EndLine
		if end <= 0 {
			end = req.StartLine
		}
		return t.renderRange(req.FilePath, lines, req.StartLine, end, nonCode)
	}

	// file_path alone: non-code file, or a code file with no extracted
	// symbols. Either way, return the whole file subject to the cap.
	return t.renderRange(req.FilePath, lines, 1, len(lines), nonCode)
}

// renderRange validates [start,end] against lines and the 500-line cap,
// then renders the line-numbered block.
func (t *ReadCodeBlock) renderRange(path string, lines []string, start, end int, nonCode bool) (string, error) {
	if start < 1 || end > len(lines) || end < start {
		return "", fmt.Errorf("range [%d,%d] out of bounds (file has %d lines)", start, end, len(lines))
	}
	if !nonCode && end-start+1 > maxReadEditLines {
		return "", fmt.Errorf("range [%d,%d] exceeds the %d-line cap", start, end, maxReadEditLines)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (lines %d-%d):\n", path, start, end)
	for i := start; i <= end; i++ {
		fmt.Fprintf(&b, "%6d | %s\n", i, lines[i-1])
	}
	return b.String(), nil
}

// renderSymbolSummary renders the kind/name/start/end listing for every
// symbol in path, the default response for an unscoped code-file read.
func renderSymbolSummary(path string, syms []types.Symbol) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d symbols\n", path, len(syms))
	for _, s := range syms {
		end := s.EndLine
		if end == 0 {
			end = s.Line
		}
		fmt.Fprintf(&b, "  %s %s (lines %d-%d)\n", s.Kind.String(), s.Name, s.Line, end)
	}
	return b.String()
}

// findSymbolByName returns the first symbol in syms whose name matches
// name exactly.
func findSymbolByName(syms []types.Symbol, name string) (types.Symbol, bool) {
	for _, s := range syms {
		if s.Name == name {
			return s, true
		}
	}
	return types.Symbol{}, false
}
