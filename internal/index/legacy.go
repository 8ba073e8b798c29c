// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package index

import (
	"go/parser"
	"go/token"

	goast "github.com/petar-djukic/photon/internal/ast"
	"github.com/petar-djukic/photon/pkg/types"
)

// LegacyGoProvider is the lowest-priority .go provider: it parses with
// go/parser rather than tree-sitter, and only runs when tree-sitter (and
// the LSP bridge, if configured) come up empty for a .go file; the regex
// provider does not claim .go.
type LegacyGoProvider struct{}

// NewLegacyGoProvider constructs the legacy go/ast fallback provider.
func NewLegacyGoProvider() *LegacyGoProvider { return &LegacyGoProvider{} }

func (p *LegacyGoProvider) Name() types.SymbolSource { return types.SourceLegacy }

func (p *LegacyGoProvider) SupportsExtension(ext string) bool { return ext == ".go" }

// ExtractSymbols parses a single file's content with go/parser.
func (p *LegacyGoProvider) ExtractSymbols(path string, content []byte) []types.Symbol {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, content, parser.ParseComments)
	if err != nil || file == nil {
		return nil
	}
	return goast.ExtractSymbols(fset, path, file)
}

// ScanDirectory parses every .go file under root in one bounded-
// concurrency pass. The index's own scans do not use it; `photon index`
// calls it for its Go parse-error report. Parse errors for individual
// files are reported but do not abort the scan.
func (p *LegacyGoProvider) ScanDirectory(root string) ([]types.Symbol, []goast.ScanError, error) {
	result, err := goast.ScanDir(root, 0)
	if err != nil {
		return nil, nil, err
	}
	table := goast.BuildSymbolTable(result.FileSet, result.Files)
	return table.All(), result.Errors, nil
}
