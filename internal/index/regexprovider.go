// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package index

import (
	"regexp"
	"strings"

	"github.com/petar-djukic/photon/pkg/types"
)

// RegexProvider is the line-pattern fallback for the extensions in
// regexExtensions; where tree-sitter also claims an extension, it runs
// only after tree-sitter returns nothing. Grounded on the original project's
// RegexSymbolProvider: a small set of per-language line regexes, tried in
// a fixed order, one match per line.
type RegexProvider struct{}

// NewRegexProvider constructs the regex fallback provider.
func NewRegexProvider() *RegexProvider { return &RegexProvider{} }

func (p *RegexProvider) Name() types.SymbolSource { return types.SourceRegex }

var regexExtensions = map[string]bool{
	".cpp": true, ".h": true, ".hpp": true, ".c": true,
	".py": true,
	".ts": true, ".tsx": true, ".js": true, ".jsx": true,
	".ets": true,
}

func (p *RegexProvider) SupportsExtension(ext string) bool { return regexExtensions[ext] }

var (
	reClass      = regexp.MustCompile(`(class|struct)\s+([A-Za-z0-9_]+)`)
	reCFunc      = regexp.MustCompile(`^[A-Za-z0-9_<>,:*&\s]+\s+([A-Za-z0-9_]+)\s*\(`)
	rePyDef      = regexp.MustCompile(`^\s*(?:async\s+)?def\s+([A-Za-z0-9_]+)`)
	rePyClass    = regexp.MustCompile(`^\s*class\s+([A-Za-z0-9_]+)`)
	reTSFunc     = regexp.MustCompile(`^\s*(?:async\s+)?function\s+([A-Za-z0-9_]+)\s*\(`)
	reTSArrow    = regexp.MustCompile(`^\s*([A-Za-z0-9_]+)\s*:\s*\(`)
	reTSInterface = regexp.MustCompile(`^\s*interface\s+([A-Za-z0-9_]+)`)
	reTSType     = regexp.MustCompile(`^\s*type\s+([A-Za-z0-9_]+)\s*=`)
	reTSEnum     = regexp.MustCompile(`^\s*enum\s+([A-Za-z0-9_]+)`)
)

// ExtractSymbols scans content line by line with a fixed pattern
// priority: class/struct first, then the language-appropriate function
// forms.
func (p *RegexProvider) ExtractSymbols(path string, content []byte) []types.Symbol {
	var symbols []types.Symbol
	lines := strings.Split(string(content), "\n")

	for i, line := range lines {
		lineNum := i + 1

		if m := reClass.FindStringSubmatch(line); m != nil {
			symbols = append(symbols, regexSymbol(m[2], types.Struct, path, lineNum, line))
			continue
		}
		if m := rePyClass.FindStringSubmatch(line); m != nil {
			symbols = append(symbols, regexSymbol(m[1], types.Class, path, lineNum, line))
			continue
		}
		if m := reCFunc.FindStringSubmatch(line); m != nil {
			symbols = append(symbols, regexSymbol(m[1], types.Function, path, lineNum, line))
			continue
		}
		if m := rePyDef.FindStringSubmatch(line); m != nil {
			symbols = append(symbols, regexSymbol(m[1], types.Function, path, lineNum, line))
			continue
		}
		if m := reTSFunc.FindStringSubmatch(line); m != nil {
			symbols = append(symbols, regexSymbol(m[1], types.Function, path, lineNum, line))
			continue
		}
		if m := reTSInterface.FindStringSubmatch(line); m != nil {
			symbols = append(symbols, regexSymbol(m[1], types.Interface, path, lineNum, line))
			continue
		}
		if m := reTSType.FindStringSubmatch(line); m != nil {
			symbols = append(symbols, regexSymbol(m[1], types.TypeAlias, path, lineNum, line))
			continue
		}
		if m := reTSEnum.FindStringSubmatch(line); m != nil {
			symbols = append(symbols, regexSymbol(m[1], types.Enum, path, lineNum, line))
			continue
		}
		if m := reTSArrow.FindStringSubmatch(line); m != nil {
			symbols = append(symbols, regexSymbol(m[1], types.Function, path, lineNum, line))
			continue
		}
	}

	return symbols
}

func regexSymbol(name string, kind types.SymbolKind, path string, line int, raw string) types.Symbol {
	sig := strings.TrimSpace(raw)
	if len(sig) > 100 {
		sig = sig[:97] + "..."
	}
	return types.Symbol{
		Name:      name,
		Kind:      kind,
		Source:    types.SourceRegex,
		FilePath:  path,
		Line:      line,
		EndLine:   line,
		Signature: sig,
	}
}
