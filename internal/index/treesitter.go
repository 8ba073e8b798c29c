// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package index

import (
	"context"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"github.com/smacker/go-tree-sitter/yaml"

	"github.com/petar-djukic/photon/pkg/types"
)

// langSpec holds the tree-sitter language and query patterns for one
// file extension. Capture names in defQ carry a ".<kind>" suffix (e.g.
// "name.function") so runQuery can assign the right types.SymbolKind;
// refQ captures plain "@ref" names for call-site resolution.
type langSpec struct {
	lang *sitter.Language
	defQ string
	refQ string
}

var treeSitterLangs = map[string]*langSpec{
	".go": {
		lang: golang.GetLanguage(),
		defQ: `
			(function_declaration name: (identifier) @name.function)
			(method_declaration name: (field_identifier) @name.method)
			(type_declaration (type_spec name: (type_identifier) @name.struct type: (struct_type)))
			(type_declaration (type_spec name: (type_identifier) @name.interface type: (interface_type)))
		`,
		refQ: `
			(identifier) @ref
			(field_identifier) @ref
		`,
	},
	".py": {
		lang: python.GetLanguage(),
		defQ: `
			(function_definition name: (identifier) @name.function)
			(class_definition name: (identifier) @name.class)
		`,
		refQ: `(identifier) @ref`,
	},
	".js": {
		lang: javascript.GetLanguage(),
		defQ: `
			(function_declaration name: (identifier) @name.function)
			(class_declaration name: (identifier) @name.class)
			(variable_declarator name: (identifier) @name.variable)
		`,
		refQ: `(identifier) @ref`,
	},
	".jsx": {
		lang: javascript.GetLanguage(),
		defQ: `
			(function_declaration name: (identifier) @name.function)
			(class_declaration name: (identifier) @name.class)
			(variable_declarator name: (identifier) @name.variable)
		`,
		refQ: `(identifier) @ref`,
	},
	".ts": {
		lang: typescript.GetLanguage(),
		defQ: `
			(function_declaration name: (identifier) @name.function)
			(class_declaration name: (identifier) @name.class)
			(variable_declarator name: (identifier) @name.variable)
			(interface_declaration name: (type_identifier) @name.interface)
		`,
		refQ: `
			(identifier) @ref
			(type_identifier) @ref
		`,
	},
	".yaml": {
		lang: yaml.GetLanguage(),
		defQ: `(block_mapping_pair key: (flow_node) @name.variable)`,
	},
	".yml": {
		lang: yaml.GetLanguage(),
		defQ: `(block_mapping_pair key: (flow_node) @name.variable)`,
	},
}

// TreeSitterProvider extracts symbols via tree-sitter, the highest-
// priority provider. Built as a per-file extractor that also exposes
// raw identifier references for call-graph resolution.
type TreeSitterProvider struct{}

// NewTreeSitterProvider constructs the tree-sitter provider.
func NewTreeSitterProvider() *TreeSitterProvider { return &TreeSitterProvider{} }

func (p *TreeSitterProvider) Name() types.SymbolSource { return types.SourceTreeSitter }

func (p *TreeSitterProvider) SupportsExtension(ext string) bool {
	_, ok := treeSitterLangs[ext]
	return ok
}

func (p *TreeSitterProvider) ExtractSymbols(path string, content []byte) []types.Symbol {
	spec := specFor(path)
	if spec == nil {
		return nil
	}
	root, err := sitter.ParseCtx(context.Background(), content, spec.lang)
	if err != nil || root == nil {
		return nil
	}

	var symbols []types.Symbol
	for _, m := range runQuery(spec.defQ, spec.lang, root, content) {
		symbols = append(symbols, types.Symbol{
			Name:      m.name,
			Kind:      m.kind,
			Source:    types.SourceTreeSitter,
			FilePath:  path,
			Line:      m.line,
			EndLine:   m.endLine,
			Signature: sourceLine(content, m.line),
		})
	}
	return symbols
}

// ExtractCalls returns every identifier reference within [startLine,
// endLine] of path, treated as a candidate call-graph edge from
// callerName. The call-graph resolver is responsible for discarding
// references that aren't actually call expressions' callees; this keeps
// the tree-sitter query simple and language-agnostic.
func (p *TreeSitterProvider) ExtractCalls(path string, content []byte, callerName string, startLine, endLine int) []types.CallSite {
	spec := specFor(path)
	if spec == nil || spec.refQ == "" {
		return nil
	}
	root, err := sitter.ParseCtx(context.Background(), content, spec.lang)
	if err != nil || root == nil {
		return nil
	}

	var sites []types.CallSite
	for _, m := range runQuery(spec.refQ, spec.lang, root, content) {
		if m.line < startLine || m.line > endLine {
			continue
		}
		sites = append(sites, types.CallSite{
			CallerPath: path,
			CallerLine: startLine,
			CallerName: callerName,
			Callee:     m.name,
			Line:       m.line,
		})
	}
	return sites
}

func specFor(path string) *langSpec {
	ext := extOf(path)
	return treeSitterLangs[ext]
}

func extOf(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	return strings.ToLower(path[i:])
}

type queryMatch struct {
	name    string
	kind    types.SymbolKind
	line    int
	endLine int
}

// runQuery executes a tree-sitter query and returns one queryMatch per
// capture, deduplicated by name+line. Capture names of the form
// "name.<kind>" map to the corresponding types.SymbolKind; a bare "ref"
// capture (or any capture without a recognized suffix) maps to
// types.Variable, which callers that only care about the name (call-site
// extraction) ignore.
func runQuery(pattern string, lang *sitter.Language, root *sitter.Node, content []byte) []queryMatch {
	if pattern == "" {
		return nil
	}
	q, err := sitter.NewQuery([]byte(pattern), lang)
	if err != nil {
		return nil
	}

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, root)

	seen := make(map[string]bool)
	var results []queryMatch

	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			name := c.Node.Content(content)
			if name == "" {
				continue
			}
			line := int(c.Node.StartPoint().Row) + 1
			// The capture is the name identifier; the enclosing
			// declaration node carries the span that FindEnclosing and
			// call-site extraction need.
			endLine := int(c.Node.EndPoint().Row) + 1
			if parent := c.Node.Parent(); parent != nil {
				endLine = int(parent.EndPoint().Row) + 1
			}
			captureName := q.CaptureNameForId(c.Index)
			kind := kindFromCapture(captureName)

			key := name + "@" + captureName + ":" + strconv.Itoa(line)
			if seen[key] {
				continue
			}
			seen[key] = true
			results = append(results, queryMatch{name: name, kind: kind, line: line, endLine: endLine})
		}
	}

	return results
}

func kindFromCapture(captureName string) types.SymbolKind {
	parts := strings.SplitN(captureName, ".", 2)
	if len(parts) != 2 {
		return types.Variable
	}
	switch parts[1] {
	case "function":
		return types.Function
	case "method":
		return types.Method
	case "struct":
		return types.Struct
	case "class":
		return types.Class
	case "interface":
		return types.Interface
	case "variable":
		return types.Variable
	case "constant":
		return types.Constant
	default:
		return types.Variable
	}
}

func sourceLine(content []byte, line int) string {
	lines := strings.Split(string(content), "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	sig := strings.TrimSpace(lines[line-1])
	if len(sig) > 100 {
		sig = sig[:97] + "..."
	}
	return sig
}

func itoaCache(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
