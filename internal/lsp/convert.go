// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package lsp

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/petar-djukic/photon/pkg/types"
)

// lspSymbolKind mirrors the LSP SymbolKind enum (1-indexed).
const (
	kindFile          = 1
	kindModule        = 2
	kindNamespace     = 3
	kindPackage       = 4
	kindClass         = 5
	kindMethod        = 6
	kindProperty      = 7
	kindField         = 8
	kindConstructor   = 9
	kindEnum          = 10
	kindInterface     = 11
	kindFunction      = 12
	kindVariable      = 13
	kindConstant      = 14
	kindStruct        = 23
	kindEnumMember    = 22
	kindTypeParameter = 26
)

func toSymbolKind(lspKind int) types.SymbolKind {
	switch lspKind {
	case kindClass:
		return types.Class
	case kindMethod, kindConstructor:
		return types.Method
	case kindFunction:
		return types.Function
	case kindStruct:
		return types.Struct
	case kindInterface:
		return types.Interface
	case kindEnum:
		return types.Enum
	case kindEnumMember, kindConstant:
		return types.Constant
	case kindField, kindProperty:
		return types.Field
	case kindTypeParameter:
		return types.TypeAlias
	default:
		return types.Variable
	}
}

// parseDocumentSymbols decodes a textDocument/documentSymbol response,
// trying the hierarchical DocumentSymbol[] shape first and falling back
// to the flat SymbolInformation[] shape, flattening either into the
// index's Symbol list. An array whose first entry carries a location is
// read as the flat shape.
func parseDocumentSymbols(raw json.RawMessage, path string) []types.Symbol {
	var flat []symbolInformation
	flatErr := json.Unmarshal(raw, &flat)
	isFlat := flatErr == nil && len(flat) > 0 && flat[0].Location.URI != ""

	var hierarchical []documentSymbol
	if err := json.Unmarshal(raw, &hierarchical); err == nil && len(hierarchical) > 0 && !isFlat {
		var out []types.Symbol
		flattenDocumentSymbols(hierarchical, path, &out)
		return out
	}

	if flatErr == nil {
		out := make([]types.Symbol, 0, len(flat))
		for _, s := range flat {
			out = append(out, types.Symbol{
				Name:     s.Name,
				Kind:     toSymbolKind(s.Kind),
				Source:   types.SourceLSP,
				FilePath: path,
				Line:     s.Location.Range.Start.Line + 1,
				EndLine:  s.Location.Range.End.Line + 1,
				Column:   s.Location.Range.Start.Character + 1,
			})
		}
		return out
	}
	return nil
}

func flattenDocumentSymbols(syms []documentSymbol, path string, out *[]types.Symbol) {
	for _, s := range syms {
		*out = append(*out, types.Symbol{
			Name:      s.Name,
			Kind:      toSymbolKind(s.Kind),
			Source:    types.SourceLSP,
			FilePath:  path,
			Line:      s.Range.Start.Line + 1,
			EndLine:   s.Range.End.Line + 1,
			Column:    s.Range.Start.Character + 1,
			Signature: s.Detail,
		})
		if len(s.Children) > 0 {
			flattenDocumentSymbols(s.Children, path, out)
		}
	}
}

// parseDefinition decodes a textDocument/definition response (a single
// Location, or a Location[]; a LocationLink[] response yields "") into
// the first candidate's
// "path:line:name" identity string. The name is unknown from a bare
// location, so it's left blank; callers match on path:line alone.
func parseDefinition(raw json.RawMessage) string {
	var single location
	if err := json.Unmarshal(raw, &single); err == nil && single.URI != "" {
		return identityFromLocation(single)
	}

	var multi []location
	if err := json.Unmarshal(raw, &multi); err == nil && len(multi) > 0 {
		return identityFromLocation(multi[0])
	}
	return ""
}

func identityFromLocation(loc location) string {
	path := pathFromURI(loc.URI)
	if path == "" {
		return ""
	}
	return path + ":" + strconv.Itoa(loc.Range.Start.Line+1) + ":"
}

func pathFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}
