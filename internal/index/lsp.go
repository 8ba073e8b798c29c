// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package index

import "github.com/petar-djukic/photon/pkg/types"

// LSPSource is the narrow slice of the LSP Subprocess Bridge the Symbol
// Index consults: a one-time documentSymbol fallback when every
// extraction provider for a file's extension returns nothing, and
// goto-definition as a tie-breaker for ambiguous call-graph resolution.
// Defined here (rather than importing internal/lsp) so the index has no
// dependency on process-management code; internal/lsp.Bridge implements
// this interface.
type LSPSource interface {
	// DocumentSymbols returns the symbols the language server reports for
	// path, or nil if no server is configured for its extension or the
	// call fails. Errors are swallowed: the bridge never surfaces an
	// error to its caller.
	DocumentSymbols(path string) []types.Symbol
	// Definition resolves a call-site name to a candidate symbol
	// identity, used as the ambiguity tie-breaker in call-edge
	// resolution. Returns "" when no server is configured or the call
	// fails.
	Definition(path string, line, column int) string
}
