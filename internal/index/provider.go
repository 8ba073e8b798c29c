// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package index implements the Symbol Index: a multi-language,
// incremental, on-disk index of symbols and call sites, backed by a
// chain of extraction providers and a reader/writer-locked in-memory
// table.
package index

import "github.com/petar-djukic/photon/pkg/types"

// Provider extracts symbols (and, optionally, call sites) from a single
// file's content. The index tries providers in registration order and
// falls through to the next one if a provider claims the extension but
// returns no symbols.
type Provider interface {
	// Name identifies the provider for diagnostics and for Symbol.Source.
	Name() types.SymbolSource
	// SupportsExtension reports whether this provider can handle files
	// with the given extension (including the leading dot).
	SupportsExtension(ext string) bool
	// ExtractSymbols parses content (the file at path) and returns the
	// symbols it finds. A nil or empty result lets the index fall
	// through to the next provider.
	ExtractSymbols(path string, content []byte) []types.Symbol
}

// CallExtractor is an optional capability a Provider may implement to
// also report call sites found within a symbol's body.
type CallExtractor interface {
	// ExtractCalls returns call sites whose caller falls within
	// [startLine, endLine] (inclusive, 1-based) of path.
	ExtractCalls(path string, content []byte, callerName string, startLine, endLine int) []types.CallSite
}

// Registry holds the ordered chain of providers consulted for a file
// extension. Providers are tried in registration order: all tree-sitter
// providers are expected to be registered before the regex provider,
// which in turn precedes the legacy provider, matching the documented
// priority tree-sitter < regex < legacy.
type Registry struct {
	providers []Provider
}

// NewRegistry builds an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a provider to the chain.
func (r *Registry) Register(p Provider) {
	r.providers = append(r.providers, p)
}

// Providers returns the providers that support ext, in priority order.
func (r *Registry) Providers(ext string) []Provider {
	var out []Provider
	for _, p := range r.providers {
		if p.SupportsExtension(ext) {
			out = append(out, p)
		}
	}
	return out
}

// Extract runs the provider chain for path/content until one returns a
// non-empty result, and returns that result. Which provider produced it
// is not reported. Returns nil if no provider claims the extension or
// every provider that does returns nothing.
func (r *Registry) Extract(path, ext string, content []byte) []types.Symbol {
	for _, p := range r.Providers(ext) {
		syms := p.ExtractSymbols(path, content)
		if len(syms) > 0 {
			return syms
		}
	}
	return nil
}
