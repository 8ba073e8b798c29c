// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strings"

	"github.com/petar-djukic/photon/internal/index"
	"github.com/petar-djukic/photon/internal/lsp"
	"github.com/petar-djukic/photon/internal/tools"
)

// parseLSPFlags turns repeated --lsp ext=command,arg,arg flags into the
// server map internal/lsp.Bridge expects.
func parseLSPFlags(flags []string) (map[string]lsp.ServerConfig, error) {
	servers := make(map[string]lsp.ServerConfig)
	for _, f := range flags {
		eq := strings.IndexByte(f, '=')
		if eq < 0 {
			return nil, fmt.Errorf("invalid --lsp flag %q: want ext=command,arg,arg", f)
		}
		ext, rest := f[:eq], f[eq+1:]
		parts := strings.Split(rest, ",")
		if len(parts) == 0 || parts[0] == "" {
			return nil, fmt.Errorf("invalid --lsp flag %q: missing command", f)
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		servers[ext] = lsp.ServerConfig{Command: parts[0], Args: parts[1:]}
	}
	return servers, nil
}

// buildIndex constructs the Symbol Index rooted at workDir, registers
// every extraction provider in priority order, optionally attaches an
// LSP bridge, and loads any persisted snapshot before the caller scans.
func buildIndex(workDir string, lspFlags []string) (*index.SymbolIndex, error) {
	opts := []index.Option{index.WithIgnore(".git", "node_modules", "build", ".venv", ".photon")}

	servers, err := parseLSPFlags(lspFlags)
	if err != nil {
		return nil, err
	}
	if len(servers) > 0 {
		opts = append(opts, index.WithLSP(lsp.NewBridge(workDir, servers)))
	}

	idx := index.New(workDir, opts...)
	idx.RegisterProvider(index.NewTreeSitterProvider())
	idx.RegisterProvider(index.NewRegexProvider())
	idx.RegisterProvider(index.NewLegacyGoProvider())

	if err := idx.Load(); err != nil {
		return nil, fmt.Errorf("loading index snapshot: %w", err)
	}
	return idx, nil
}

// newToolRegistry builds the full Tool Execution Layer surface rooted at
// root. idx may be nil, in which case read_code_block and
// list_project_files fall back to declaration-order file listings with
// no symbol summaries.
func newToolRegistry(root string, idx *index.SymbolIndex) *tools.Registry {
	var symSource tools.SymbolSource
	if idx != nil {
		symSource = idx
	}

	tracker := tools.NewReadTracker()
	stack := tools.NewPatchStack(root)

	reg := tools.NewRegistry()
	rcb := tools.NewReadCodeBlock(root, symSource, tracker)
	if idx != nil {
		rcb.Ranker = idx
	}
	reg.Register(rcb)
	reg.Register(tools.NewApplyPatch(root, tracker, stack))
	reg.Register(tools.NewRunCommand(root))
	list := tools.NewListProjectFiles(root, symSource)
	if idx != nil {
		list.Ranker = idx
	}
	reg.Register(list)
	reg.Register(tools.NewGrep(root))
	reg.Register(tools.NewSyntaxCheck(root))
	reg.Register(tools.NewAttempt(root))
	return reg
}
