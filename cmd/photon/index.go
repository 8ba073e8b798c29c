// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/petar-djukic/photon/internal/index"
)

// newIndexCmd creates the "index" command: a standalone full scan and
// persist, useful to warm the on-disk cache before an interactive run
// or after pulling changes from elsewhere.
func newIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Scan the project and persist the symbol index",
		RunE: func(cmd *cobra.Command, args []string) error {
			workDir := viper.GetString("workdir")

			idx, err := buildIndex(workDir, viper.GetStringSlice("lsp"))
			if err != nil {
				return fmt.Errorf("building index: %w", err)
			}
			if err := idx.ScanBlocking(); err != nil {
				return fmt.Errorf("scanning: %w", err)
			}
			if err := idx.Persist(); err != nil {
				return fmt.Errorf("persisting: %w", err)
			}

			syms := idx.AllSymbols()
			fmt.Printf("Indexed %d symbols.\n", len(syms))

			reportGoParseErrors(workDir)
			return nil
		},
	}
}

// reportGoParseErrors runs the legacy go/parser pass over a Go project
// and warns about files the Go parser rejects; during the scan those
// files get symbols only from tree-sitter (or the LSP bridge), since the
// legacy provider returns nothing for them and the regex provider does
// not claim .go.
func reportGoParseErrors(workDir string) {
	if _, err := os.Stat(filepath.Join(workDir, "go.mod")); err != nil {
		return
	}
	provider := index.NewLegacyGoProvider()
	syms, scanErrs, err := provider.ScanDirectory(workDir)
	if err != nil {
		return
	}
	if len(scanErrs) == 0 {
		fmt.Printf("Go parse check: %d symbols, no parse errors.\n", len(syms))
		return
	}
	fmt.Fprintf(os.Stderr, "Go parse check: %d files failed to parse:\n", len(scanErrs))
	for _, se := range scanErrs {
		fmt.Fprintf(os.Stderr, "  %s\n", se.Error())
	}
}
