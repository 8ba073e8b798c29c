// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	gitpkg "github.com/petar-djukic/photon/internal/git"
	"github.com/petar-djukic/photon/internal/tools"
)

// newUndoCmd creates the "undo" command. It pops the most recent
// apply_patch entry off the patch stack when one exists; with an empty
// stack it falls back to reverting the last photon commit.
func newUndoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Revert the last applied patch (or photon commit)",
		RunE: func(cmd *cobra.Command, args []string) error {
			workDir := viper.GetString("workdir")

			stack := tools.NewPatchStack(workDir)
			if stack.Size() > 0 {
				patcher := tools.NewApplyPatch(workDir, nil, stack)
				entry, err := patcher.Undo()
				if err != nil {
					return fmt.Errorf("undo failed: %w", err)
				}
				fmt.Printf("Reverted patch %s (%s).\n", entry.Timestamp, strings.Join(entry.Files, ", "))
				return nil
			}

			repo, err := gitpkg.Open(gitpkg.Config{WorkDir: workDir})
			if err != nil {
				return fmt.Errorf("nothing on the patch stack and no repository to undo in: %w", err)
			}
			if err := repo.Undo(); err != nil {
				return fmt.Errorf("undo failed: %w", err)
			}
			fmt.Println("Successfully reverted last photon commit.")
			return nil
		},
	}
}
