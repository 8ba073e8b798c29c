// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// newToolsCmd creates the "tools" command: prints the OpenAI-style
// function schemas for the registered tool surface, useful for
// inspecting what the agent can call without starting a run.
func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the Tool Execution Layer's function schemas",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := newToolRegistry(".", nil)
			out, err := json.MarshalIndent(reg.Schemas(), "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling tool schemas: %w", err)
			}
			fmt.Println(string(out))
			return nil
		},
	}
}
