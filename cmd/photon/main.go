// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Command photon is the CLI front end for the agent: it wires the
// Symbol Index, Tool Execution Layer, LSP Subprocess Bridge, Context &
// Memory stores, and the Agent Control Loop into a single process that
// takes a natural-language goal and edits the repository to satisfy it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "photon",
		Short: "Autonomous code-intelligence agent",
		Long:  "photon takes a natural language goal, explores the repository through an indexed tool surface, and edits it to satisfy the goal.",
	}

	rootCmd.PersistentFlags().String("workdir", ".", "Repository root directory")
	rootCmd.PersistentFlags().String("model", "", "LLM model identifier")
	rootCmd.PersistentFlags().String("base-url", "", "Override for an OpenAI-compatible endpoint")
	rootCmd.PersistentFlags().Int("max-iterations", 50, "Maximum agent control loop iterations")
	rootCmd.PersistentFlags().Int("max-tokens", 4096, "Maximum tokens per LLM response")
	rootCmd.PersistentFlags().Bool("no-git", false, "Disable git dirty-handling and auto-commit")
	rootCmd.PersistentFlags().Bool("no-repo-map", false, "Skip building the PageRank repository map")
	rootCmd.PersistentFlags().StringSlice("lsp", nil, "Language server to attach as ext=command,arg,arg (repeatable)")

	viper.BindPFlag("workdir", rootCmd.PersistentFlags().Lookup("workdir"))
	viper.BindPFlag("model", rootCmd.PersistentFlags().Lookup("model"))
	viper.BindPFlag("base-url", rootCmd.PersistentFlags().Lookup("base-url"))
	viper.BindPFlag("max-iterations", rootCmd.PersistentFlags().Lookup("max-iterations"))
	viper.BindPFlag("max-tokens", rootCmd.PersistentFlags().Lookup("max-tokens"))
	viper.BindPFlag("no-git", rootCmd.PersistentFlags().Lookup("no-git"))
	viper.BindPFlag("no-repo-map", rootCmd.PersistentFlags().Lookup("no-repo-map"))
	viper.BindPFlag("lsp", rootCmd.PersistentFlags().Lookup("lsp"))

	// Env vars: PHOTON_MODEL, PHOTON_WORKDIR, etc.
	viper.SetEnvPrefix("PHOTON")
	viper.AutomaticEnv()

	viper.SetConfigName(".photon")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.ReadInConfig() // Ignore error; config file is optional.

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newIndexCmd())
	rootCmd.AddCommand(newUndoCmd())
	rootCmd.AddCommand(newToolsCmd())
	rootCmd.AddCommand(newMemoryCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newVersionCmd creates the "version" command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print photon's version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("photon %s\n", version)
		},
	}
}
