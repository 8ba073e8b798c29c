// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/petar-djukic/photon/internal/memory"
)

// newMemoryCmd creates the "memory" command tree: operator-triggered
// views of the long-term stores under .photon/memory/.
func newMemoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect the long-term memory stores",
	}
	cmd.AddCommand(newMemoryProjectCmd())
	cmd.AddCommand(newMemoryPrefsCmd())
	return cmd
}

func newMemoryProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Show (and refresh) the autodetected project memory",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := memory.NewProjectStore(viper.GetString("workdir"))
			info, err := store.Refresh()
			if err != nil {
				return fmt.Errorf("refreshing project memory: %w", err)
			}
			out, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}

	var arch, conventions string
	notes := &cobra.Command{
		Use:   "notes",
		Short: "Record architecture/convention notes into project memory",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := memory.NewProjectStore(viper.GetString("workdir"))
			if err := store.SetNotes(arch, conventions); err != nil {
				return fmt.Errorf("saving notes: %w", err)
			}
			fmt.Println("Saved.")
			return nil
		},
	}
	notes.Flags().StringVar(&arch, "architecture", "", "Architecture notes")
	notes.Flags().StringVar(&conventions, "conventions", "", "Coding convention notes")
	cmd.AddCommand(notes)
	return cmd
}

func newMemoryPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs [key [value]]",
		Short: "List, read, or set operator preferences",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := memory.NewPreferenceStore(viper.GetString("workdir"))
			switch len(args) {
			case 0:
				out, err := json.MarshalIndent(store.All(), "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
			case 1:
				v, ok := store.Get(args[0])
				if !ok {
					return fmt.Errorf("no preference named %q", args[0])
				}
				fmt.Println(v)
			case 2:
				if err := store.Set(args[0], args[1]); err != nil {
					return fmt.Errorf("saving preference: %w", err)
				}
				fmt.Println("Saved.")
			}
			return nil
		},
	}
	return cmd
}
