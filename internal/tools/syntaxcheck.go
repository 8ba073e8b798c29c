// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/petar-djukic/photon/pkg/types"
)

const syntaxCheckTimeout = 60 * time.Second

// SyntaxCheck runs the project's build command, auto-detected from
// well-known marker files, and returns lines matching recognized
// compiler error/warning markers. A clean build returns the full output
// instead.
type SyntaxCheck struct {
	Root      string
	Override  []string // explicit build command override, e.g. ["make", "build"]
}

// NewSyntaxCheck constructs the syntax_check tool rooted at root.
func NewSyntaxCheck(root string) *SyntaxCheck {
	return &SyntaxCheck{Root: root}
}

func (t *SyntaxCheck) Name() string { return "syntax_check" }

func (t *SyntaxCheck) Description() string {
	return "Run the project's build command (auto-detected, or an explicit override) and report compiler error/warning lines, or the full build output on success."
}

func (t *SyntaxCheck) ParametersSchema() Schema {
	return Schema{
		"type":       "object",
		"properties": Schema{"command": Schema{"type": "string"}},
	}
}

type syntaxCheckArgs struct {
	Command string `json:"command"`
}

var errorMarker = regexp.MustCompile(`(?i)\berror\b|\bwarning\b`)

func (t *SyntaxCheck) Execute(rawArgs string) types.ToolResult {
	var args syntaxCheckArgs
	if rawArgs != "" {
		_ = json.Unmarshal([]byte(rawArgs), &args)
	}

	parts := t.Override
	if args.Command != "" {
		parts = strings.Fields(args.Command)
	}
	if len(parts) == 0 {
		parts = detectBuildCommand(t.Root)
	}
	if len(parts) == 0 {
		return types.ErrorText("no build system detected and no command override given")
	}

	ctx, cancel := context.WithTimeout(context.Background(), syntaxCheckTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Dir = t.Root
	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()

	output := buf.String()
	if err == nil {
		return types.Text(output)
	}

	var lines []string
	for _, line := range strings.Split(output, "\n") {
		if errorMarker.MatchString(line) {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return types.Text(output)
	}
	return types.Text(strings.Join(lines, "\n"))
}

// detectBuildCommand probes root for well-known build-system marker
// files, in priority order: CMake, Makefile, package.json with a build
// script, Cargo.toml, go.mod.
func detectBuildCommand(root string) []string {
	exists := func(name string) bool {
		_, err := os.Stat(filepath.Join(root, name))
		return err == nil
	}

	switch {
	case exists("CMakeLists.txt"):
		return []string{"cmake", "--build", "."}
	case exists("Makefile"):
		return []string{"make"}
	case exists("package.json") && hasBuildScript(filepath.Join(root, "package.json")):
		return []string{"npm", "run", "build"}
	case exists("Cargo.toml"):
		return []string{"cargo", "build"}
	case exists("go.mod"):
		return []string{"go", "build", "./..."}
	default:
		return nil
	}
}

// hasBuildScript reports whether package.json declares a "build" script.
func hasBuildScript(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var doc struct {
		Scripts map[string]string `json:"scripts"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return false
	}
	_, ok := doc.Scripts["build"]
	return ok
}
