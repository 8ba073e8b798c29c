// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package tools

import (
	"testing"

	"github.com/petar-djukic/photon/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// List with symbols: root contains a.cpp with a class Foo and function
// bar; list_project_files(include_symbols=true) decorates its entry
// with a sym string containing both names.
func TestListProjectFiles_IncludeSymbols(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.cpp", "class Foo {};\nvoid bar() {}\n")

	idx := fakeIndex{
		"a.cpp": {
			{Name: "Foo", Kind: types.Class, Line: 1, EndLine: 1},
			{Name: "bar", Kind: types.Function, Line: 2, EndLine: 2},
		},
	}
	tool := NewListProjectFiles(root, idx)
	res := tool.Execute(`{"path":".","include_symbols":true}`)
	require.False(t, res.IsError(), res.Err)
	assert.Contains(t, res.Content[0].Text, "Foo")
	assert.Contains(t, res.Content[0].Text, "bar")
}

func TestListProjectFiles_IgnoresDotGitAndNodeModules(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, ".git/HEAD", "ref: refs/heads/main\n")
	writeFile(t, root, "node_modules/dep/index.js", "module.exports = {};\n")
	writeFile(t, root, "src/main.go", "package main\n")

	tool := NewListProjectFiles(root, fakeIndex{})
	res := tool.Execute(`{"path":"."}`)
	require.False(t, res.IsError(), res.Err)
	assert.NotContains(t, res.Content[0].Text, "node_modules")
	assert.NotContains(t, res.Content[0].Text, "HEAD")
	assert.Contains(t, res.Content[0].Text, "main.go")
}

func TestListProjectFiles_WithoutIndexSymbolsOmitted(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a\n")

	tool := NewListProjectFiles(root, nil)
	res := tool.Execute(`{"path":".","include_symbols":true}`)
	require.False(t, res.IsError(), res.Err)
	assert.NotContains(t, res.Content[0].Text, `"sym"`)
}
