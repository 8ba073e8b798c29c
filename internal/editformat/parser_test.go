// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package editformat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/petar-djukic/photon/internal/editor"
	"github.com/petar-djukic/photon/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SingleBlock(t *testing.T) {
	response := `Here is the fix:

internal/editor/apply.go
<<<<<<< SEARCH
func Apply(path string) error {
    return nil
}
=======
func Apply(path string) error {
    return applyEdit(path)
}
>>>>>>> REPLACE`

	result, err := Parse(response)
	require.NoError(t, err)
	assert.Equal(t, 1, len(result.Edits))
	assert.Equal(t, 1, result.BlocksFound)
	assert.Equal(t, 1, result.BlocksParsed)
	assert.Equal(t, "internal/editor/apply.go", result.Edits[0].FilePath)
	assert.Contains(t, result.Edits[0].OldContent, "return nil")
	assert.Contains(t, result.Edits[0].NewContent, "return applyEdit(path)")
	assert.Contains(t, result.ReasoningText, "Here is the fix")
}

func TestParse_MultipleBlocks(t *testing.T) {
	response := `I will update three files:

pkg/types/edit.go
<<<<<<< SEARCH
type Edit struct{}
=======
type Edit struct {
    FilePath string
}
>>>>>>> REPLACE

internal/editor/apply.go
<<<<<<< SEARCH
return nil
=======
return applyEdit(path)
>>>>>>> REPLACE

config.yaml
<<<<<<< SEARCH
timeout: 30
=======
timeout: 60
>>>>>>> REPLACE`

	result, err := Parse(response)
	require.NoError(t, err)
	assert.Equal(t, 3, len(result.Edits))
	assert.Equal(t, 3, result.BlocksFound)
	assert.Equal(t, 3, result.BlocksParsed)
	assert.Equal(t, "pkg/types/edit.go", result.Edits[0].FilePath)
	assert.Equal(t, "internal/editor/apply.go", result.Edits[1].FilePath)
	assert.Equal(t, "config.yaml", result.Edits[2].FilePath)
	assert.NotEmpty(t, result.ReasoningText)
}

func TestParse_MarkdownFences(t *testing.T) {
	response := "Here is the change:\n\n```\ninternal/editor/apply.go\n<<<<<<< SEARCH\nreturn nil\n=======\nreturn applyEdit(path)\n>>>>>>> REPLACE\n```"

	result, err := Parse(response)
	require.NoError(t, err)
	assert.Equal(t, 1, len(result.Edits))
	assert.Equal(t, "internal/editor/apply.go", result.Edits[0].FilePath)
	assert.Equal(t, "return nil\n", result.Edits[0].OldContent)
	assert.Equal(t, "return applyEdit(path)\n", result.Edits[0].NewContent)
}

func TestParse_EmptyReplacement(t *testing.T) {
	response := `file.go
<<<<<<< SEARCH
dead code
=======
>>>>>>> REPLACE`

	result, err := Parse(response)
	require.NoError(t, err)
	assert.Equal(t, 1, len(result.Edits))
	assert.Equal(t, "dead code\n", result.Edits[0].OldContent)
	assert.Equal(t, "", result.Edits[0].NewContent)
}

func TestParse_EmptySearch(t *testing.T) {
	response := `file.go
<<<<<<< SEARCH
=======
new content
>>>>>>> REPLACE`

	result, err := Parse(response)
	require.NoError(t, err)
	assert.Equal(t, 1, len(result.Edits))
	assert.Equal(t, "", result.Edits[0].OldContent)
	assert.Equal(t, "new content\n", result.Edits[0].NewContent)
}

func TestParse_MalformedBlock_MissingReplace(t *testing.T) {
	response := `internal/editor/apply.go
<<<<<<< SEARCH
return nil
=======
return applyEdit(path)`

	result, err := Parse(response)
	require.NoError(t, err)
	assert.Equal(t, 0, len(result.Edits))
	assert.Equal(t, 1, len(result.ParseErrors))
	assert.Contains(t, result.ParseErrors[0].Message, "unclosed block")
	assert.Contains(t, result.ParseErrors[0].RawText, "return nil")
	assert.Greater(t, result.ParseErrors[0].Position, 0)
}

func TestParse_MalformedBlock_MissingDivider(t *testing.T) {
	response := `file.go
<<<<<<< SEARCH
some content`

	result, err := Parse(response)
	require.NoError(t, err)
	assert.Equal(t, 0, len(result.Edits))
	assert.Equal(t, 1, len(result.ParseErrors))
	assert.Contains(t, result.ParseErrors[0].Message, "divider")
}

func TestParse_EmptyResponse(t *testing.T) {
	_, err := Parse("")
	require.Error(t, err)
	assert.IsType(t, &NoEditsFoundError{}, err)
}

func TestParse_NoBlocks(t *testing.T) {
	_, err := Parse("This is just reasoning text with no edit blocks.")
	require.Error(t, err)
	assert.IsType(t, &NoEditsFoundError{}, err)
}

func TestParse_ResponseMetadata(t *testing.T) {
	response := `Let me explain the change.

First, we need to update the config:

config.yaml
<<<<<<< SEARCH
timeout: 30
=======
timeout: 60
>>>>>>> REPLACE

And that should fix the issue.`

	result, err := Parse(response)
	require.NoError(t, err)
	assert.Equal(t, 1, result.BlocksFound)
	assert.Equal(t, 1, result.BlocksParsed)
	assert.Contains(t, result.ReasoningText, "explain the change")
	assert.Contains(t, result.ReasoningText, "fix the issue")
}

// Parsing and resolution compose: a parsed block resolves against the
// on-disk file through the text editor without writing anything.
func TestParse_ComputeApplyIntegration(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("timeout: 30\nretries: 3\n"), 0o644))

	response := "config.yaml\n" +
		"<<<<<<< SEARCH\n" +
		"timeout: 30\n" +
		"=======\n" +
		"timeout: 60\n" +
		">>>>>>> REPLACE"

	result, err := Parse(response)
	require.NoError(t, err)
	require.Len(t, result.Edits, 1)

	te := &editor.TextEditor{}
	edit := result.Edits[0]
	edit.FilePath = yamlPath
	content, applied, err := te.ComputeApply(edit)
	require.NoError(t, err)
	assert.Equal(t, types.StageExact, applied.Stage)
	assert.Equal(t, "timeout: 60\nretries: 3\n", content)

	// ComputeApply must not have touched the file.
	got, err := os.ReadFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, "timeout: 30\nretries: 3\n", string(got))
}
