// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package agent

import (
	"encoding/json"
	"path/filepath"

	"github.com/petar-djukic/photon/internal/editformat"
	"github.com/petar-djukic/photon/internal/editor"
	"github.com/petar-djukic/photon/pkg/types"
)

// decodeTextEdits translates a SEARCH/REPLACE-formatted assistant reply
// into a synthetic apply_patch tool call, for providers that can't speak
// function-calling and instead embed edits as text in the assistant
// content. It resolves each edit against the on-disk file with
// editor.TextEditor's multi-stage matching but performs no writes
// itself: the synthesized call still goes through the tool registry, so
// apply_patch's conflict detection, backup, and undo stacking apply
// exactly as they would to a model-issued tool call. Returns ok=false
// when text contains no recognizable edit blocks, leaving the caller
// free to treat the response as a final answer.
func decodeTextEdits(root, text string) (types.ToolCall, bool) {
	parsed, err := editformat.Parse(text)
	if err != nil || len(parsed.Edits) == 0 {
		return types.ToolCall{}, false
	}

	te := &editor.TextEditor{}
	var files []types.FileEdit
	for _, e := range parsed.Edits {
		resolved := e
		resolved.FilePath = filepath.Join(root, e.FilePath)

		content, _, err := te.ComputeApply(resolved)
		if err != nil {
			continue
		}
		c := content
		files = append(files, types.FileEdit{Path: e.FilePath, Content: &c})
	}
	if len(files) == 0 {
		return types.ToolCall{}, false
	}

	argsJSON, err := json.Marshal(struct {
		Files []types.FileEdit `json:"files"`
	}{Files: files})
	if err != nil {
		return types.ToolCall{}, false
	}

	return types.ToolCall{ID: "fallback-apply-patch", Name: "apply_patch", Arguments: string(argsJSON)}, true
}
