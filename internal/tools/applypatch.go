// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package tools

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/petar-djukic/photon/internal/git"
	"github.com/petar-djukic/photon/pkg/types"
)

// ApplyPatch is the atomic, multi-file edit tool: whole-file content or
// line-based edits, with conflict detection, backup, atomic writes, and
// stacked undo.
type ApplyPatch struct {
	Root    string
	Tracker *ReadTracker
	Stack   *PatchStack
}

// NewApplyPatch constructs the apply_patch tool rooted at root, sharing
// tracker with read_code_block for conflict detection and backed by
// stack for undo.
func NewApplyPatch(root string, tracker *ReadTracker, stack *PatchStack) *ApplyPatch {
	return &ApplyPatch{Root: root, Tracker: tracker, Stack: stack}
}

func (t *ApplyPatch) Name() string { return "apply_patch" }

func (t *ApplyPatch) Description() string {
	return "Apply whole-file or line-range edits to one or more files, with conflict detection against files read earlier in this session, automatic backup, and stacked undo."
}

func (t *ApplyPatch) ParametersSchema() Schema {
	lineEditSchema := Schema{
		"type": "object",
		"properties": Schema{
			"start_line": Schema{"type": "integer"},
			"end_line":   Schema{"type": "integer"},
			"content":    Schema{"type": "string"},
		},
		"required": []string{"start_line", "content"},
	}
	fileEditSchema := Schema{
		"type": "object",
		"properties": Schema{
			"path":    Schema{"type": "string"},
			"content": Schema{"type": "string"},
			"edits":   Schema{"type": "array", "items": lineEditSchema},
		},
		"required": []string{"path"},
	}
	return Schema{
		"type": "object",
		"properties": Schema{
			"files":  Schema{"type": "array", "items": fileEditSchema},
			"backup": Schema{"type": "boolean"},
		},
		"required": []string{"files"},
	}
}

type applyPatchArgs struct {
	Files  []types.FileEdit `json:"files"`
	Backup *bool            `json:"backup"`
}

func (t *ApplyPatch) Execute(rawArgs string) types.ToolResult {
	var args applyPatchArgs
	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return types.ErrorText("invalid arguments: " + err.Error())
		}
	}
	if len(args.Files) == 0 {
		return types.ErrorText("files must be a non-empty array")
	}
	for _, f := range args.Files {
		if f.Path == "" {
			return types.ErrorText("every file entry requires a path")
		}
		if f.Content == nil && len(f.Edits) == 0 {
			return types.ErrorText(fmt.Sprintf("%s: entry needs content or edits", f.Path))
		}
	}

	backup := true
	if args.Backup != nil {
		backup = *args.Backup
	}

	var touched []string
	diffs := make(map[string]string)

	for _, f := range args.Files {
		oldText, newText, err := t.applyOne(f, backup)
		if err != nil {
			return types.ErrorText(err.Error())
		}
		touched = append(touched, f.Path)
		diffs[f.Path] = unifiedDiff(f.Path, oldText, newText)
		if t.Tracker != nil {
			t.Tracker.Forget(f.Path)
		}
	}

	var combined strings.Builder
	for _, p := range touched {
		combined.WriteString(diffs[p])
	}

	if t.Stack != nil {
		if _, err := t.Stack.Push(touched, combined.String()); err != nil {
			return types.ErrorText(fmt.Sprintf("patch applied but failed to record undo entry: %v", err))
		}
	}

	return types.Text(fmt.Sprintf("applied patch to %d file(s): %s", len(touched), strings.Join(touched, ", ")))
}

// applyOne applies a single file entry's edit and returns (oldText,
// newText) for diff synthesis. On conflict or bounds violation it
// returns an error with no write performed for this file; files already
// applied earlier in the batch are left as-is (per-file atomicity, no
// cross-file rollback).
func (t *ApplyPatch) applyOne(f types.FileEdit, backup bool) (oldText, newText string, err error) {
	abs := filepath.Join(t.Root, f.Path)

	existing, readErr := os.ReadFile(abs)
	exists := readErr == nil
	if exists {
		oldText = string(existing)
	}

	if t.Tracker != nil && exists {
		if wantHash, tracked := t.Tracker.HashAtRead(f.Path); tracked {
			if contentHash(existing) != wantHash {
				return "", "", fmt.Errorf("CONFLICT DETECTED: %s", f.Path)
			}
		}
	}

	if backup && exists {
		if err := writeBackup(t.Root, f.Path, existing); err != nil {
			return "", "", fmt.Errorf("%s: backing up: %w", f.Path, err)
		}
	}

	var lines []string
	if exists {
		lines = splitLines(oldText)
	}

	if f.Content != nil {
		newText = *f.Content
		if err := atomicWrite(abs, []byte(newText)); err != nil {
			return "", "", fmt.Errorf("%s: writing: %w", f.Path, err)
		}
		return oldText, newText, nil
	}

	nonCode := isNonCode(f.Path)
	if err := verifyEditScope(f.Edits, nonCode); err != nil {
		return "", "", fmt.Errorf("%s: %w", f.Path, err)
	}

	newLines, err := applyLineEdits(lines, f.Edits)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", f.Path, err)
	}

	newText = strings.Join(newLines, "\n")
	if len(newLines) > 0 {
		newText += "\n"
	}
	if err := atomicWrite(abs, []byte(newText)); err != nil {
		return "", "", fmt.Errorf("%s: writing: %w", f.Path, err)
	}
	return oldText, newText, nil
}

// splitLines splits content into lines without a trailing empty entry
// for a final newline, matching the 1-based line numbering edits use.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// verifyEditScope rejects any edit whose replaced range exceeds the
// 500-line cap, unless the file is in the non-code exemption set.
func verifyEditScope(edits []types.LineEdit, nonCode bool) error {
	if nonCode {
		return nil
	}
	for _, e := range edits {
		if e.EndLine == nil {
			continue // insertion, not a range replacement
		}
		span := *e.EndLine - e.StartLine + 1
		if span > maxReadEditLines {
			return fmt.Errorf("edit range [%d,%d] exceeds the %d-line cap", e.StartLine, *e.EndLine, maxReadEditLines)
		}
	}
	return nil
}

// applyLineEdits applies edits to lines in descending start_line order,
// so earlier edits in the list never get renumbered by later ones
// applied first. Each edit with end_line omitted (or less than
// start_line) is an insertion before start_line; otherwise it replaces
// the inclusive [start_line, end_line] range.
func applyLineEdits(lines []string, edits []types.LineEdit) ([]string, error) {
	ordered := make([]types.LineEdit, len(edits))
	copy(ordered, edits)
	for i := 0; i < len(ordered); i++ {
		for j := i + 1; j < len(ordered); j++ {
			if ordered[j].StartLine > ordered[i].StartLine {
				ordered[i], ordered[j] = ordered[j], ordered[i]
			}
		}
	}

	out := append([]string(nil), lines...)
	for _, e := range ordered {
		isInsertion := e.EndLine == nil || *e.EndLine < e.StartLine

		if e.StartLine < 1 {
			return nil, fmt.Errorf("start_line %d is less than 1", e.StartLine)
		}

		newLines := splitLines(e.Content)

		if isInsertion {
			if e.StartLine > len(out)+1 {
				return nil, fmt.Errorf("insertion at line %d is past end of file (%d lines)", e.StartLine, len(out))
			}
			idx := e.StartLine - 1
			tail := append([]string(nil), out[idx:]...)
			out = append(out[:idx], append(newLines, tail...)...)
			continue
		}

		end := *e.EndLine
		if end > len(out) {
			return nil, fmt.Errorf("end_line %d exceeds file length (%d lines)", end, len(out))
		}
		tail := append([]string(nil), out[end:]...)
		out = append(out[:e.StartLine-1], append(newLines, tail...)...)
	}
	return out, nil
}

// writeBackup copies content to the structured backup location mirroring
// relPath under .photon/backups/.
func writeBackup(root, relPath string, content []byte) error {
	dest := backupPath(root, relPath)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, content, 0o644)
}

// atomicWrite writes data to path via a sibling temp file and rename, so
// a crash mid-write never leaves a partially-written file in place.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".photon-patch-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// Undo pops the top patch stack entry and reverts its files: via
// "git apply -R" if git is available and the patch reverses cleanly,
// otherwise by restoring each affected file from its backup.
func (t *ApplyPatch) Undo() (PatchEntry, error) {
	if t.Stack == nil {
		return PatchEntry{}, fmt.Errorf("no patch stack configured")
	}
	entry, ok := t.Stack.Pop()
	if !ok {
		return PatchEntry{}, fmt.Errorf("nothing to undo")
	}

	diffText, err := os.ReadFile(entry.PatchPath)
	if err != nil {
		return entry, fmt.Errorf("reading patch artifact: %w", err)
	}

	if git.Available() {
		if err := git.ReverseApply(t.Root, diffText); err == nil {
			os.Remove(entry.PatchPath)
			return entry, nil
		}
	}

	for _, f := range entry.Files {
		src := backupPath(t.Root, f)
		data, err := os.ReadFile(src)
		if err != nil {
			return entry, fmt.Errorf("restoring %s from backup: %w", f, err)
		}
		if err := atomicWrite(filepath.Join(t.Root, f), data); err != nil {
			return entry, fmt.Errorf("restoring %s: %w", f, err)
		}
	}

	os.Remove(entry.PatchPath)
	return entry, nil
}
