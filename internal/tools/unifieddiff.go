// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package tools

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// unifiedDiff synthesizes a Git-style unified diff between oldText and
// newText for path, using diffmatchpatch's line-mode diffing (the same
// library internal/editor's matcher uses for fuzzy similarity, here
// applied to whole-file line diffing instead).
func unifiedDiff(path, oldText, newText string) string {
	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)

	lines := diffLinesFromDiffs(diffs)
	hunks := buildHunks(lines, 3)

	var b2 strings.Builder
	fmt.Fprintf(&b2, "--- a/%s\n", path)
	fmt.Fprintf(&b2, "+++ b/%s\n", path)
	for _, h := range hunks {
		b2.WriteString(h.header())
		for _, l := range h.lines {
			b2.WriteString(l.marker())
			b2.WriteString(l.text)
			b2.WriteString("\n")
		}
	}
	return b2.String()
}

// diffLine is one line of a unified diff: equal, added, or removed.
type diffLine struct {
	kind diffmatchpatch.Operation // DiffEqual, DiffInsert, DiffDelete
	text string
}

func (l diffLine) marker() string {
	switch l.kind {
	case diffmatchpatch.DiffInsert:
		return "+"
	case diffmatchpatch.DiffDelete:
		return "-"
	default:
		return " "
	}
}

// diffLinesFromDiffs flattens diffmatchpatch's line-grouped diffs into
// one diffLine per source/target line.
func diffLinesFromDiffs(diffs []diffmatchpatch.Diff) []diffLine {
	var out []diffLine
	for _, d := range diffs {
		text := strings.TrimSuffix(d.Text, "\n")
		if text == "" {
			continue
		}
		for _, ln := range strings.Split(text, "\n") {
			out = append(out, diffLine{kind: d.Type, text: ln})
		}
	}
	return out
}

// hunk is one @@ ... @@ section of a unified diff.
type hunk struct {
	oldStart, oldCount int
	newStart, newCount int
	lines              []diffLine
}

func (h hunk) header() string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@\n", h.oldStart, h.oldCount, h.newStart, h.newCount)
}

// buildHunks groups diffLines into hunks, each carrying up to context
// lines of unchanged text on either side of a change run; multiple
// changes closer together than 2*context are merged into one hunk.
func buildHunks(lines []diffLine, context int) []hunk {
	changeIdx := map[int]bool{}
	for i, l := range lines {
		if l.kind != diffmatchpatch.DiffEqual {
			changeIdx[i] = true
		}
	}
	if len(changeIdx) == 0 {
		return nil
	}

	// Determine which line indices fall within context of a change.
	include := make([]bool, len(lines))
	for i := range lines {
		if changeIdx[i] {
			for j := i - context; j <= i+context; j++ {
				if j >= 0 && j < len(lines) {
					include[j] = true
				}
			}
		}
	}

	var hunks []hunk
	oldLine, newLine := 1, 1
	i := 0
	for i < len(lines) {
		if !include[i] {
			if lines[i].kind != diffmatchpatch.DiffInsert {
				oldLine++
			}
			if lines[i].kind != diffmatchpatch.DiffDelete {
				newLine++
			}
			i++
			continue
		}
		hOldStart, hNewStart := oldLine, newLine
		var hLines []diffLine
		oldCount, newCount := 0, 0
		for i < len(lines) && include[i] {
			hLines = append(hLines, lines[i])
			if lines[i].kind != diffmatchpatch.DiffInsert {
				oldCount++
			}
			if lines[i].kind != diffmatchpatch.DiffDelete {
				newCount++
			}
			i++
		}
		hunks = append(hunks, hunk{
			oldStart: hOldStart, oldCount: oldCount,
			newStart: hNewStart, newCount: newCount,
			lines: hLines,
		})
		oldLine += oldCount
		newLine += newCount
	}
	return hunks
}
