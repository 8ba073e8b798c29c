// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnifiedDiff_HeaderNamesFile(t *testing.T) {
	out := unifiedDiff("doc.txt", "A\nB\nC\n", "A\nX\nC\n")
	assert.Contains(t, out, "--- a/doc.txt")
	assert.Contains(t, out, "+++ b/doc.txt")
	assert.Contains(t, out, "-B")
	assert.Contains(t, out, "+X")
}

func TestUnifiedDiff_NoChangesProducesNoHunks(t *testing.T) {
	out := unifiedDiff("doc.txt", "A\nB\n", "A\nB\n")
	assert.NotContains(t, out, "@@")
}

func TestUnifiedDiff_AppendedLineShowsAsInsertion(t *testing.T) {
	out := unifiedDiff("doc.txt", "A\n", "A\nB\n")
	assert.Contains(t, out, "@@")
	assert.Contains(t, out, "+B")
}
