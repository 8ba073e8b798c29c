// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFailureStore_SimilarFailuresReturnsSolutionWhenRecorded(t *testing.T) {
	root := t.TempDir()
	s := NewFailureStore(root)

	require.NoError(t, s.Record("run_command", `{"command":"go build"}`, "undefined: Foo"))
	require.NoError(t, s.RecordSolution("run_command", "undefined: Foo", "add the missing import"))

	got := s.SimilarFailures("run_command", "undefined: Foo somewhere")
	require.NotEmpty(t, got)
	assert.Equal(t, "add the missing import", got[0])
}

func TestFailureStore_SimilarFailuresFallsBackToErrorWithoutSolution(t *testing.T) {
	root := t.TempDir()
	s := NewFailureStore(root)
	require.NoError(t, s.Record("apply_patch", "{}", "CONFLICT DETECTED: a.go"))

	got := s.SimilarFailures("apply_patch", "CONFLICT DETECTED: a.go")
	require.NotEmpty(t, got)
	assert.Equal(t, "CONFLICT DETECTED: a.go", got[0])
}

func TestFailureStore_DissimilarErrorsNotReturned(t *testing.T) {
	root := t.TempDir()
	s := NewFailureStore(root)
	require.NoError(t, s.Record("run_command", "{}", "permission denied"))

	got := s.SimilarFailures("run_command", "syntax error near unexpected token")
	assert.Empty(t, got)
}

func TestFailureStore_DifferentToolNotReturned(t *testing.T) {
	root := t.TempDir()
	s := NewFailureStore(root)
	require.NoError(t, s.Record("run_command", "{}", "timeout"))

	got := s.SimilarFailures("grep", "timeout")
	assert.Empty(t, got)
}

func TestFailureStore_CapsAtMaxRecords(t *testing.T) {
	root := t.TempDir()
	s := NewFailureStore(root)
	for i := 0; i < maxFailureRecords+10; i++ {
		require.NoError(t, s.Record("t", "{}", "e"))
	}
	records := s.load()
	assert.Len(t, records, maxFailureRecords)
}
