// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package memory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectStore_DetectsGoModule(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0o644))

	s := NewProjectStore(root)
	info := s.Detect()
	assert.Equal(t, "go", info.ProjectType)
	assert.Equal(t, "go", info.BuildSystem)
}

func TestProjectStore_RefreshPreservesOperatorNotes(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module x\n"), 0o644))

	s := NewProjectStore(root)
	require.NoError(t, s.SetNotes("layered architecture", "gofmt, table tests"))

	info, err := s.Refresh()
	require.NoError(t, err)
	assert.Equal(t, "go", info.ProjectType)
	assert.Equal(t, "layered architecture", info.Architecture)
	assert.Equal(t, "gofmt, table tests", info.Conventions)

	reloaded := s.Load()
	assert.Equal(t, info, reloaded)
}

func TestProjectStore_LoadEmptyWhenUnset(t *testing.T) {
	s := NewProjectStore(t.TempDir())
	assert.Equal(t, ProjectInfo{}, s.Load())
}
