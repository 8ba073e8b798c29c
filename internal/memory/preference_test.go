// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferenceStore_SetGetDelete(t *testing.T) {
	root := t.TempDir()
	s := NewPreferenceStore(root)

	_, ok := s.Get("diff_style")
	assert.False(t, ok)

	require.NoError(t, s.Set("diff_style", "unified"))
	v, ok := s.Get("diff_style")
	require.True(t, ok)
	assert.Equal(t, "unified", v)

	require.NoError(t, s.Delete("diff_style"))
	_, ok = s.Get("diff_style")
	assert.False(t, ok)
}

func TestPreferenceStore_AllReturnsEveryKey(t *testing.T) {
	root := t.TempDir()
	s := NewPreferenceStore(root)
	require.NoError(t, s.Set("a", "1"))
	require.NoError(t, s.Set("b", "2"))

	all := s.All()
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, all)
}
