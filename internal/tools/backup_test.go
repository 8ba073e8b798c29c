// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package tools

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeAbs_StripsLeadingSlash(t *testing.T) {
	assert.Equal(t, "etc/hosts", sanitizeAbs("/etc/hosts"))
}

func TestSanitizeAbs_StripsDriveLetter(t *testing.T) {
	assert.Equal(t, "C/foo/bar.txt", sanitizeAbs("C:/foo/bar.txt"))
}

func TestBackupPath_MirrorsAbsolutePathUnderAbsPrefix(t *testing.T) {
	got := backupPath("/root/work", "/etc/hosts")
	want := filepath.Join("/root/work", ".photon", "backups", "abs", "etc", "hosts")
	assert.Equal(t, want, got)
}

func TestBackupPath_MirrorsRelativePathDirectly(t *testing.T) {
	got := backupPath("/root/work", "src/a.go")
	want := filepath.Join("/root/work", ".photon", "backups", "src", "a.go")
	assert.Equal(t, want, got)
}
