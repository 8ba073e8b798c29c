// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package tools

import (
	"path/filepath"
	"strings"
)

// backupPath returns the path under root/.photon/backups/ that mirrors
// relPath. Absolute paths are folded under an "abs/" prefix with their
// drive letter and path separators sanitized into plain directory
// components, so a backup of "C:\foo\bar.txt" lands at
// ".photon/backups/abs/C/foo/bar.txt" and "/etc/hosts" lands at
// ".photon/backups/abs/etc/hosts".
func backupPath(root, relPath string) string {
	mirrored := relPath
	if filepath.IsAbs(relPath) {
		mirrored = filepath.Join("abs", sanitizeAbs(relPath))
	}
	return filepath.Join(root, ".photon", "backups", filepath.FromSlash(mirrored))
}

// sanitizeAbs strips a leading drive letter (e.g. "C:") and leading
// separators from an absolute path, turning it into a relative chain of
// directory components safe to join under "abs/".
func sanitizeAbs(p string) string {
	p = filepath.ToSlash(p)
	if len(p) >= 2 && p[1] == ':' {
		p = string(p[0]) + "/" + strings.TrimPrefix(p[2:], "/")
	}
	p = strings.TrimPrefix(p, "/")
	return p
}
