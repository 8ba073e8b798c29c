// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package tools

import "strings"

// nonCodeExtensions is the exact set of extensions exempt from the
// 500-line read/edit cap, carried verbatim from the original
// ConstitutionValidator's extension list.
var nonCodeExtensions = map[string]bool{
	".json": true, ".md": true, ".yml": true, ".yaml": true,
	".txt": true, ".toml": true, ".xml": true, ".html": true, ".htm": true,
	".cmake": true, ".lock": true, ".ini": true, ".cfg": true, ".conf": true,
	".env": true, ".gitignore": true, ".cursorignore": true,
}

// isNonCode reports whether path's extension is exempt from the
// 500-line cap enforced on code-file reads and edits. The dotfiles
// ".gitignore", ".cursorignore" and ".env" are also matched by base name.
func isNonCode(path string) bool {
	base := path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		base = path[i+1:]
	}
	if base == ".gitignore" || base == ".cursorignore" || base == ".env" {
		return true
	}
	ext := extOf(path)
	return nonCodeExtensions[ext]
}

// IsNonCode reports whether path is exempt from the 500-line cap, per
// isNonCode; exported so the Constitution Validator can apply the same
// rule before a tool call ever reaches the registry.
func IsNonCode(path string) bool { return isNonCode(path) }

// extOf returns the lowercased extension of path, including the leading
// dot, or "" if path has none.
func extOf(path string) string {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return ""
	}
	slash := strings.LastIndexByte(path, '/')
	if slash > i {
		return ""
	}
	return strings.ToLower(path[i:])
}

const maxReadEditLines = 500
