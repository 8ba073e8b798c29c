// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

// ContentBlock is one piece of a tool's response content, following the
// uniform tool envelope every tool in the execution layer returns.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the uniform envelope every tool returns to the agent
// loop: {content:[...], error?:"..."}. Extra carries
// tool-specific structured data (e.g. a patch id or a list of matched
// symbols) alongside the human-readable Content; it is marshaled by
// each tool's own response type, not by ToolResult itself.
type ToolResult struct {
	Content []ContentBlock `json:"content,omitempty"`
	Err     string         `json:"error,omitempty"`
	Extra   map[string]any `json:"-"`
}

// IsError reports whether this result represents a failure.
func (r ToolResult) IsError() bool { return r.Err != "" }

// Text builds a single-block ToolResult from a plain string.
func Text(s string) ToolResult {
	return ToolResult{Content: []ContentBlock{{Type: "text", Text: s}}}
}

// ErrorText builds a ToolResult carrying an error message in the
// envelope's error field, per the tool envelope's failure shape.
func ErrorText(s string) ToolResult {
	return ToolResult{Err: s}
}
