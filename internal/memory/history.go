// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/petar-djukic/photon/pkg/types"
)

// DefaultCompressionThreshold is the total message-history character
// count past which ContextManager.Compress starts summarizing.
const DefaultCompressionThreshold = 12000

// Summarizer asks the model to condense text into a short passage. The
// Agent Control Loop's LLM client implements this through a thin
// adapter so the context manager itself never depends on a transport.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// ContextManager owns message-history compression: once the linear
// history exceeds Threshold characters, it summarizes the oldest
// contiguous run of assistant/tool messages into a single system
// message tagged [READ_SUMMARY], keeping the conversation within budget
// without discarding the system/user seed or the most recent turns.
// Summaries are deduplicated by a stable key derived from the run's first
// tool call (tool name plus its raw arguments) or tool-result message, so
// repeated reads of the same scope don't accumulate duplicate summary
// entries across passes.
type ContextManager struct {
	Threshold  int
	Summarizer Summarizer

	seen map[string]bool
}

// NewContextManager constructs a context manager backed by summarizer,
// using DefaultCompressionThreshold until Threshold is set explicitly.
func NewContextManager(summarizer Summarizer) *ContextManager {
	return &ContextManager{Summarizer: summarizer, seen: make(map[string]bool)}
}

func (c *ContextManager) threshold() int {
	if c.Threshold > 0 {
		return c.Threshold
	}
	return DefaultCompressionThreshold
}

// Compress returns messages unchanged when their combined content size
// is within Threshold. Otherwise it finds the oldest contiguous run of
// assistant/tool-result messages after the leading system/user seed,
// replaces it with one [READ_SUMMARY] system message (or drops it
// outright if an equivalent run was already summarized), and returns
// the shortened history.
func (c *ContextManager) Compress(ctx context.Context, messages []types.Message) ([]types.Message, error) {
	if totalChars(messages) <= c.threshold() {
		return messages, nil
	}

	start, end := oldestCompressibleRun(messages)
	if start < 0 {
		return messages, nil
	}
	run := messages[start:end]

	if c.seen == nil {
		c.seen = make(map[string]bool)
	}
	key := dedupeKey(run)
	if c.seen[key] {
		return splice(messages, start, end, nil), nil
	}

	var b strings.Builder
	for _, m := range run {
		fmt.Fprintf(&b, "[%s] %s\n", m.Role, m.Content)
	}
	summary, err := c.Summarizer.Summarize(ctx, b.String())
	if err != nil {
		return messages, fmt.Errorf("summarizing context: %w", err)
	}
	c.seen[key] = true

	replacement := types.Message{Role: types.RoleSystem, Content: "[READ_SUMMARY] " + summary}
	return splice(messages, start, end, []types.Message{replacement}), nil
}

// splice returns a copy of messages with [start,end) replaced by with.
func splice(messages []types.Message, start, end int, with []types.Message) []types.Message {
	out := make([]types.Message, 0, len(messages)-(end-start)+len(with))
	out = append(out, messages[:start]...)
	out = append(out, with...)
	out = append(out, messages[end:]...)
	return out
}

func totalChars(messages []types.Message) int {
	n := 0
	for _, m := range messages {
		n += len(m.Content)
	}
	return n
}

// oldestCompressibleRun returns the [start,end) bounds of the first
// contiguous run of assistant/tool messages following the leading
// system/user seed, or (-1,-1) if the history has nothing to compress.
// The most recent message is never included, so the model always sees
// at least the result of its last action uncompressed.
func oldestCompressibleRun(messages []types.Message) (int, int) {
	start := -1
	limit := len(messages) - 1
	for i := 0; i < limit; i++ {
		role := messages[i].Role
		if role == types.RoleAssistant || role == types.RoleTool {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			return start, i
		}
	}
	if start >= 0 {
		return start, limit
	}
	return -1, -1
}

// dedupeKey derives a stable identity for a compressible run from its
// first tool call or tool-result message, falling back to the first
// line of the run's leading message.
func dedupeKey(run []types.Message) string {
	for _, m := range run {
		for _, tc := range m.ToolCalls {
			return tc.Name + ":" + tc.Arguments
		}
		if m.Name != "" {
			return m.Name + ":" + firstLine(m.Content)
		}
	}
	if len(run) == 0 {
		return ""
	}
	return firstLine(run[0].Content)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 80 {
		s = s[:80]
	}
	return s
}
