// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package llm

import (
	"context"
	"sort"
	"strings"

	"github.com/petar-djukic/photon/pkg/types"
)

// pendingToolCall accumulates one streamed tool call's fragments, keyed
// by its position in the provider's tool_calls array.
type pendingToolCall struct {
	id, name string
	args     strings.Builder
}

// consumeStream reads chunks from a chat-completion stream, sends text
// tokens through tokenCh, and accumulates the full response text plus
// any tool calls the model requested. The channel is closed when
// streaming completes or the context is cancelled.
func consumeStream(ctx context.Context, stream ChatStream, tokenCh chan<- string) *types.StreamResponse {
	defer close(tokenCh)
	defer stream.Close()

	var text strings.Builder
	response := &types.StreamResponse{}
	pending := make(map[int]*pendingToolCall)
	var order []int

	finish := func() *types.StreamResponse {
		response.FullText = text.String()
		response.ToolCalls = finalizeToolCalls(pending, order)
		return response
	}

	for {
		select {
		case <-ctx.Done():
			return finish()
		default:
		}

		chunk, err := stream.Recv()
		if err != nil {
			// io.EOF is the normal end of stream; any other error just
			// truncates the response the same way, since the initiating
			// call already classified connection-level failures.
			return finish()
		}

		// With IncludeUsage, usage arrives on a final chunk that carries
		// no choices.
		if chunk.Usage != nil {
			response.Usage.InputTokens = chunk.Usage.PromptTokens
			response.Usage.OutputTokens = chunk.Usage.CompletionTokens
		}

		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta

		if delta.Content != "" {
			text.WriteString(delta.Content)
			select {
			case tokenCh <- delta.Content:
			case <-ctx.Done():
				return finish()
			}
		}

		for _, tc := range delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			p, ok := pending[idx]
			if !ok {
				p = &pendingToolCall{}
				pending[idx] = p
				order = append(order, idx)
			}
			if tc.ID != "" {
				p.id = tc.ID
			}
			if tc.Function.Name != "" {
				p.name = tc.Function.Name
			}
			p.args.WriteString(tc.Function.Arguments)
		}
	}
}

// finalizeToolCalls renders the accumulated per-index fragments into the
// ordered list of complete tool calls the model requested.
func finalizeToolCalls(pending map[int]*pendingToolCall, order []int) []types.ToolCall {
	if len(pending) == 0 {
		return nil
	}
	sort.Ints(order)

	out := make([]types.ToolCall, 0, len(order))
	seen := make(map[int]bool, len(order))
	for _, idx := range order {
		if seen[idx] {
			continue
		}
		seen[idx] = true
		p := pending[idx]
		out = append(out, types.ToolCall{ID: p.id, Name: p.name, Arguments: p.args.String()})
	}
	return out
}
