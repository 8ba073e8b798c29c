// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package agent

import (
	"context"
	"testing"

	"github.com/petar-djukic/photon/internal/tools"
	"github.com/petar-djukic/photon/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedPrompter replays a fixed sequence of StreamResponses, one per
// call to SendPrompt, so the control loop can be driven deterministically
// without a live model.
type scriptedPrompter struct {
	responses []*types.StreamResponse
	calls     int
	lastSeen  []types.Message
}

func (p *scriptedPrompter) SendPrompt(ctx context.Context, messages []types.Message, specs []tools.FunctionSpec) (<-chan string, <-chan *types.StreamResponse) {
	p.lastSeen = append([]types.Message(nil), messages...)
	tokenCh := make(chan string)
	close(tokenCh)
	resultCh := make(chan *types.StreamResponse, 1)
	idx := p.calls
	p.calls++
	if idx >= len(p.responses) {
		idx = len(p.responses) - 1
	}
	resultCh <- p.responses[idx]
	close(resultCh)
	return tokenCh, resultCh
}

func (p *scriptedPrompter) CumulativeUsage() types.TokenUsage { return types.TokenUsage{} }

func newRegistryWithEchoTool() *tools.Registry {
	r := tools.NewRegistry()
	r.Register(echoTool{})
	return r
}

// echoTool is a trivial tool used only to drive the control loop in
// tests; it always succeeds.
type echoTool struct{}

func (echoTool) Name() string               { return "echo" }
func (echoTool) Description() string        { return "echoes its arguments back" }
func (echoTool) ParametersSchema() tools.Schema { return tools.Schema{"type": "object"} }
func (echoTool) Execute(rawArgs string) types.ToolResult {
	return types.Text(rawArgs)
}

func TestLoop_TerminatesOnNoToolCalls(t *testing.T) {
	prompter := &scriptedPrompter{responses: []*types.StreamResponse{
		{FullText: "all done, nothing more to do"},
	}}
	loop := NewLoop(prompter, newRegistryWithEchoTool(), "system prompt")

	res, err := loop.Run(context.Background(), "do the thing")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "all done, nothing more to do", res.FinalMessage)
	assert.Equal(t, 0, res.Iterations)
}

func TestLoop_DispatchesToolCallsAndRecordsObservations(t *testing.T) {
	prompter := &scriptedPrompter{responses: []*types.StreamResponse{
		{ToolCalls: []types.ToolCall{{ID: "1", Name: "echo", Arguments: `{"x":1}`}}},
		{FullText: "finished"},
	}}
	loop := NewLoop(prompter, newRegistryWithEchoTool(), "system prompt")

	res, err := loop.Run(context.Background(), "goal")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Iterations)
	require.Len(t, res.CompletedSteps, 1)
	assert.Contains(t, res.CompletedSteps[0], "echo")
}

func TestLoop_StopsAtIterationCap(t *testing.T) {
	resp := &types.StreamResponse{ToolCalls: []types.ToolCall{{ID: "1", Name: "echo", Arguments: `{}`}}}
	prompter := &scriptedPrompter{responses: []*types.StreamResponse{resp}}
	loop := NewLoop(prompter, newRegistryWithEchoTool(), "system prompt")
	loop.MaxIterations = 3

	res, err := loop.Run(context.Background(), "goal")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 3, res.Iterations)
}

func TestLoop_ConstitutionViolationSkipsExecutionButContinues(t *testing.T) {
	prompter := &scriptedPrompter{responses: []*types.StreamResponse{
		{ToolCalls: []types.ToolCall{{ID: "1", Name: "apply_patch", Arguments: `{"files":[]}`}}},
		{FullText: "done"},
	}}
	loop := NewLoop(prompter, newRegistryWithEchoTool(), "system prompt")

	res, err := loop.Run(context.Background(), "goal")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, res.CompletedSteps)
}

func TestLoop_AttemptDoneTerminatesEarly(t *testing.T) {
	r := newRegistryWithEchoTool()
	r.Register(tools.NewAttempt(t.TempDir()))

	prompter := &scriptedPrompter{responses: []*types.StreamResponse{
		{ToolCalls: []types.ToolCall{{ID: "1", Name: "attempt", Arguments: `{"action":"update","status":"done"}`}}},
	}}
	loop := NewLoop(prompter, r, "system prompt")

	res, err := loop.Run(context.Background(), "goal")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Iterations)
}

func TestLoop_AllFailedStepAdvisesStrategyChange(t *testing.T) {
	prompter := &scriptedPrompter{responses: []*types.StreamResponse{
		{ToolCalls: []types.ToolCall{{ID: "1", Name: "no_such_tool", Arguments: `{}`}}},
		{FullText: "done"},
	}}
	loop := NewLoop(prompter, newRegistryWithEchoTool(), "system prompt")

	res, err := loop.Run(context.Background(), "goal")
	require.NoError(t, err)
	assert.True(t, res.Success)

	advised := false
	for _, m := range prompter.lastSeen {
		if m.Role == types.RoleSystem && m.Content != "system prompt" {
			advised = true
			assert.Contains(t, m.Content, "Change strategy")
		}
	}
	assert.True(t, advised, "the plan after an all-failed step must carry a strategy advisory")
}

func TestLoop_TracksModifiedFilesFromApplyPatch(t *testing.T) {
	root := t.TempDir()
	r := tools.NewRegistry()
	tracker := tools.NewReadTracker()
	stack := tools.NewPatchStack(root)
	r.Register(tools.NewApplyPatch(root, tracker, stack))

	prompter := &scriptedPrompter{responses: []*types.StreamResponse{
		{ToolCalls: []types.ToolCall{{ID: "1", Name: "apply_patch", Arguments: `{"files":[{"path":"a.txt","content":"hi\n"}]}`}}},
		{FullText: "done"},
	}}
	loop := NewLoop(prompter, r, "system prompt")

	res, err := loop.Run(context.Background(), "goal")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"a.txt"}, res.ModifiedFiles)
}
