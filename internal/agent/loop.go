// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/petar-djukic/photon/internal/tools"
	"github.com/petar-djukic/photon/pkg/types"
)

const defaultMaxIterations = 50

// Prompter abstracts LLM interaction so the loop is testable without a
// live provider, mirroring internal/coder.Runner's Prompter seam.
type Prompter interface {
	SendPrompt(ctx context.Context, messages []types.Message, toolSpecs []tools.FunctionSpec) (<-chan string, <-chan *types.StreamResponse)
	CumulativeUsage() types.TokenUsage
}

// FailureMemory surfaces prior-session failures similar to the one about
// to be attempted, so the loop can steer the model away from a mistake
// it has already made in a previous run. Implemented by internal/memory.
type FailureMemory interface {
	SimilarFailures(tool, errMsg string) []string
}

// ContextCompressor shortens the message history once it grows past a
// configured threshold, so a long-running task doesn't exceed the
// model's context window. Implemented by internal/memory.ContextManager.
type ContextCompressor interface {
	Compress(ctx context.Context, messages []types.Message) ([]types.Message, error)
}

// Progress receives incremental notifications as the loop runs, e.g. for
// a CLI to render live output. Every method is optional to use; a nil
// Progress is never passed to these hooks by the loop itself.
type Progress interface {
	OnToken(text string)
	OnToolCall(tool, args string)
	OnObservation(obs types.Observation)
}

// Loop drives the planning/acting/observing/completed/failed state
// machine: each iteration asks the model to plan (possibly emitting tool
// calls), executes those calls through the tool registry after
// Constitution validation, and feeds the results back as observations
// until the model stops calling tools or the iteration cap is reached.
type Loop struct {
	Prompter      Prompter
	Tools         *tools.Registry
	Validator     *Validator
	FailureMemory FailureMemory
	Context       ContextCompressor
	Progress      Progress
	SystemPrompt  string
	MaxIterations int
	// Root is the project root, used only to resolve the SEARCH/REPLACE
	// text-edit fallback against on-disk files; tools own their own root
	// independently.
	Root string
	// RepoMap, if set, is injected as a user message right after the
	// system prompt: a PageRank-ordered summary of the project's most
	// call-graph-central symbols, giving the model useful orientation
	// before it starts exploring with list_project_files/read_code_block.
	RepoMap string
}

// NewLoop constructs a control loop with the given system prompt, tool
// registry, and prompter, using the default 50-iteration cap and a fresh
// Constitution Validator.
func NewLoop(prompter Prompter, registry *tools.Registry, systemPrompt string) *Loop {
	return &Loop{
		Prompter:      prompter,
		Tools:         registry,
		Validator:     NewValidator(),
		SystemPrompt:  systemPrompt,
		MaxIterations: defaultMaxIterations,
	}
}

// root returns the project root used to resolve the text-edit fallback,
// defaulting to the working directory.
func (l *Loop) root() string {
	if l.Root != "" {
		return l.Root
	}
	return "."
}

// Result is the outcome of one Run.
type Result struct {
	Success        bool
	Iterations     int
	CompletedSteps []string
	ModifiedFiles  []string
	FinalMessage   string
	TokensUsed     types.TokenUsage
}

// Run drives the control loop to completion for goal: repeatedly
// planning, acting on any tool calls the model requests, and observing
// their results, until the model produces a plain-text response with no
// further tool calls, the attempt tool is marked done, or the iteration
// cap is reached.
func (l *Loop) Run(ctx context.Context, goal string) (*Result, error) {
	maxIter := l.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}

	state := NewState(goal)
	messages := []types.Message{{Role: types.RoleSystem, Content: l.SystemPrompt}}
	if l.RepoMap != "" {
		messages = append(messages, types.Message{Role: types.RoleUser, Content: "## Repository Map\n\n" + l.RepoMap})
	}
	messages = append(messages, types.Message{Role: types.RoleUser, Content: goal})

	var finalText string
	modifiedFiles := make(map[string]bool)
	for state.Iteration < maxIter {
		if err := ctx.Err(); err != nil {
			return l.toResult(state, finalText, modifiedFiles), err
		}

		state.SetPhase(types.PhasePlanning)
		if l.Context != nil {
			if compressed, cerr := l.Context.Compress(ctx, messages); cerr == nil {
				messages = compressed
			}
		}
		resp, err := l.plan(ctx, messages)
		if err != nil {
			return l.toResult(state, finalText, modifiedFiles), fmt.Errorf("planning iteration %d: %w", state.Iteration, err)
		}

		if len(resp.ToolCalls) == 0 {
			if call, ok := decodeTextEdits(l.root(), resp.FullText); ok {
				resp.ToolCalls = []types.ToolCall{call}
			}
		}

		assistantMsg := types.Message{Role: types.RoleAssistant, Content: resp.FullText, ToolCalls: resp.ToolCalls}
		messages = append(messages, assistantMsg)
		finalText = resp.FullText

		if len(resp.ToolCalls) == 0 {
			state.Complete(true)
			break
		}

		state.RecordPlan(plannedActionsFrom(resp.ToolCalls))
		state.SetPhase(types.PhaseActing)

		done := false
		failures := 0
		for _, call := range resp.ToolCalls {
			if l.Progress != nil {
				l.Progress.OnToolCall(call.Name, call.Arguments)
			}

			result := l.actOn(state, call)

			state.SetPhase(types.PhaseObserving)
			obs := types.Observation{Tool: call.Name, Result: result, AtIter: state.Iteration}
			state.RecordObservation(obs)
			if l.Progress != nil {
				l.Progress.OnObservation(obs)
			}

			messages = append(messages, types.Message{
				Role:       types.RoleTool,
				Content:    toolResultText(result),
				ToolCallID: call.ID,
				Name:       call.Name,
			})

			if result.IsError() {
				failures++
				state.RecordFailure(call.Name, call.Arguments, result.Err)
			} else {
				state.AddCompletedStep(fmt.Sprintf("%s(%s)", call.Name, call.Arguments))
				if call.Name == "apply_patch" {
					for _, path := range patchedFilePaths(call.Arguments) {
						modifiedFiles[path] = true
					}
				}
			}

			if call.Name == "attempt" && attemptSignalsDone(call.Arguments) {
				done = true
			}
		}

		if failures == len(resp.ToolCalls) {
			messages = append(messages, types.Message{
				Role:    types.RoleSystem,
				Content: fmt.Sprintf("All %d tool calls in the last step failed. Change strategy: re-read the relevant code, adjust the arguments, or try a different tool.", failures),
			})
		}

		state.Iteration++
		if done {
			state.Complete(true)
			break
		}
	}

	if !state.IsComplete {
		state.Complete(false)
	}
	return l.toResult(state, finalText, modifiedFiles), nil
}

// plan sends the current conversation to the model and drains its token
// stream, forwarding tokens to Progress if set.
func (l *Loop) plan(ctx context.Context, messages []types.Message) (*types.StreamResponse, error) {
	tokenCh, resultCh := l.Prompter.SendPrompt(ctx, messages, l.Tools.Schemas())
	for tok := range tokenCh {
		if l.Progress != nil {
			l.Progress.OnToken(tok)
		}
	}
	resp := <-resultCh
	if resp == nil {
		return nil, fmt.Errorf("no response from LLM")
	}
	return resp, nil
}

// actOn validates call against the Constitution and, if it passes,
// dispatches it through the tool registry. A constraint violation is
// reported the same way a failed tool execution would be, so the model
// sees it in the conversation and can correct course.
func (l *Loop) actOn(_ *State, call types.ToolCall) types.ToolResult {
	if l.Validator != nil {
		if v := l.Validator.ValidateToolCall(call.Name, call.Arguments); !v.Valid {
			return types.ErrorText(fmt.Sprintf("constitution violation (%s): %s", v.Constraint, v.Error))
		}
	}

	result := l.Tools.Dispatch(call.Name, call.Arguments)
	if result.IsError() && l.FailureMemory != nil {
		if prior := l.FailureMemory.SimilarFailures(call.Name, result.Err); len(prior) > 0 {
			result.Err = fmt.Sprintf("%s\n(this or a similar %s call failed in a prior run: %s)", result.Err, call.Name, prior[0])
		}
	}
	return result
}

func (l *Loop) toResult(state *State, finalText string, modifiedFiles map[string]bool) *Result {
	res := &Result{
		Success:        state.Phase == types.PhaseCompleted,
		Iterations:     state.Iteration,
		CompletedSteps: append([]string(nil), state.CompletedSteps...),
		FinalMessage:   finalText,
	}
	for path := range modifiedFiles {
		res.ModifiedFiles = append(res.ModifiedFiles, path)
	}
	sort.Strings(res.ModifiedFiles)
	if l.Prompter != nil {
		res.TokensUsed = l.Prompter.CumulativeUsage()
	}
	return res
}

// patchedFilePaths extracts the file paths an apply_patch call touched
// from its still-encoded JSON arguments, for git auto-commit staging.
func patchedFilePaths(rawArgs string) []string {
	var args struct {
		Files []struct {
			Path string `json:"path"`
		} `json:"files"`
	}
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return nil
	}
	paths := make([]string, 0, len(args.Files))
	for _, f := range args.Files {
		if f.Path != "" {
			paths = append(paths, f.Path)
		}
	}
	return paths
}

func plannedActionsFrom(calls []types.ToolCall) []types.PlannedAction {
	out := make([]types.PlannedAction, 0, len(calls))
	for _, c := range calls {
		out = append(out, types.PlannedAction{Tool: c.Name, Args: c.Arguments})
	}
	return out
}

func toolResultText(r types.ToolResult) string {
	if r.IsError() {
		return r.Err
	}
	var out string
	for _, b := range r.Content {
		out += b.Text
	}
	return out
}

// attemptSignalsDone reports whether an attempt tool call's arguments
// mark the operator's intent record as done, which the loop treats as
// an explicit request to finish the run.
func attemptSignalsDone(rawArgs string) bool {
	var args struct {
		Action string `json:"action"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return false
	}
	return args.Action == "update" && args.Status == "done"
}
