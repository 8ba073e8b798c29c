// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package agent implements the planning/acting/observing control loop
// that drives tool calls to completion, grounded on the single-shot
// lifecycle of internal/coder.Runner and on the original Constitution
// agent's AgentState/ConstitutionValidator design.
package agent

import (
	"strings"
	"sync"

	"github.com/petar-djukic/photon/pkg/types"
)

const maxFailedAttemptsRemembered = 50

// State holds one task's working memory across the control loop's
// iterations: the goal, current phase, completed steps, failed tool
// attempts (so the loop can avoid repeating a known-bad call), and the
// planning/acting/observing history for the current run.
type State struct {
	mu sync.Mutex

	Goal           string
	Phase          types.Phase
	Iteration      int
	IsComplete     bool
	CompletedSteps []string
	FailedAttempts []types.FailedAttempt
	PlannedActions []types.PlannedAction
	Observations   []types.Observation
	Context        map[string]any
}

// NewState begins a fresh task with the given goal, in the planning phase.
func NewState(goal string) *State {
	return &State{
		Goal:    goal,
		Phase:   types.PhasePlanning,
		Context: make(map[string]any),
	}
}

// Reset clears all run state back to a fresh planning phase for goal,
// discarding iteration count, history, and failures.
func (s *State) Reset(goal string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Goal = goal
	s.Phase = types.PhasePlanning
	s.Iteration = 0
	s.IsComplete = false
	s.CompletedSteps = nil
	s.FailedAttempts = nil
	s.PlannedActions = nil
	s.Observations = nil
	s.Context = make(map[string]any)
}

// AddCompletedStep appends a human-readable description of a finished
// step to the run's history.
func (s *State) AddCompletedStep(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CompletedSteps = append(s.CompletedSteps, step)
}

// RecordFailure records a failed tool invocation, capping the remembered
// history at maxFailedAttemptsRemembered (oldest dropped first) so a long
// run's failure memory doesn't grow without bound.
func (s *State) RecordFailure(tool, args, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.FailedAttempts = append(s.FailedAttempts, types.FailedAttempt{
		Tool: tool, Args: args, Error: errMsg,
	})
	if len(s.FailedAttempts) > maxFailedAttemptsRemembered {
		s.FailedAttempts = s.FailedAttempts[len(s.FailedAttempts)-maxFailedAttemptsRemembered:]
	}
}

// HasSimilarFailure reports whether a prior failed attempt against the
// same tool carried an error message containing errMsg, or contained in
// it (case-insensitive substring match either way), signalling the loop
// is about to repeat a known mistake.
func (s *State) HasSimilarFailure(tool, errMsg string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(errMsg)
	for _, f := range s.FailedAttempts {
		if f.Tool != tool {
			continue
		}
		if strings.Contains(strings.ToLower(f.Error), needle) || strings.Contains(needle, strings.ToLower(f.Error)) {
			return true
		}
	}
	return false
}

// RecordPlan appends the actions planned for the current iteration.
func (s *State) RecordPlan(actions []types.PlannedAction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PlannedActions = append(s.PlannedActions, actions...)
}

// RecordObservation appends the result of executing a planned action.
func (s *State) RecordObservation(obs types.Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Observations = append(s.Observations, obs)
}

// SetPhase transitions the run to phase.
func (s *State) SetPhase(phase types.Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Phase = phase
}

// CurrentPhase returns the run's current phase.
func (s *State) CurrentPhase() types.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Phase
}

// Complete marks the run finished, successfully or not, transitioning
// to PhaseCompleted or PhaseFailed accordingly.
func (s *State) Complete(success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.IsComplete = true
	if success {
		s.Phase = types.PhaseCompleted
	} else {
		s.Phase = types.PhaseFailed
	}
}
