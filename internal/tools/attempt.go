// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package tools

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"dario.cat/mergo"

	"github.com/petar-djukic/photon/pkg/types"
)

// AttemptRecord is the persisted operator-intent document at
// .photon/current_attempt.json, carrying the operator's current intent
// across turns so the agent doesn't "forget" mid-task.
type AttemptRecord struct {
	Intent          string   `json:"intent,omitempty"`
	Status          string   `json:"status,omitempty"` // in_progress, done, blocked
	ReadScope       []string `json:"read_scope,omitempty"`
	StepsCompleted  []string `json:"steps_completed,omitempty"`
	AffectedFiles   []string `json:"affected_files,omitempty"`
	CreatedAt       string   `json:"created_at,omitempty"`
	UpdatedAt       string   `json:"updated_at,omitempty"`
}

// Attempt implements the attempt tool: get/update/clear the single
// current-intent record.
type Attempt struct {
	Root string
	mu   sync.Mutex
}

// NewAttempt constructs the attempt tool rooted at root.
func NewAttempt(root string) *Attempt {
	return &Attempt{Root: root}
}

func (t *Attempt) Name() string { return "attempt" }

func (t *Attempt) Description() string {
	return "Get, update, or clear the operator's current-intent record, persisted at .photon/current_attempt.json so intent survives across agent turns."
}

func (t *Attempt) ParametersSchema() Schema {
	return Schema{
		"type": "object",
		"properties": Schema{
			"action":         Schema{"type": "string", "enum": []string{"get", "update", "clear"}},
			"intent":         Schema{"type": "string"},
			"status":         Schema{"type": "string", "enum": []string{"in_progress", "done", "blocked"}},
			"read_scope":     Schema{"type": "array", "items": Schema{"type": "string"}},
			"step_done":      Schema{"type": "string"},
			"affected_files": Schema{"type": "array", "items": Schema{"type": "string"}},
		},
		"required": []string{"action"},
	}
}

type attemptArgs struct {
	Action        string   `json:"action"`
	Intent        string   `json:"intent"`
	Status        string   `json:"status"`
	ReadScope     []string `json:"read_scope"`
	StepDone      string   `json:"step_done"`
	AffectedFiles []string `json:"affected_files"`
}

func (t *Attempt) recordPath() string {
	return filepath.Join(t.Root, ".photon", "current_attempt.json")
}

func (t *Attempt) Execute(rawArgs string) types.ToolResult {
	var args attemptArgs
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return types.ErrorText("invalid arguments: " + err.Error())
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch args.Action {
	case "get":
		return t.get()
	case "update":
		return t.update(args)
	case "clear":
		return t.clear()
	default:
		return types.ErrorText("action must be one of get, update, clear")
	}
}

func (t *Attempt) get() types.ToolResult {
	rec, ok := t.load()
	if !ok {
		return types.Text("{}")
	}
	out, err := json.Marshal(rec)
	if err != nil {
		return types.ErrorText(err.Error())
	}
	return types.Text(string(out))
}

func (t *Attempt) update(args attemptArgs) types.ToolResult {
	rec, ok := t.load()
	if !ok {
		rec = AttemptRecord{CreatedAt: nowStamp()}
	}

	partial := AttemptRecord{
		Intent:        args.Intent,
		Status:        args.Status,
		ReadScope:     args.ReadScope,
		AffectedFiles: args.AffectedFiles,
	}
	if err := mergo.Merge(&rec, partial, mergo.WithOverride); err != nil {
		return types.ErrorText("merging attempt fields: " + err.Error())
	}

	if args.StepDone != "" {
		rec.StepsCompleted = append(rec.StepsCompleted, args.StepDone)
	}
	rec.UpdatedAt = nowStamp()

	if err := t.save(rec); err != nil {
		return types.ErrorText(err.Error())
	}
	out, err := json.Marshal(rec)
	if err != nil {
		return types.ErrorText(err.Error())
	}
	return types.Text(string(out))
}

func (t *Attempt) clear() types.ToolResult {
	if err := os.Remove(t.recordPath()); err != nil && !os.IsNotExist(err) {
		return types.ErrorText(err.Error())
	}
	return types.Text("{}")
}

func (t *Attempt) load() (AttemptRecord, bool) {
	data, err := os.ReadFile(t.recordPath())
	if err != nil {
		return AttemptRecord{}, false
	}
	var rec AttemptRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return AttemptRecord{}, false
	}
	return rec, true
}

func (t *Attempt) save(rec AttemptRecord) error {
	dir := filepath.Dir(t.recordPath())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating .photon directory: %w", err)
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling attempt record: %w", err)
	}
	return os.WriteFile(t.recordPath(), data, 0o644)
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
