// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package tools implements the Tool Execution Layer: the small set of
// atomic, schema-described operations the Agent Control Loop dispatches
// on the model's behalf (read_code_block, apply_patch, run_command,
// list_project_files, grep, syntax_check, attempt). Every tool follows
// the same envelope contract and holds no hidden state beyond what it
// owns on disk.
package tools

import "github.com/petar-djukic/photon/pkg/types"

// Schema is a JSON-Schema-shaped argument description, rendered directly
// into the OpenAI-style function-calling tool list the Agent Control
// Loop sends to the model.
type Schema map[string]any

// Tool is the contract every tool in the execution layer implements:
// name, human description, a JSON schema for its arguments, and an
// Execute method taking the raw (still-encoded) JSON arguments string the
// model produced.
type Tool interface {
	// Name is the tool's identifier, matched against ToolCall.Name.
	Name() string
	// Description is the human-readable summary sent to the model.
	Description() string
	// ParametersSchema is the JSON Schema for this tool's arguments.
	ParametersSchema() Schema
	// Execute runs the tool against rawArgs, the model's still-encoded
	// JSON arguments string, and returns a uniform ToolResult envelope.
	// A tool never panics or returns a bare Go error; every failure is
	// reported inside the envelope, in its Err field or, for a failed
	// read_code_block request, as a content block.
	Execute(rawArgs string) types.ToolResult
}

// FunctionSpec is the OpenAI-style function-calling shape: {type, name,
// description, parameters}. Registry.Schemas renders the registered
// tools into a list of these.
type FunctionSpec struct {
	Type     string `json:"type"`
	Function struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Parameters  Schema `json:"parameters"`
	} `json:"function"`
}

// Registry holds the atomic tool surface the Agent Control Loop
// dispatches against. It holds no state of its own beyond the
// registered tools; each tool owns whatever on-disk state it needs.
type Registry struct {
	tools []Tool
	byName map[string]Tool
}

// NewRegistry builds an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Tool)}
}

// Register adds t to the registry. Registering a tool whose name is
// already present replaces the previous entry.
func (r *Registry) Register(t Tool) {
	if _, exists := r.byName[t.Name()]; !exists {
		r.tools = append(r.tools, t)
	}
	r.byName[t.Name()] = t
}

// Lookup returns the tool registered under name, if any.
func (r *Registry) Lookup(name string) (Tool, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Dispatch executes the named tool against rawArgs. If no tool is
// registered under name, it returns an error envelope rather than
// panicking; the Agent Control Loop surfaces this as a failed
// observation.
func (r *Registry) Dispatch(name, rawArgs string) types.ToolResult {
	t, ok := r.byName[name]
	if !ok {
		return types.ErrorText("unknown tool: " + name)
	}
	return t.Execute(rawArgs)
}

// Schemas renders every registered tool into the OpenAI-style
// function-calling list sent to the model alongside the message
// history.
func (r *Registry) Schemas() []FunctionSpec {
	specs := make([]FunctionSpec, 0, len(r.tools))
	for _, t := range r.tools {
		var spec FunctionSpec
		spec.Type = "function"
		spec.Function.Name = t.Name()
		spec.Function.Description = t.Description()
		spec.Function.Parameters = t.ParametersSchema()
		specs = append(specs, spec)
	}
	return specs
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.tools))
	for i, t := range r.tools {
		names[i] = t.Name()
	}
	return names
}
