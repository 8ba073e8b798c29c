// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package agent

import (
	"encoding/json"
	"fmt"

	"github.com/petar-djukic/photon/internal/tools"
)

// ValidationResult is the outcome of checking one planned tool call
// against the Constitution's hard constraints. A violation aborts the
// call outright rather than merely warning about it.
type ValidationResult struct {
	Valid      bool
	Error      string
	Constraint string // which constraint was violated, for the failure log
}

func ok() ValidationResult { return ValidationResult{Valid: true} }

func violation(constraint, format string, args ...any) ValidationResult {
	return ValidationResult{Constraint: constraint, Error: fmt.Sprintf(format, args...)}
}

// Validator enforces the Constitution's hard constraints on tool calls
// before they reach the tool registry, ported field-for-field from the
// original ConstitutionValidator: Section 3.1 (read scope, the 500-line
// cap) and Section 3.3 (apply_patch's file/edit shape).
type Validator struct{}

// NewValidator constructs a Constitution Validator.
func NewValidator() *Validator { return &Validator{} }

// ValidateToolCall checks rawArgs, the not-yet-decoded JSON arguments
// for a call to toolName, against the Constitution. Tools other than
// read_code_block and apply_patch carry no hard constraints and pass
// unconditionally.
func (v *Validator) ValidateToolCall(toolName, rawArgs string) ValidationResult {
	switch toolName {
	case "read_code_block":
		return v.validateReadConstraints(rawArgs)
	case "apply_patch":
		return v.validateWriteConstraints(rawArgs)
	default:
		return ok()
	}
}

const constraintIO = "Section 3.1: IO Constraints"
const constraintWrite = "Section 3.3: Write Constraints"

type readItem struct {
	FilePath  *string `json:"file_path"`
	SymbolName *string `json:"symbol_name"`
	StartLine *int    `json:"start_line"`
	EndLine   *int    `json:"end_line"`
}

func hasReadScope(item readItem) bool {
	if item.SymbolName != nil && *item.SymbolName != "" {
		return true
	}
	return item.StartLine != nil || item.EndLine != nil
}

// validateReadConstraints enforces read_code_block's Section 3.1: every
// read (single or batched) must name a file_path, must specify a scope
// (symbol_name or a line range), and a line-range read of a file that's
// expected to carry symbols may not exceed 500 lines.
func (v *Validator) validateReadConstraints(rawArgs string) ValidationResult {
	var batch struct {
		Requests []readItem `json:"requests"`
	}
	_ = json.Unmarshal([]byte(rawArgs), &batch)
	if len(batch.Requests) > 0 {
		for _, req := range batch.Requests {
			if res := validateOneRead(req); !res.Valid {
				return res
			}
		}
		return ok()
	}

	var single readItem
	if err := json.Unmarshal([]byte(rawArgs), &single); err != nil {
		return violation(constraintIO, "invalid read_code_block arguments: %v", err)
	}
	if single.FilePath == nil || *single.FilePath == "" {
		return violation(constraintIO, "Read operation lacks explicit file path (use file_path or requests[].file_path).")
	}
	return validateOneRead(single)
}

func validateOneRead(req readItem) ValidationResult {
	if req.FilePath == nil || *req.FilePath == "" {
		return violation(constraintIO, "Each request must have file_path.")
	}
	// Non-code files may be read whole; code files need an explicit
	// scope so the model can't pull in entire sources.
	if !hasReadScope(req) && !tools.IsNonCode(*req.FilePath) {
		return violation(constraintIO, "Each read of a code file must include symbol_name or start_line/end_line (line scope).")
	}
	if req.StartLine != nil && req.EndLine != nil && !tools.IsNonCode(*req.FilePath) {
		lineCount := *req.EndLine - *req.StartLine + 1
		if lineCount > 500 {
			return violation(constraintIO, "Read operation exceeds 500 line limit (%d lines requested).", lineCount)
		}
	}
	return ok()
}

type writeFile struct {
	Path    *string `json:"path"`
	Content *string `json:"content"`
	Edits   []struct {
		StartLine *int    `json:"start_line"`
		Content   *string `json:"content"`
	} `json:"edits"`
}

// validateWriteConstraints enforces apply_patch's Section 3.3: a
// non-empty files array, each entry naming a path and carrying either a
// full-file content or a set of line-based edits, and each edit naming
// its start_line.
func (v *Validator) validateWriteConstraints(rawArgs string) ValidationResult {
	var args struct {
		Files []writeFile `json:"files"`
	}
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return violation(constraintWrite, "invalid apply_patch arguments: %v", err)
	}
	if len(args.Files) == 0 {
		return violation(constraintWrite, "apply_patch requires non-empty files array (path + content or edits).")
	}
	for _, f := range args.Files {
		if f.Path == nil || *f.Path == "" {
			return violation(constraintWrite, "Each file entry must have path.")
		}
		if f.Content == nil && f.Edits == nil {
			return violation(constraintWrite, "Each file entry must have content (full) or edits (line-based).")
		}
		for _, ed := range f.Edits {
			if ed.StartLine == nil || ed.Content == nil {
				return violation(constraintWrite, "Each edit must have start_line and content (start_line is required).")
			}
		}
	}
	return ok()
}
