// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/petar-djukic/photon/pkg/types"
)

const (
	defaultOutputCap = 30 * 1024
	defaultTimeout   = 30 * time.Second
)

// RunCommand executes a shell command in the project root, with no
// safety filtering of its own; policy on what commands are allowed is
// the Constitution Validator's job, enforced upstream of execution.
type RunCommand struct {
	Root    string
	Timeout time.Duration
	MaxBytes int
}

// NewRunCommand constructs the run_command tool rooted at root, using
// the 30s/30KB defaults unless overridden on the returned value.
func NewRunCommand(root string) *RunCommand {
	return &RunCommand{Root: root, Timeout: defaultTimeout, MaxBytes: defaultOutputCap}
}

func (t *RunCommand) Name() string { return "run_command" }

func (t *RunCommand) Description() string {
	return "Execute a shell command in the project root and return its captured stdout/stderr, up to a configured byte limit and wall-clock timeout."
}

func (t *RunCommand) ParametersSchema() Schema {
	return Schema{
		"type": "object",
		"properties": Schema{
			"command": Schema{"type": "string"},
		},
		"required": []string{"command"},
	}
}

type runCommandArgs struct {
	Command string `json:"command"`
}

func (t *RunCommand) Execute(rawArgs string) types.ToolResult {
	var args runCommandArgs
	if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
		return types.ErrorText("invalid arguments: " + err.Error())
	}
	if strings.TrimSpace(args.Command) == "" {
		return types.ErrorText("command is required")
	}

	timeout := t.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxBytes := t.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultOutputCap
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shell, flag := "sh", "-c"
	if runtime.GOOS == "windows" {
		shell, flag = "cmd", "/C"
	}
	cmd := exec.CommandContext(ctx, shell, flag, args.Command)
	cmd.Dir = t.Root
	setProcessGroup(cmd)

	if !strings.ContainsAny(args.Command, "<|") {
		cmd.Stdin = nil // redirected from the null device by exec's default
	}

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	if err := cmd.Start(); err != nil {
		return types.ErrorText(fmt.Sprintf("starting command: %v", err))
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var runErr error
	timedOut := false
	select {
	case runErr = <-done:
	case <-time.After(timeout):
		timedOut = true
		killProcessGroup(cmd)
		cancel()
		<-done
	}

	out := buf.Bytes()
	if len(out) > maxBytes {
		out = out[:maxBytes]
	}
	text := sanitizeUTF8(out)

	if timedOut {
		return types.Text(fmt.Sprintf("command timed out after %s\n%s", timeout, text))
	}
	if runErr != nil {
		return types.Text(fmt.Sprintf("command exited with error: %v\n%s", runErr, text))
	}
	return types.Text(text)
}

// sanitizeUTF8 replaces invalid UTF-8 byte sequences with "?" so the
// captured output is always safe to embed in a JSON tool-result string.
func sanitizeUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			sb.WriteByte('?')
			b = b[1:]
			continue
		}
		sb.WriteRune(r)
		b = b[size:]
	}
	return sb.String()
}
