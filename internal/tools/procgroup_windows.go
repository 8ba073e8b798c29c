// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build windows

package tools

import "os/exec"

// setProcessGroup is a no-op on Windows; exec.CommandContext's own kill
// of the child process is relied on instead of a process-group signal.
func setProcessGroup(cmd *exec.Cmd) {}

// killProcessGroup is a no-op on Windows for the same reason.
func killProcessGroup(cmd *exec.Cmd) {}
