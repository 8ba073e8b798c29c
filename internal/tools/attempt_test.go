// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package tools

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Attempt lifecycle, replayed verbatim from the spec: update(intent,
// status) then two step_done updates then get returns the accumulated
// steps_completed, then clear makes get return {}.
func TestAttempt_Lifecycle(t *testing.T) {
	root := t.TempDir()
	tool := NewAttempt(root)

	res := tool.Execute(`{"action":"update","intent":"T","status":"in_progress"}`)
	require.False(t, res.IsError())

	res = tool.Execute(`{"action":"update","step_done":"s1"}`)
	require.False(t, res.IsError())

	res = tool.Execute(`{"action":"update","step_done":"s2"}`)
	require.False(t, res.IsError())

	res = tool.Execute(`{"action":"get"}`)
	require.False(t, res.IsError())
	var rec AttemptRecord
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].Text), &rec))
	assert.Equal(t, []string{"s1", "s2"}, rec.StepsCompleted)
	assert.Equal(t, "in_progress", rec.Status)
	assert.Equal(t, "T", rec.Intent)

	res = tool.Execute(`{"action":"clear"}`)
	require.False(t, res.IsError())

	res = tool.Execute(`{"action":"get"}`)
	require.False(t, res.IsError())
	assert.JSONEq(t, "{}", res.Content[0].Text)
}

func TestAttempt_RejectsUnknownAction(t *testing.T) {
	root := t.TempDir()
	tool := NewAttempt(root)
	res := tool.Execute(`{"action":"bogus"}`)
	assert.True(t, res.IsError())
}

func TestAttempt_UpdatePreservesEarlierFieldsNotInPartial(t *testing.T) {
	root := t.TempDir()
	tool := NewAttempt(root)

	tool.Execute(`{"action":"update","intent":"T","status":"in_progress"}`)
	res := tool.Execute(`{"action":"update","step_done":"s1"}`)
	require.False(t, res.IsError())

	var rec AttemptRecord
	require.NoError(t, json.Unmarshal([]byte(res.Content[0].Text), &rec))
	assert.Equal(t, "T", rec.Intent)
	assert.Equal(t, "in_progress", rec.Status)
}
