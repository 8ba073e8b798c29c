// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package lsp

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame_WriteThenReadRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte(`{"jsonrpc":"2.0","id":1,"method":"initialize"}`)
	require.NoError(t, writeFrame(&buf, payload))

	got, err := readFrame(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFrame_MultipleMessagesInSequence(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, []byte(`{"a":1}`)))
	require.NoError(t, writeFrame(&buf, []byte(`{"b":2}`)))

	r := bufio.NewReader(&buf)
	first, err := readFrame(r)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(first))

	second, err := readFrame(r)
	require.NoError(t, err)
	assert.Equal(t, `{"b":2}`, string(second))
}

func TestFrame_MissingContentLengthErrors(t *testing.T) {
	r := bufio.NewReader(bytes.NewBufferString("\r\n{}"))
	_, err := readFrame(r)
	assert.Error(t, err)
}

func TestFrame_CaseInsensitiveHeader(t *testing.T) {
	msg := []byte(`{"ok":true}`)
	r := bufio.NewReader(bytes.NewBufferString("CONTENT-LENGTH: 11\r\n\r\n" + string(msg)))
	got, err := readFrame(r)
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}
