// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package llm talks to an OpenAI-compatible chat-completions endpoint for
// LLM access, via github.com/sashabaranov/go-openai.
package llm

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/petar-djukic/photon/pkg/types"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// TemplateData holds the values injected into the system prompt template.
type TemplateData struct {
	OS        string
	GoVersion string
	WorkDir   string
	Now       string
}

// RenderSystemPrompt renders the system prompt template with the given data.
func RenderSystemPrompt(data TemplateData) (string, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/system.tmpl")
	if err != nil {
		return "", fmt.Errorf("parsing system template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing system template: %w", err)
	}

	return buf.String(), nil
}

// ConstructMessages builds the initial conversation: a system message, a
// user message carrying the repository map, a user message carrying file
// contents, and the user's task as the final message.
func ConstructMessages(systemPrompt, repoMap string, files []types.FileContent, userPrompt string) []types.Message {
	messages := []types.Message{{Role: types.RoleSystem, Content: systemPrompt}}

	if repoMap != "" {
		messages = append(messages, userMessage("## Repository Map\n\n"+repoMap))
	}

	if len(files) > 0 {
		var buf strings.Builder
		buf.WriteString("## File Contents\n\n")
		for _, f := range files {
			buf.WriteString(formatFileContent(f))
			buf.WriteString("\n")
		}
		messages = append(messages, userMessage(buf.String()))
	}

	messages = append(messages, userMessage(userPrompt))
	return messages
}

// ConstructRetryMessages appends the assistant's previous response and a
// follow-up user message carrying compiler/test error output, so the
// conversation continues with the errors as feedback.
func ConstructRetryMessages(prevMessages []types.Message, assistantResponse, errorOutput string) []types.Message {
	messages := append(append([]types.Message(nil), prevMessages...), assistantMessage(assistantResponse))
	feedback := "## Errors\n\nThe previous edits produced the following errors. Please fix them:\n\n" + errorOutput
	return append(messages, userMessage(feedback))
}

// formatFileContent formats a file's content with a path header and
// numbered lines.
func formatFileContent(f types.FileContent) string {
	var buf strings.Builder
	buf.WriteString(fmt.Sprintf("### %s\n\n", f.Path))

	lines := strings.Split(f.Content, "\n")
	for i, line := range lines {
		buf.WriteString(fmt.Sprintf("%4d │ %s\n", i+1, line))
	}

	return buf.String()
}

func userMessage(text string) types.Message {
	return types.Message{Role: types.RoleUser, Content: text}
}

func assistantMessage(text string) types.Message {
	return types.Message{Role: types.RoleAssistant, Content: text}
}
