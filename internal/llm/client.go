// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/petar-djukic/photon/internal/tools"
	"github.com/petar-djukic/photon/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	connectTimeout   = 10 * time.Second
	maxRetryAttempts = 3
	baseRetryDelay   = 1 * time.Second
)

// ErrLLMFailure indicates the LLM call failed (network, auth, rate limit).
var ErrLLMFailure = errors.New("LLM failure")

// Quirks captures provider-specific compatibility adjustments applied at
// request-encoding time. The zero value behaves like a standard
// OpenAI-compatible endpoint; set a field to accommodate a provider that
// deviates from it.
type Quirks struct {
	// UseContentBlocks encodes message content as a single-element
	// content-part array instead of a bare string, for providers that
	// reject plain string content.
	UseContentBlocks bool
	// DropToolResultName omits Name on role:"tool" messages, for
	// providers that reject it there.
	DropToolResultName bool
}

// ClientConfig configures the chat-completions LLM client.
type ClientConfig struct {
	Model     string // Model identifier (required)
	APIKey    string // API key (required unless BaseURL points at a keyless gateway)
	BaseURL   string // Override for an OpenAI-compatible endpoint (optional)
	Timeout   time.Duration
	MaxTokens int
	Quirks    Quirks
}

// ChatStream abstracts the subset of *openai.ChatCompletionStream the
// client consumes, so tests can substitute a fake stream.
type ChatStream interface {
	Recv() (openai.ChatCompletionStreamResponse, error)
	Close() error
}

// API abstracts the chat-completions streaming call for testing.
type API interface {
	CreateChatCompletionStream(ctx context.Context, req openai.ChatCompletionRequest) (ChatStream, error)
}

// realAPI adapts an *openai.Client to API; *openai.ChatCompletionStream
// already satisfies ChatStream structurally.
type realAPI struct{ client *openai.Client }

func (r *realAPI) CreateChatCompletionStream(ctx context.Context, req openai.ChatCompletionRequest) (ChatStream, error) {
	return r.client.CreateChatCompletionStream(ctx, req)
}

// Client wraps an OpenAI-compatible chat-completions endpoint for LLM access.
type Client struct {
	api       API
	model     string
	timeout   time.Duration
	maxTokens int
	quirks    Quirks
	usage     types.TokenUsage // Cumulative usage across calls
}

// NewClient creates a new chat-completions client from the given
// configuration.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model is required", ErrLLMFailure)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrLLMFailure)
	}

	oaiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oaiCfg.BaseURL = cfg.BaseURL
	}
	// Connection establishment gets its own short budget; the overall
	// read budget is the per-call context timeout in sendWithRetry.
	oaiCfg.HTTPClient = &http.Client{
		Transport: &http.Transport{
			DialContext:         (&net.Dialer{Timeout: connectTimeout}).DialContext,
			TLSHandshakeTimeout: connectTimeout,
		},
	}

	return newClientWithAPI(&realAPI{client: openai.NewClientWithConfig(oaiCfg)}, cfg), nil
}

// NewClientWithAPI creates a client with a pre-configured API
// implementation. Used for testing with mock clients.
func NewClientWithAPI(api API, cfg ClientConfig) *Client {
	return newClientWithAPI(api, cfg)
}

func newClientWithAPI(api API, cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}
	return &Client{
		api:       api,
		model:     cfg.Model,
		timeout:   timeout,
		maxTokens: maxTokens,
		quirks:    cfg.Quirks,
	}
}

// SendPrompt sends messages (plus the available tool schemas, if any) to
// the provider via a streaming chat-completion call and returns a
// channel that yields response tokens as they arrive. The
// StreamResponse, including any tool calls the model requested, is
// delivered through the result channel after streaming completes.
func (c *Client) SendPrompt(ctx context.Context, messages []types.Message, toolSpecs []tools.FunctionSpec) (<-chan string, <-chan *types.StreamResponse) {
	tokenCh := make(chan string, 64)
	resultCh := make(chan *types.StreamResponse, 1)

	go func() {
		defer close(resultCh)

		response, err := c.sendWithRetry(ctx, messages, toolSpecs, tokenCh)
		if err != nil {
			close(tokenCh)
			resultCh <- &types.StreamResponse{}
			return
		}

		c.usage.InputTokens += response.Usage.InputTokens
		c.usage.OutputTokens += response.Usage.OutputTokens

		resultCh <- response
	}()

	return tokenCh, resultCh
}

// CumulativeUsage returns the total token usage across all calls.
func (c *Client) CumulativeUsage() types.TokenUsage {
	return c.usage
}

// sendWithRetry calls the streaming endpoint with exponential backoff
// retry for rate-limit errors.
func (c *Client) sendWithRetry(ctx context.Context, messages []types.Message, toolSpecs []tools.FunctionSpec, tokenCh chan<- string) (*types.StreamResponse, error) {
	var lastErr error
	req := buildRequest(c.model, c.maxTokens, messages, toolSpecs, c.quirks)

	for attempt := 0; attempt <= maxRetryAttempts; attempt++ {
		if attempt > 0 {
			delay := baseRetryDelay * time.Duration(math.Pow(2, float64(attempt-1)))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: context cancelled during retry: %v", ErrLLMFailure, ctx.Err())
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)

		stream, err := c.api.CreateChatCompletionStream(callCtx, req)
		if err != nil {
			cancel()

			var apiErr *openai.APIError
			if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == 429 {
				lastErr = err
				continue
			}
			return nil, c.classifyError(err)
		}

		response := consumeStream(callCtx, stream, tokenCh)
		response.Retries = attempt
		cancel()
		return response, nil
	}

	return nil, fmt.Errorf("%w: rate limited after %d retries: %v", ErrLLMFailure, maxRetryAttempts, lastErr)
}

// classifyError wraps provider errors into ErrLLMFailure with descriptive
// messages.
func (c *Client) classifyError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 401, 403:
			return fmt.Errorf("%w: credential or permission issue: %v", ErrLLMFailure, err)
		case 404:
			return fmt.Errorf("%w: model not found: %s", ErrLLMFailure, c.model)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: request timed out after %s", ErrLLMFailure, c.timeout)
	}

	return fmt.Errorf("%w: %v", ErrLLMFailure, err)
}

// buildRequest converts messages and tool schemas into an OpenAI-style
// chat-completion request, applying quirks.
func buildRequest(model string, maxTokens int, messages []types.Message, toolSpecs []tools.FunctionSpec, quirks Quirks) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:        model,
		MaxTokens:    maxTokens,
		Messages:     convertMessages(messages, quirks),
		Stream:       true,
		StreamOptions: &openai.StreamOptions{IncludeUsage: true},
	}
	if len(toolSpecs) > 0 {
		req.Tools = convertTools(toolSpecs)
	}
	return req
}

func convertMessages(in []types.Message, quirks Quirks) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(in))
	for _, m := range in {
		msg := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			ToolCallID: m.ToolCallID,
		}
		if !(m.Role == types.RoleTool && quirks.DropToolResultName) {
			msg.Name = m.Name
		}
		if quirks.UseContentBlocks && m.Content != "" {
			msg.MultiContent = []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: m.Content}}
		} else {
			msg.Content = m.Content
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, msg)
	}
	return out
}

func convertTools(specs []tools.FunctionSpec) []openai.Tool {
	out := make([]openai.Tool, 0, len(specs))
	for _, s := range specs {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        s.Function.Name,
				Description: s.Function.Description,
				Parameters:  map[string]any(s.Function.Parameters),
			},
		})
	}
	return out
}
