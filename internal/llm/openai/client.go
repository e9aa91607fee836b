// Package openai talks to any OpenAI-compatible chat completions endpoint:
// OpenAI itself, Azure OpenAI deployments, Anthropic's compatibility API,
// Ollama and self-hosted gateways.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"code-assistant/internal/llm"
	"code-assistant/internal/shared/telemetry"
)

const (
	// DefaultTimeout bounds a single completion.
	DefaultTimeout = 120 * time.Second

	azureAPIVersion = "2024-02-15-preview"
	maxErrorBody    = 2048
)

// Client implements llm.Client for one resolved target.
type Client struct {
	target     llm.Target
	endpoint   string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// NewClient builds a client for target. The target must already be
// resolved through llm.Catalog.Resolve.
func NewClient(target llm.Target, opts ...Option) (*Client, error) {
	if strings.TrimSpace(target.Model) == "" {
		return nil, fmt.Errorf("model is required for provider %s", target.Provider)
	}
	if strings.TrimSpace(target.BaseURL) == "" {
		return nil, fmt.Errorf("base URL is required for provider %s", target.Provider)
	}
	endpoint, err := chatEndpoint(target)
	if err != nil {
		return nil, err
	}
	c := &Client{
		target:     target,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Factory builds Clients sharing one timeout.
type Factory struct {
	Timeout time.Duration
}

// NewClient implements llm.Factory.
func (f Factory) NewClient(target llm.Target) (llm.Client, error) {
	return NewClient(target, WithTimeout(f.Timeout))
}

func chatEndpoint(t llm.Target) (string, error) {
	base := strings.TrimRight(t.BaseURL, "/")
	if _, err := url.Parse(base); err != nil {
		return "", fmt.Errorf("invalid base URL for provider %s: %w", t.Provider, err)
	}
	if t.Provider == llm.ProviderAzure {
		return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
			base, url.PathEscape(t.Model), azureAPIVersion), nil
	}
	return base + "/chat/completions", nil
}

type chatRequest struct {
	Model               string        `json:"model"`
	Messages            []llm.Message `json:"messages"`
	Temperature         *float64      `json:"temperature,omitempty"`
	MaxTokens           int           `json:"max_tokens,omitempty"`
	MaxCompletionTokens int           `json:"max_completion_tokens,omitempty"`
	TopP                *float64      `json:"top_p,omitempty"`
	FrequencyPenalty    *float64      `json:"frequency_penalty,omitempty"`
	PresencePenalty     *float64      `json:"presence_penalty,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message llm.Message `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends one chat completion request.
func (c *Client) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	body := c.buildRequest(req)
	resp, err := c.do(ctx, body)
	if err != nil && body.Temperature != nil && rejectsTemperature(err) {
		telemetry.Warn("llm.retry_without_temperature", map[string]any{
			"provider": c.target.Provider,
			"model":    c.target.Model,
		})
		body.Temperature = nil
		resp, err = c.do(ctx, body)
	}
	return resp, err
}

func (c *Client) buildRequest(req llm.Request) chatRequest {
	body := chatRequest{
		Model:            c.target.Model,
		Messages:         req.Messages,
		Temperature:      req.Temperature,
		TopP:             req.TopP,
		FrequencyPenalty: req.FrequencyPenalty,
		PresencePenalty:  req.PresencePenalty,
	}
	if isReasoningModel(c.target.Model) {
		// Reasoning models accept only the default sampling settings.
		body.Temperature = nil
		body.TopP = nil
		body.MaxCompletionTokens = req.MaxTokens
	} else {
		body.MaxTokens = req.MaxTokens
	}
	return body
}

func (c *Client) do(ctx context.Context, body chatRequest) (llm.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return llm.Response{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return llm.Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.target.Provider == llm.ProviderAzure {
		httpReq.Header.Set("api-key", c.target.APIKey)
	} else if c.target.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.target.APIKey)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return llm.Response{}, fmt.Errorf("%s request timeout: %w", c.target.Provider, err)
		}
		return llm.Response{}, fmt.Errorf("%s request: %w", c.target.Provider, err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return llm.Response{}, fmt.Errorf("%s read response: %w", c.target.Provider, err)
	}
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return llm.Response{}, &llm.StatusError{
			Provider: c.target.Provider,
			Status:   httpResp.StatusCode,
			Body:     errorText(raw),
		}
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return llm.Response{}, fmt.Errorf("%s response parse: %w", c.target.Provider, err)
	}
	if parsed.Error != nil {
		return llm.Response{}, fmt.Errorf("%s error: %s (%s)", c.target.Provider, parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Choices) == 0 {
		return llm.Response{}, fmt.Errorf("%s response missing choices", c.target.Provider)
	}

	out := llm.Response{
		Content: strings.TrimSpace(parsed.Choices[0].Message.Content),
		Model:   parsed.Model,
	}
	if out.Model == "" {
		out.Model = c.target.Model
	}
	if parsed.Usage != nil {
		out.Usage = &llm.Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		}
	}
	logUsage(c.target, out.Usage)
	return out, nil
}

// errorText prefers the provider's error message over the raw body.
func errorText(raw []byte) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Error) > 0 {
		var obj struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(envelope.Error, &obj) == nil && obj.Message != "" {
			return obj.Message
		}
		var s string
		if json.Unmarshal(envelope.Error, &s) == nil && s != "" {
			return s
		}
	}
	text := strings.TrimSpace(string(raw))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	return text
}

func rejectsTemperature(err error) bool {
	var se *llm.StatusError
	if !errors.As(err, &se) || se.Status != http.StatusBadRequest {
		return false
	}
	msg := strings.ToLower(se.Body)
	return strings.Contains(msg, "temperature") &&
		(strings.Contains(msg, "unsupported") || strings.Contains(msg, "not support"))
}

func isReasoningModel(model string) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	return strings.HasPrefix(m, "o1") || strings.HasPrefix(m, "o3")
}

func logUsage(t llm.Target, usage *llm.Usage) {
	fields := map[string]any{
		"provider": t.Provider,
		"model":    t.Model,
	}
	if usage != nil {
		fields["prompt_tokens"] = usage.PromptTokens
		fields["completion_tokens"] = usage.CompletionTokens
		fields["total_tokens"] = usage.TotalTokens
	}
	telemetry.Info("llm.response", fields)
}

var _ llm.Client = (*Client)(nil)
