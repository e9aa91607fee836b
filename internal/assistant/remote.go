package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"code-assistant/internal/llmapi"
	"code-assistant/internal/shared/server/respond"
)

// RemoteBackend calls the /api/llm endpoints of a running server.
type RemoteBackend struct {
	BaseURL    string
	ClientID   string
	HTTPClient *http.Client
}

// NewRemoteBackend targets the server at baseURL, e.g. http://localhost:8080.
func NewRemoteBackend(baseURL string, timeout time.Duration) *RemoteBackend {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &RemoteBackend{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// RemoteError is a non-2xx answer from the server.
type RemoteError struct {
	Status  int
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func (b *RemoteBackend) Analyze(ctx context.Context, in llmapi.AnalyzeRequest) (llmapi.AnalyzeResponse, error) {
	var out llmapi.AnalyzeResponse
	err := b.post(ctx, "/api/llm/analyze", in, &out)
	return out, err
}

func (b *RemoteBackend) Chat(ctx context.Context, in llmapi.ChatRequest) (llmapi.ChatResponse, error) {
	var out llmapi.ChatResponse
	err := b.post(ctx, "/api/llm/chat", in, &out)
	return out, err
}

func (b *RemoteBackend) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.ClientID != "" {
		req.Header.Set("X-Client-Id", b.ClientID)
	}

	client := b.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var problem respond.ErrorResponse
		if json.Unmarshal(body, &problem) == nil && problem.Error.Message != "" {
			return &RemoteError{Status: resp.StatusCode, Code: problem.Error.Code, Message: problem.Error.Message}
		}
		return &RemoteError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
