package llmapi

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"code-assistant/internal/llm"
	"code-assistant/internal/sessions"
	"code-assistant/internal/shared/telemetry"
)

type fakeLLM struct {
	mu       sync.Mutex
	requests []llm.Request
	targets  []llm.Target
	replies  []func(llm.Request) (llm.Response, error)
}

func (f *fakeLLM) NewClient(target llm.Target) (llm.Client, error) {
	f.mu.Lock()
	f.targets = append(f.targets, target)
	f.mu.Unlock()
	return llm.ClientFunc(func(ctx context.Context, req llm.Request) (llm.Response, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.requests = append(f.requests, req)
		i := len(f.requests) - 1
		if i < len(f.replies) {
			return f.replies[i](req)
		}
		return llm.Response{Content: "analysis text"}, nil
	}), nil
}

func newTestService(t *testing.T, fake *fakeLLM) (*Service, *sessions.MemoryRepo) {
	t.Helper()
	restore := telemetry.SetOutput(&bytes.Buffer{})
	t.Cleanup(restore)
	catalog := llm.DefaultCatalog().WithEnv(func(k string) string {
		if k == "OPENAI_API_KEY" {
			return "env-key"
		}
		return ""
	})
	repo := sessions.NewMemoryRepo()
	return NewService(catalog, fake, repo), repo
}

func TestAnalyzeDefaultsAndMemory(t *testing.T) {
	fake := &fakeLLM{}
	svc, repo := newTestService(t, fake)

	resp, err := svc.Analyze(context.Background(), AnalyzeRequest{Code: "var x = 1", Type: "debug"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if resp.Provider != "openai" || resp.Model != "gpt-4o-mini" || resp.SessionID != "default" || resp.Type != "debug" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.ContextLimit != 128000 || resp.TokensUsed == 0 {
		t.Fatalf("unexpected token accounting %+v", resp)
	}
	if fake.targets[0].APIKey != "env-key" {
		t.Fatalf("expected env key, got %q", fake.targets[0].APIKey)
	}
	req := fake.requests[0]
	if req.MaxTokens != 2000 || req.Temperature == nil || *req.Temperature != 0.7 {
		t.Fatalf("unexpected sampling %+v", req)
	}

	hist, _ := repo.History(context.Background(), "default")
	if len(hist) != 2 || hist[0].Content != "Analyze this debug code: var x = 1" {
		t.Fatalf("unexpected memory %+v", hist)
	}
}

func TestAnalyzeRetriesWithHalfTheCode(t *testing.T) {
	fake := &fakeLLM{replies: []func(llm.Request) (llm.Response, error){
		func(llm.Request) (llm.Response, error) {
			return llm.Response{}, &llm.StatusError{Provider: "openai", Status: 400, Body: "maximum context length exceeded"}
		},
	}}
	svc, _ := newTestService(t, fake)

	code := strings.Repeat("a", 100) + strings.Repeat("b", 100)
	resp, err := svc.Analyze(context.Background(), AnalyzeRequest{Code: code})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !resp.Truncated || len(fake.requests) != 2 {
		t.Fatalf("expected a truncated retry, got %+v with %d calls", resp, len(fake.requests))
	}
	retried := fake.requests[1].Messages[1].Content
	if strings.Contains(retried, strings.Repeat("b", 10)) {
		t.Fatalf("second half of the code should be dropped")
	}
	if !strings.Contains(retried, "[Code truncated due to context length limits]") {
		t.Fatalf("expected truncation marker")
	}
}

func TestAnalyzeClassifiesFailures(t *testing.T) {
	fake := &fakeLLM{replies: []func(llm.Request) (llm.Response, error){
		func(llm.Request) (llm.Response, error) {
			return llm.Response{}, &llm.StatusError{Provider: "openai", Status: 429, Body: "slow down"}
		},
	}}
	svc, _ := newTestService(t, fake)

	_, err := svc.Analyze(context.Background(), AnalyzeRequest{Code: "x"})
	var f *llm.Failure
	if !errors.As(err, &f) || f.Kind != llm.KindRateLimit {
		t.Fatalf("expected rate limit failure, got %v", err)
	}
}

func TestAnalyzeValidation(t *testing.T) {
	svc, _ := newTestService(t, &fakeLLM{})
	if _, err := svc.Analyze(context.Background(), AnalyzeRequest{Code: "  "}); !errors.Is(err, ErrCodeRequired) {
		t.Fatalf("expected ErrCodeRequired, got %v", err)
	}
	_, err := svc.Analyze(context.Background(), AnalyzeRequest{Code: "x", LLMConfig: LLMConfig{Provider: "custom"}})
	if !errors.Is(err, llm.ErrCustomKeyRequired) {
		t.Fatalf("expected custom key error, got %v", err)
	}
}

func TestChatUsesSessionContext(t *testing.T) {
	fake := &fakeLLM{}
	svc, repo := newTestService(t, fake)
	ctx := context.Background()
	if err := repo.Append(ctx, "s1", sessions.Turn("what is this?", "a loop")...); err != nil {
		t.Fatalf("Append: %v", err)
	}

	resp, err := svc.Chat(ctx, ChatRequest{Message: "can it be faster?", SessionID: "s1", LLMConfig: LLMConfig{Provider: "ollama"}})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Provider != "ollama" || resp.Model != "llama3.2:3b" {
		t.Fatalf("unexpected response %+v", resp)
	}
	prompt := fake.requests[0].Messages[1].Content
	want := "Previous conversation context:\nUser: what is this?\nAssistant: a loop\n\nCurrent question: can it be faster?"
	if prompt != want {
		t.Fatalf("unexpected prompt %q", prompt)
	}
	hist, _ := repo.History(ctx, "s1")
	if len(hist) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(hist))
	}
}

func TestAnalyzeMultipleRecordsFileCount(t *testing.T) {
	fake := &fakeLLM{}
	svc, repo := newTestService(t, fake)
	resp, err := svc.AnalyzeMultiple(context.Background(), MultiAnalyzeRequest{
		Files: []llm.SourceFile{{Path: "a.go", Content: "package a"}, {Path: "b.go", Content: "package b"}},
	})
	if err != nil {
		t.Fatalf("AnalyzeMultiple: %v", err)
	}
	if resp.Type != "multiple_files" || resp.FilesAnalyzed != 2 {
		t.Fatalf("unexpected response %+v", resp)
	}
	hist, _ := repo.History(context.Background(), "default")
	if hist[0].Content != "Analyze 2 files from codebase" {
		t.Fatalf("unexpected memory %q", hist[0].Content)
	}
	if _, err := svc.AnalyzeMultiple(context.Background(), MultiAnalyzeRequest{}); !errors.Is(err, ErrFilesRequired) {
		t.Fatalf("expected ErrFilesRequired, got %v", err)
	}
}

func TestTestConnectionUsesLowTemperature(t *testing.T) {
	fake := &fakeLLM{}
	svc, _ := newTestService(t, fake)
	resp, err := svc.TestConnection(context.Background(), TestConnectionRequest{})
	if err != nil {
		t.Fatalf("TestConnection: %v", err)
	}
	if !resp.Success || resp.Message != "Connection test successful" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if got := *fake.requests[0].Temperature; got != 0.1 {
		t.Fatalf("expected temperature 0.1, got %v", got)
	}
}

func TestModelsUnknownProviderUsesDefault(t *testing.T) {
	svc, _ := newTestService(t, &fakeLLM{})
	resp := svc.Models("mystery")
	if resp.Provider != "mystery" || resp.DefaultModel != "gpt-4o-mini" {
		t.Fatalf("unexpected models response %+v", resp)
	}
}
