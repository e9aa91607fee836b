package llmapi

import (
	"context"
	"fmt"
	"strings"

	"code-assistant/internal/llm"
	"code-assistant/internal/sessions"
	"code-assistant/internal/shared/telemetry"
)

const (
	defaultTemperature = 0.7
	testTemperature    = 0.1

	chatSystem           = "You are an expert programming assistant. Use the conversation context to give relevant, specific and actionable answers."
	connectionTestSystem = "You are a helpful assistant."
	multiFilesType       = "multiple_files"
)

// Service runs analyses and conversations against the configured providers
// and records conversation memory per session.
type Service struct {
	Catalog  *llm.Catalog
	Factory  llm.Factory
	Sessions sessions.Repo
}

// NewService constructs a Service.
func NewService(catalog *llm.Catalog, factory llm.Factory, repo sessions.Repo) *Service {
	return &Service{Catalog: catalog, Factory: factory, Sessions: repo}
}

func (s *Service) client(cfg LLMConfig) (llm.Client, llm.Target, error) {
	target, err := s.Catalog.Resolve(cfg.target())
	if err != nil {
		return nil, llm.Target{}, err
	}
	client, err := s.Factory.NewClient(target)
	if err != nil {
		return nil, llm.Target{}, err
	}
	return client, target, nil
}

func sampling(cfg LLMConfig, messages []llm.Message, maxTokens int) llm.Request {
	req := llm.Request{
		Messages:         messages,
		Temperature:      cfg.Temperature,
		MaxTokens:        maxTokens,
		TopP:             cfg.TopP,
		FrequencyPenalty: cfg.FrequencyPenalty,
		PresencePenalty:  cfg.PresencePenalty,
	}
	if req.Temperature == nil {
		req.Temperature = llm.Float(defaultTemperature)
	}
	if cfg.MaxTokens != nil && *cfg.MaxTokens > 0 {
		req.MaxTokens = *cfg.MaxTokens
	}
	return req
}

// Analyze runs one analysis. Code that would overflow the model's context
// is truncated up front; a context-length rejection is retried once with
// half of the code.
func (s *Service) Analyze(ctx context.Context, in AnalyzeRequest) (AnalyzeResponse, error) {
	if strings.TrimSpace(in.Code) == "" {
		return AnalyzeResponse{}, ErrCodeRequired
	}
	sessionID, err := sessions.NormalizeID(in.SessionID)
	if err != nil {
		return AnalyzeResponse{}, err
	}
	analysisType := llm.NormalizeAnalysisType(in.Type)
	client, target, err := s.client(in.LLMConfig)
	if err != nil {
		return AnalyzeResponse{}, err
	}

	render := func(code string) []llm.Message { return llm.AnalysisMessages(analysisType, code) }
	code, estimated, truncated := llm.FitCode(in.Code, target.Model, render)
	maxTokens := llm.DefaultMaxTokens(len(in.Code))

	resp, err := client.Complete(ctx, sampling(in.LLMConfig, render(code), maxTokens))
	if err != nil && llm.IsContextLengthError(err) {
		telemetry.Warn("llm.analyze.context_length_retry", map[string]any{
			"provider": target.Provider,
			"model":    target.Model,
		})
		truncated = true
		resp, err = client.Complete(ctx, sampling(in.LLMConfig, render(llm.HalveCode(in.Code)), maxTokens))
	}
	if err != nil {
		return AnalyzeResponse{}, llm.Classify(err)
	}

	s.remember(ctx, sessionID, sessions.AnalysisTurn(analysisType, in.Code, resp.Content))
	return AnalyzeResponse{
		Analysis:     resp.Content,
		Type:         analysisType,
		SessionID:    sessionID,
		Provider:     target.Provider,
		Model:        target.Model,
		TokensUsed:   estimated,
		ContextLimit: llm.ContextLimit(target.Model),
		Truncated:    truncated,
	}, nil
}

// AnalyzeMultiple reviews up to llm.MaxMultiFiles files in one prompt.
func (s *Service) AnalyzeMultiple(ctx context.Context, in MultiAnalyzeRequest) (MultiAnalyzeResponse, error) {
	if len(in.Files) == 0 {
		return MultiAnalyzeResponse{}, ErrFilesRequired
	}
	sessionID, err := sessions.NormalizeID(in.SessionID)
	if err != nil {
		return MultiAnalyzeResponse{}, err
	}
	client, target, err := s.client(in.LLMConfig)
	if err != nil {
		return MultiAnalyzeResponse{}, err
	}

	resp, err := client.Complete(ctx, sampling(in.LLMConfig, llm.MultiFileMessages(in.Files), 0))
	if err != nil {
		return MultiAnalyzeResponse{}, llm.Classify(err)
	}

	s.remember(ctx, sessionID, sessions.Turn(fmt.Sprintf("Analyze %d files from codebase", len(in.Files)), resp.Content))
	return MultiAnalyzeResponse{
		Analysis:      resp.Content,
		Type:          multiFilesType,
		FilesAnalyzed: len(in.Files),
		SessionID:     sessionID,
		Provider:      target.Provider,
		Model:         target.Model,
	}, nil
}

// Chat answers a follow-up question using the session's recent history.
func (s *Service) Chat(ctx context.Context, in ChatRequest) (ChatResponse, error) {
	if strings.TrimSpace(in.Message) == "" {
		return ChatResponse{}, ErrMessageRequired
	}
	sessionID, err := sessions.NormalizeID(in.SessionID)
	if err != nil {
		return ChatResponse{}, err
	}
	client, target, err := s.client(in.LLMConfig)
	if err != nil {
		return ChatResponse{}, err
	}

	var history []sessions.Message
	if s.Sessions != nil {
		if history, err = s.Sessions.History(ctx, sessionID); err != nil {
			return ChatResponse{}, fmt.Errorf("load history: %w", err)
		}
	}
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: chatSystem},
		{Role: llm.RoleUser, Content: sessions.ChatPrompt(history, in.Message)},
	}
	resp, err := client.Complete(ctx, sampling(in.LLMConfig, messages, 0))
	if err != nil {
		return ChatResponse{}, llm.Classify(err)
	}

	s.remember(ctx, sessionID, sessions.Turn(in.Message, resp.Content))
	return ChatResponse{
		Response:  resp.Content,
		SessionID: sessionID,
		Provider:  target.Provider,
		Model:     target.Model,
	}, nil
}

// TestConnection sends a fixed prompt to verify credentials and reachability.
func (s *Service) TestConnection(ctx context.Context, in TestConnectionRequest) (TestConnectionResponse, error) {
	cfg := in.LLMConfig
	cfg.Temperature = llm.Float(testTemperature)
	client, target, err := s.client(cfg)
	if err != nil {
		return TestConnectionResponse{}, err
	}
	resp, err := client.Complete(ctx, sampling(cfg, []llm.Message{
		{Role: llm.RoleSystem, Content: connectionTestSystem},
		{Role: llm.RoleUser, Content: llm.ConnectionTestPrompt},
	}, 0))
	if err != nil {
		return TestConnectionResponse{}, err
	}
	return TestConnectionResponse{
		Success:  true,
		Message:  "Connection test successful",
		Response: resp.Content,
		Provider: target.Provider,
		Model:    target.Model,
	}, nil
}

// Providers lists the catalog.
func (s *Service) Providers() ProvidersResponse {
	return ProvidersResponse{
		Providers:       s.Catalog.All(),
		Order:           s.Catalog.IDs(),
		DefaultProvider: llm.DefaultProvider,
	}
}

// Models lists models for provider; unknown providers get the default
// provider's models under the requested name.
func (s *Service) Models(provider string) ModelsResponse {
	if strings.TrimSpace(provider) == "" {
		provider = llm.DefaultProvider
	}
	p, _ := s.Catalog.Lookup(provider)
	return ModelsResponse{Provider: provider, Models: p.Models, DefaultModel: p.DefaultModel}
}

func (s *Service) remember(ctx context.Context, sessionID string, msgs []sessions.Message) {
	if s.Sessions == nil {
		return
	}
	if err := s.Sessions.Append(ctx, sessionID, msgs...); err != nil {
		telemetry.Warn("sessions.append_failed", map[string]any{
			"session_id": sessionID,
			"error":      err.Error(),
		})
	}
}
