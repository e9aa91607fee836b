package llmapi

import "code-assistant/internal/llm"

// LLMConfig is the provider selection and sampling block shared by every
// request body.
type LLMConfig struct {
	Provider         string   `json:"provider"`
	Model            string   `json:"model"`
	APIKey           string   `json:"api_key"`
	BaseURL          string   `json:"base_url"`
	Temperature      *float64 `json:"temperature"`
	MaxTokens        *int     `json:"max_tokens"`
	TopP             *float64 `json:"top_p"`
	FrequencyPenalty *float64 `json:"frequency_penalty"`
	PresencePenalty  *float64 `json:"presence_penalty"`
}

func (c LLMConfig) target() llm.Target {
	return llm.Target{Provider: c.Provider, Model: c.Model, APIKey: c.APIKey, BaseURL: c.BaseURL}
}

type AnalyzeRequest struct {
	LLMConfig
	Code      string `json:"code"`
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

type AnalyzeResponse struct {
	Analysis     string `json:"analysis"`
	Type         string `json:"type"`
	SessionID    string `json:"session_id"`
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	TokensUsed   int    `json:"tokens_used"`
	ContextLimit int    `json:"context_limit"`
	Truncated    bool   `json:"truncated,omitempty"`
}

type MultiAnalyzeRequest struct {
	LLMConfig
	Files     []llm.SourceFile `json:"files"`
	Type      string           `json:"type"`
	SessionID string           `json:"session_id"`
}

type MultiAnalyzeResponse struct {
	Analysis      string `json:"analysis"`
	Type          string `json:"type"`
	FilesAnalyzed int    `json:"files_analyzed"`
	SessionID     string `json:"session_id"`
	Provider      string `json:"provider"`
	Model         string `json:"model"`
}

type ChatRequest struct {
	LLMConfig
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
	Provider  string `json:"provider"`
	Model     string `json:"model"`
}

type TestConnectionRequest struct {
	LLMConfig
}

type TestConnectionResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Response string `json:"response,omitempty"`
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	Error    string `json:"error,omitempty"`
}

type ProvidersResponse struct {
	Providers       map[string]llm.Provider `json:"providers"`
	Order           []string                `json:"order"`
	DefaultProvider string                  `json:"default_provider"`
}

type ModelsResponse struct {
	Provider     string   `json:"provider"`
	Models       []string `json:"models"`
	DefaultModel string   `json:"default_model"`
}
