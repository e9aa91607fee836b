package assistant

import (
	"context"
	"strings"

	"code-assistant/internal/llm"
	"code-assistant/internal/llmapi"
)

// Settings is the provider selection a caller analyzes with.
type Settings struct {
	Provider    string   `json:"provider"`
	Model       string   `json:"model"`
	APIKey      string   `json:"api_key"`
	BaseURL     string   `json:"base_url"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
}

// SettingsSource yields the settings for one call.
type SettingsSource interface {
	Settings(ctx context.Context) Settings
}

type settingsKey struct{}

// WithSettings attaches per-request settings that take precedence over the
// service's defaults.
func WithSettings(ctx context.Context, s Settings) context.Context {
	return context.WithValue(ctx, settingsKey{}, s)
}

// SettingsFromContext returns settings attached by WithSettings.
func SettingsFromContext(ctx context.Context) (Settings, bool) {
	s, ok := ctx.Value(settingsKey{}).(Settings)
	return s, ok
}

// StaticSettings serves fixed process defaults unless the context carries an
// override.
type StaticSettings Settings

func (d StaticSettings) Settings(ctx context.Context) Settings {
	if s, ok := SettingsFromContext(ctx); ok {
		return s
	}
	return Settings(d)
}

// normalize lowercases the provider and fills the default model and, for
// local providers, the default base URL. The API key is left as given.
func (s Settings) normalize(catalog *llm.Catalog) Settings {
	s.Provider = strings.ToLower(strings.TrimSpace(s.Provider))
	if s.Provider == "" {
		s.Provider = llm.DefaultProvider
	}
	s.APIKey = strings.TrimSpace(s.APIKey)
	s.BaseURL = strings.TrimSpace(s.BaseURL)
	p, _ := catalog.Lookup(s.Provider)
	if strings.TrimSpace(s.Model) == "" {
		s.Model = p.DefaultModel
	}
	if s.BaseURL == "" && p.Local {
		s.BaseURL = p.BaseURL
	}
	return s
}

func (s Settings) target() llm.Target {
	return llm.Target{Provider: s.Provider, Model: s.Model, APIKey: s.APIKey, BaseURL: s.BaseURL}
}

func (s Settings) llmConfig() llmapi.LLMConfig {
	return llmapi.LLMConfig{
		Provider:    s.Provider,
		Model:       s.Model,
		APIKey:      s.APIKey,
		BaseURL:     s.BaseURL,
		Temperature: s.Temperature,
		MaxTokens:   s.MaxTokens,
	}
}
