package llm

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderAzure     = "azure"
	ProviderOllama    = "ollama"
	ProviderCustom    = "custom"

	// DefaultProvider answers requests that name no provider.
	DefaultProvider = ProviderOpenAI

	ollamaPlaceholderKey = "ollama-local"
	azureEndpointEnv     = "AZURE_OPENAI_ENDPOINT"
)

var (
	ErrCustomKeyRequired = errors.New("API key required for custom providers. Please configure your API key in Settings.")
	ErrAzureEndpoint     = errors.New("Azure OpenAI endpoint not found. Please set AZURE_OPENAI_ENDPOINT environment variable")
)

// MissingKeyError reports that neither the request nor the environment
// carried an API key.
type MissingKeyError struct {
	EnvVar string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("API key not found. Please set %s environment variable or provide api_key parameter", e.EnvVar)
}

// Provider describes one selectable backend.
type Provider struct {
	Name         string   `json:"name" yaml:"name"`
	Models       []string `json:"models" yaml:"models"`
	DefaultModel string   `json:"default_model" yaml:"default_model"`
	APIKeyEnv    string   `json:"api_key_env,omitempty" yaml:"api_key_env"`
	BaseURL      string   `json:"base_url,omitempty" yaml:"base_url"`
	AllowCustom  bool     `json:"allow_custom" yaml:"allow_custom"`
	// Local providers run on the user's machine and need no API key.
	Local bool `json:"local" yaml:"local"`
}

// Target is a fully or partially specified provider selection.
type Target struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
}

// Catalog is the set of known providers. The zero value is not usable; use
// DefaultCatalog or LoadCatalog.
type Catalog struct {
	providers map[string]Provider
	order     []string
	getenv    func(string) string
}

// DefaultCatalog returns the built-in providers.
func DefaultCatalog() *Catalog {
	c := &Catalog{providers: map[string]Provider{}, getenv: os.Getenv}
	c.put(ProviderOpenAI, Provider{
		Name:         "OpenAI",
		Models:       []string{"gpt-4o", "gpt-4o-mini", "gpt-4-turbo", "gpt-4", "gpt-3.5-turbo", "o1-preview", "o1-mini"},
		DefaultModel: "gpt-4o-mini",
		APIKeyEnv:    "OPENAI_API_KEY",
		BaseURL:      "https://api.openai.com/v1",
		AllowCustom:  true,
	})
	c.put(ProviderAnthropic, Provider{
		Name: "Anthropic",
		Models: []string{
			"claude-3-5-sonnet-20241022", "claude-3-5-haiku-20241022", "claude-3-opus-20240229",
			"claude-3-sonnet-20240229", "claude-3-haiku-20240307",
		},
		DefaultModel: "claude-3-5-sonnet-20241022",
		APIKeyEnv:    "ANTHROPIC_API_KEY",
		BaseURL:      "https://api.anthropic.com/v1",
		AllowCustom:  true,
	})
	c.put(ProviderAzure, Provider{
		Name:         "Azure OpenAI",
		Models:       []string{"gpt-4o", "gpt-4-turbo", "gpt-4", "gpt-35-turbo"},
		DefaultModel: "gpt-4o",
		APIKeyEnv:    "AZURE_OPENAI_API_KEY",
		AllowCustom:  true,
	})
	c.put(ProviderOllama, Provider{
		Name: "Ollama (Local)",
		Models: []string{
			"llama3.2:3b", "llama3.2:1b", "llama3.1:8b", "llama3.1:70b", "codellama:7b",
			"codellama:13b", "mistral:7b", "phi3:mini", "qwen2.5:7b", "deepseek-coder:6.7b",
		},
		DefaultModel: "llama3.2:3b",
		BaseURL:      "http://localhost:11434/v1",
		AllowCustom:  true,
		Local:        true,
	})
	c.put(ProviderCustom, Provider{
		Name: "Custom Provider",
		Models: []string{
			"gpt-3.5-turbo", "gpt-4", "llama-2-7b-chat", "llama-2-13b-chat",
			"codellama-7b-instruct", "mistral-7b-instruct",
		},
		DefaultModel: "gpt-3.5-turbo",
		APIKeyEnv:    "CUSTOM_API_KEY",
		AllowCustom:  true,
	})
	return c
}

// LoadCatalog starts from DefaultCatalog and overlays providers from a YAML
// file keyed by provider id. Empty fields in the file keep the built-in
// value. An empty path returns the defaults.
func LoadCatalog(path string) (*Catalog, error) {
	c := DefaultCatalog()
	if strings.TrimSpace(path) == "" {
		return c, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}
	var file struct {
		Providers map[string]Provider `yaml:"providers"`
	}
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse providers file: %w", err)
	}
	for id, override := range file.Providers {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" {
			continue
		}
		base := c.providers[id]
		if override.Name != "" {
			base.Name = override.Name
		}
		if len(override.Models) > 0 {
			base.Models = override.Models
		}
		if override.DefaultModel != "" {
			base.DefaultModel = override.DefaultModel
		}
		if override.APIKeyEnv != "" {
			base.APIKeyEnv = override.APIKeyEnv
		}
		if override.BaseURL != "" {
			base.BaseURL = override.BaseURL
		}
		base.AllowCustom = base.AllowCustom || override.AllowCustom
		base.Local = base.Local || override.Local
		if base.DefaultModel == "" && len(base.Models) > 0 {
			base.DefaultModel = base.Models[0]
		}
		c.put(id, base)
	}
	return c, nil
}

// WithEnv returns a copy of c that reads environment variables through
// getenv, for tests.
func (c *Catalog) WithEnv(getenv func(string) string) *Catalog {
	cp := *c
	cp.getenv = getenv
	return &cp
}

func (c *Catalog) put(id string, p Provider) {
	if _, ok := c.providers[id]; !ok {
		c.order = append(c.order, id)
	}
	c.providers[id] = p
}

// IDs lists provider ids in registration order.
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.order...)
}

// All returns every provider keyed by id.
func (c *Catalog) All() map[string]Provider {
	out := make(map[string]Provider, len(c.providers))
	for id, p := range c.providers {
		out[id] = p
	}
	return out
}

// Lookup returns the provider for id. Unknown ids get the default
// provider's configuration and ok=false.
func (c *Catalog) Lookup(id string) (Provider, bool) {
	if p, ok := c.providers[strings.ToLower(strings.TrimSpace(id))]; ok {
		return p, true
	}
	return c.providers[DefaultProvider], false
}

// IsLocal reports whether provider needs no API key.
func (c *Catalog) IsLocal(provider string) bool {
	p, ok := c.Lookup(provider)
	return ok && p.Local
}

// Resolve fills in the model, API key and base URL for t.
//
// The API key comes from the request, else from the provider's environment
// variable; custom providers must send one and local providers get a
// placeholder. Azure's base URL comes from AZURE_OPENAI_ENDPOINT.
func (c *Catalog) Resolve(t Target) (Target, error) {
	t.Provider = strings.ToLower(strings.TrimSpace(t.Provider))
	if t.Provider == "" {
		t.Provider = DefaultProvider
	}
	p, _ := c.Lookup(t.Provider)

	if strings.TrimSpace(t.Model) == "" {
		t.Model = p.DefaultModel
	}

	switch {
	case t.APIKey != "":
	case p.Local:
		t.APIKey = ollamaPlaceholderKey
	case t.Provider == ProviderCustom:
		return Target{}, ErrCustomKeyRequired
	case p.APIKeyEnv != "":
		t.APIKey = strings.TrimSpace(c.getenv(p.APIKeyEnv))
		if t.APIKey == "" {
			return Target{}, &MissingKeyError{EnvVar: p.APIKeyEnv}
		}
	}

	if strings.TrimSpace(t.BaseURL) == "" {
		if t.Provider == ProviderAzure {
			t.BaseURL = strings.TrimSpace(c.getenv(azureEndpointEnv))
			if t.BaseURL == "" {
				return Target{}, ErrAzureEndpoint
			}
		} else {
			t.BaseURL = p.BaseURL
		}
	}
	t.BaseURL = strings.TrimRight(t.BaseURL, "/")
	return t, nil
}
