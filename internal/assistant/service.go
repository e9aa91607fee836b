// Package assistant is the client-side analysis service: it checks the
// analysis cache, calls the LLM backend and degrades to heuristic demo
// suggestions whenever the backend is unconfigured or failing.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"code-assistant/internal/analysiscache"
	"code-assistant/internal/llm"
	"code-assistant/internal/llmapi"
	"code-assistant/internal/shared/metrics"
	"code-assistant/internal/shared/telemetry"
	"code-assistant/internal/shared/util"
	"code-assistant/internal/suggestions"
)

// Path records how a result was produced.
type Path string

const (
	PathDemoUnconfigured   Path = "demo_unconfigured"
	PathCached             Path = "cached"
	PathBackend            Path = "backend"
	PathOllamaModelMissing Path = "ollama_model_missing"
	PathOllamaUnreachable  Path = "ollama_unreachable"
	PathFallback           Path = "fallback"
)

// Degraded reports whether the result came from the demo generator.
func (p Path) Degraded() bool {
	return p != PathCached && p != PathBackend
}

const (
	demoProvider = "demo"
	demoModel    = "fallback"

	ErrorTypeModelNotFound    = "model_not_found"
	ErrorTypeServerNotRunning = "server_not_running"
)

// Backend is the LLM HTTP surface the assistant talks to. *llmapi.Service
// satisfies it in-process; RemoteBackend reaches a running server.
type Backend interface {
	Analyze(ctx context.Context, in llmapi.AnalyzeRequest) (llmapi.AnalyzeResponse, error)
	Chat(ctx context.Context, in llmapi.ChatRequest) (llmapi.ChatResponse, error)
}

// Result is one analysis. Its shape is the same on every path; Path and Err
// say which one was taken.
type Result struct {
	Suggestions  []suggestions.Suggestion `json:"suggestions"`
	Analysis     string                   `json:"analysis"`
	SessionID    string                   `json:"session_id"`
	Cached       bool                     `json:"cached"`
	Provider     string                   `json:"provider"`
	Model        string                   `json:"model"`
	Path         Path                     `json:"path"`
	ErrorType    string                   `json:"error_type,omitempty"`
	ErrorMessage string                   `json:"error_message,omitempty"`

	// Err is the backend failure behind a fallback path.
	Err error `json:"-"`
}

// Improvement is a rewritten version of some code.
type Improvement struct {
	ImprovedCode string `json:"improved_code"`
	Explanation  string `json:"explanation"`
	SessionID    string `json:"session_id"`
	Cached       bool   `json:"cached"`
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	Path         Path   `json:"path"`
	Err          error  `json:"-"`
}

type SmartResult struct {
	Suggestions []suggestions.SmartSuggestion `json:"suggestions"`
	SessionID   string                        `json:"session_id,omitempty"`
	Path        Path                          `json:"path"`
	Err         error                         `json:"-"`
}

type HintsResult struct {
	Hints     []suggestions.Hint `json:"hints"`
	SessionID string             `json:"session_id,omitempty"`
	Path      Path               `json:"path"`
	Err       error              `json:"-"`
}

// Validation splits a model review by severity.
type Validation struct {
	Errors      []suggestions.Suggestion `json:"errors"`
	Warnings    []suggestions.Suggestion `json:"warnings"`
	Suggestions []suggestions.Suggestion `json:"suggestions"`
}

// NewCache builds the cache a Service stores analyses and improvements in.
func NewCache(opts ...analysiscache.Option) *analysiscache.Cache[any] {
	return analysiscache.New[any](opts...)
}

// Service analyzes code through the backend, caching successful results and
// degrading to the demo generator whenever the backend is unusable.
type Service struct {
	Backend  Backend
	Catalog  *llm.Catalog
	Settings SettingsSource
	Cache    *analysiscache.Cache[any]
	Now      func() time.Time
}

// NewService constructs a Service. A nil cache gets a default one.
func NewService(backend Backend, catalog *llm.Catalog, settings SettingsSource, cache *analysiscache.Cache[any]) *Service {
	if cache == nil {
		cache = NewCache()
	}
	if settings == nil {
		settings = StaticSettings{}
	}
	return &Service{
		Backend:  backend,
		Catalog:  catalog,
		Settings: settings,
		Cache:    cache,
		Now:      time.Now,
	}
}

func (s *Service) settings(ctx context.Context) Settings {
	return s.Settings.Settings(ctx).normalize(s.Catalog)
}

// configured reports whether set can reach a model: local providers always
// can, cloud providers need a key from the settings or the environment.
func (s *Service) configured(set Settings) bool {
	_, err := s.Catalog.Resolve(set.target())
	return err == nil
}

func (s *Service) sessionID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, s.Now().UnixMilli())
}

// Analyze reviews code and never fails: every error path returns demo
// suggestions tagged with provider "demo".
func (s *Service) Analyze(ctx context.Context, code, language string) Result {
	set := s.settings(ctx)
	if !s.configured(set) {
		return s.record(set, code, language, s.demoResult(code, language, PathDemoUnconfigured))
	}

	key := analysiscache.Key(code, language, set.Provider, set.Model, set.BaseURL)
	if v, ok := s.Cache.Get(key); ok {
		if cached, ok := v.(Result); ok {
			cached.Cached = true
			cached.Path = PathCached
			return s.record(set, code, language, cached)
		}
	}

	resp, err := s.Backend.Analyze(ctx, llmapi.AnalyzeRequest{
		LLMConfig: set.llmConfig(),
		Code:      code,
		Type:      llm.AnalysisCodeImprovement,
		SessionID: s.sessionID("analyze"),
	})
	if err != nil {
		return s.record(set, code, language, s.fallback(code, language, set, err))
	}

	result := Result{
		Suggestions: suggestions.ParseAnalysis(resp.Analysis),
		Analysis:    resp.Analysis,
		SessionID:   resp.SessionID,
		Provider:    set.Provider,
		Model:       set.Model,
		Path:        PathBackend,
	}
	s.Cache.Set(key, result)
	return s.record(set, code, language, result)
}

func (s *Service) record(set Settings, code, language string, r Result) Result {
	metrics.IncAssistPath(string(r.Path))
	fields := map[string]any{
		"path":        string(r.Path),
		"code_fp":     util.Fingerprint(code),
		"code_len":    len(code),
		"provider":    set.Provider,
		"model":       set.Model,
		"language":    language,
		"suggestions": len(r.Suggestions),
	}
	if r.Err != nil {
		fields["error"] = r.Err.Error()
		telemetry.Warn("assist.analyze.degraded", fields)
		return r
	}
	telemetry.Info("assist.analyze", fields)
	return r
}

func (s *Service) demoResult(code, language string, path Path) Result {
	r := Result{
		Suggestions: suggestions.Demo(code, language),
		Provider:    demoProvider,
		Model:       demoModel,
		Path:        path,
	}
	switch path {
	case PathOllamaModelMissing:
		r.SessionID = s.sessionID("ollama_model_missing")
		r.ErrorType = ErrorTypeModelNotFound
	case PathOllamaUnreachable:
		r.SessionID = s.sessionID("ollama_not_running")
		r.ErrorType = ErrorTypeServerNotRunning
		r.ErrorMessage = "Please start Ollama server: ollama serve"
	default:
		r.SessionID = s.sessionID("demo")
		r.Analysis = fmt.Sprintf("Demo analysis for %s code. Configure an AI provider (API key or local model like Ollama) in Settings for real AI-powered suggestions.", language)
	}
	return r
}

// fallback picks the demo flavour for a backend failure. Ollama failures get
// setup instructions; anything else is a plain fallback.
func (s *Service) fallback(code, language string, set Settings, err error) Result {
	path := PathFallback
	if set.Provider == llm.ProviderOllama {
		path = ollamaPath(err)
	}
	r := s.demoResult(code, language, path)
	r.Err = err
	switch path {
	case PathOllamaModelMissing:
		r.Analysis = fmt.Sprintf("Demo analysis for %s code. The Ollama model %q was not found. Please run \"ollama pull %s\" to download the model, then try again.", language, set.Model, set.Model)
		r.ErrorMessage = "Please run: ollama pull " + set.Model
	case PathOllamaUnreachable:
		r.Analysis = fmt.Sprintf("Demo analysis for %s code. Ollama server is not accessible. Please ensure Ollama is running on %s, then try again.", language, strings.TrimSuffix(set.BaseURL, "/v1"))
	}
	return r
}

func ollamaPath(err error) Path {
	var failure *llm.Failure
	if errors.As(err, &failure) && failure.Kind == llm.KindNetwork {
		return PathOllamaUnreachable
	}
	msg := errorText(err)
	switch {
	case strings.Contains(msg, "model") && strings.Contains(msg, "not found"):
		return PathOllamaModelMissing
	case strings.Contains(msg, "connection") || strings.Contains(msg, "econnrefused") || strings.Contains(msg, "500"):
		return PathOllamaUnreachable
	}
	return PathFallback
}

// errorText joins the lowercased messages of err's whole chain, so wrapped
// provider text stays visible after classification.
func errorText(err error) string {
	var b strings.Builder
	for e := err; e != nil; e = errors.Unwrap(e) {
		b.WriteString(strings.ToLower(e.Error()))
		b.WriteByte('\n')
	}
	return b.String()
}

// Improve rewrites code following the language's rules, falling back to the
// mechanical demo rewrite.
func (s *Service) Improve(ctx context.Context, code, language string) Improvement {
	set := s.settings(ctx)
	if !s.configured(set) {
		return s.demoImprovement(code, language, PathDemoUnconfigured, nil)
	}

	key := analysiscache.Key("improve_"+code, language, set.Provider, set.Model, set.BaseURL)
	if v, ok := s.Cache.Get(key); ok {
		if cached, ok := v.(Improvement); ok {
			cached.Cached = true
			cached.Path = PathCached
			return cached
		}
	}

	resp, err := s.Backend.Chat(ctx, llmapi.ChatRequest{
		LLMConfig: set.llmConfig(),
		Message:   llm.ImprovementPrompt(code, language),
		SessionID: s.sessionID("improve"),
	})
	if err != nil {
		telemetry.Warn("assist.improve.degraded", map[string]any{
			"provider": set.Provider,
			"model":    set.Model,
			"error":    err.Error(),
		})
		return s.demoImprovement(code, language, PathFallback, err)
	}

	imp := Improvement{
		ImprovedCode: resp.Response,
		Explanation:  fmt.Sprintf("Improved %s code using %s/%s", language, set.Provider, set.Model),
		SessionID:    resp.SessionID,
		Provider:     set.Provider,
		Model:        set.Model,
		Path:         PathBackend,
	}
	s.Cache.Set(key, imp)
	return imp
}

func (s *Service) demoImprovement(code, language string, path Path, err error) Improvement {
	return Improvement{
		ImprovedCode: suggestions.Improve(code, language),
		Explanation:  fmt.Sprintf("Demo improvement for %s code. Configure an AI provider (API key or local model like Ollama) in Settings for real AI-powered improvements.", language),
		SessionID:    s.sessionID("demo_improve"),
		Provider:     demoProvider,
		Model:        demoModel,
		Path:         path,
		Err:          err,
	}
}

// SmartSuggestions asks the model for short actionable tips.
func (s *Service) SmartSuggestions(ctx context.Context, code, language string) SmartResult {
	set := s.settings(ctx)
	if !s.configured(set) {
		return SmartResult{Suggestions: suggestions.DemoSmart(code, language), Path: PathDemoUnconfigured}
	}
	resp, err := s.Backend.Chat(ctx, llmapi.ChatRequest{
		LLMConfig: set.llmConfig(),
		Message:   llm.SmartSuggestionsPrompt(code, language),
		SessionID: s.sessionID("smart"),
	})
	if err != nil {
		return SmartResult{Suggestions: suggestions.DemoSmart(code, language), Path: PathFallback, Err: err}
	}
	return SmartResult{Suggestions: suggestions.ParseSmart(resp.Response), SessionID: resp.SessionID, Path: PathBackend}
}

// ContextualHints asks the model for language tips about code.
func (s *Service) ContextualHints(ctx context.Context, code, language string) HintsResult {
	set := s.settings(ctx)
	if !s.configured(set) {
		return HintsResult{Hints: suggestions.DemoHints(language), Path: PathDemoUnconfigured}
	}
	resp, err := s.Backend.Chat(ctx, llmapi.ChatRequest{
		LLMConfig: set.llmConfig(),
		Message:   llm.ContextualHintsPrompt(code, language),
		SessionID: s.sessionID("hints"),
	})
	if err != nil {
		return HintsResult{Hints: suggestions.DemoHints(language), Path: PathFallback, Err: err}
	}
	return HintsResult{Hints: suggestions.ParseHints(resp.Response), SessionID: resp.SessionID, Path: PathBackend}
}

// Validate asks the model for a bug review. Unlike the other operations it
// has no fallback: failures are returned.
func (s *Service) Validate(ctx context.Context, code, language string) (Validation, error) {
	set := s.settings(ctx)
	resp, err := s.Backend.Analyze(ctx, llmapi.AnalyzeRequest{
		LLMConfig: set.llmConfig(),
		Code:      code,
		Type:      llm.AnalysisDebug,
		SessionID: s.sessionID("validate"),
	})
	if err != nil {
		return Validation{}, err
	}
	v := Validation{
		Errors:      []suggestions.Suggestion{},
		Warnings:    []suggestions.Suggestion{},
		Suggestions: []suggestions.Suggestion{},
	}
	for _, sg := range suggestions.ParseAnalysis(resp.Analysis) {
		switch sg.Severity {
		case suggestions.SeverityError:
			v.Errors = append(v.Errors, sg)
		case suggestions.SeverityWarning:
			v.Warnings = append(v.Warnings, sg)
		default:
			v.Suggestions = append(v.Suggestions, sg)
		}
	}
	return v, nil
}

// ClearCacheForCode drops the cached analysis of code under the current
// settings so the next Analyze goes to the backend.
func (s *Service) ClearCacheForCode(ctx context.Context, code, language string) bool {
	set := s.settings(ctx)
	return s.Cache.Delete(analysiscache.Key(code, language, set.Provider, set.Model, set.BaseURL))
}

func (s *Service) CacheStats() analysiscache.Stats { return s.Cache.Stats() }

func (s *Service) ClearCache() { s.Cache.Clear() }
