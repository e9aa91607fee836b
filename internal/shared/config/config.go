package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string
	DatabaseURL     string

	// Defaults applied when a request carries no LLM settings.
	LLMProvider   string
	LLMModel      string
	LLMBaseURL    string
	ProvidersFile string
	LLMTimeout    time.Duration

	CacheCapacity int
	CacheTTL      time.Duration

	GitHubAPIURL      string
	GitHubConcurrency int

	RateLimitLLM      float64
	RateLimitLLMBurst int
	RateLimitGitHub   float64
	RateLimitDefault  float64
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if env == "production" && dbURL == "" {
		log.Printf("config: DATABASE_URL empty in production; chat sessions will not survive restarts")
	}

	return Config{
		Port:              getEnv("PORT", "5000"),
		Env:               env,
		CORSAllowOrigin:   splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		DatabaseURL:       dbURL,
		LLMProvider:       strings.ToLower(getEnv("LLM_PROVIDER", "openai")),
		LLMModel:          getEnv("LLM_MODEL", ""),
		LLMBaseURL:        getEnv("LLM_BASE_URL", ""),
		ProvidersFile:     getEnv("PROVIDERS_FILE", ""),
		LLMTimeout:        getDuration("LLM_TIMEOUT", 120*time.Second),
		CacheCapacity:     getInt("ANALYSIS_CACHE_SIZE", 100),
		CacheTTL:          getDuration("ANALYSIS_CACHE_TTL", 30*time.Minute),
		GitHubAPIURL:      strings.TrimRight(getEnv("GITHUB_API_URL", "https://api.github.com"), "/"),
		GitHubConcurrency: getInt("GITHUB_FETCH_CONCURRENCY", 4),
		RateLimitLLM:      getFloat("RATE_LIMIT_LLM_RPS", 0.5),
		RateLimitLLMBurst: getInt("RATE_LIMIT_LLM_BURST", 10),
		RateLimitGitHub:   getFloat("RATE_LIMIT_GITHUB_RPS", 2),
		RateLimitDefault:  getFloat("RATE_LIMIT_DEFAULT_RPS", 10),
	}
}

// IsDevLike reports whether the environment tolerates degraded dependencies.
func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "local"
}

func getEnv(key, def string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return def
}

func getInt(key string, def int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil || val <= 0 {
		log.Printf("config: %s invalid int %q, using %d", key, raw, def)
		return def
	}
	return val
}

func getFloat(key string, def float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil || val < 0 {
		log.Printf("config: %s invalid number %q, using %v", key, raw, def)
		return def
	}
	return val
}

// getDuration accepts Go durations ("90s") or bare seconds ("90").
func getDuration(key string, def time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	val, err := time.ParseDuration(raw)
	if err != nil || val <= 0 {
		log.Printf("config: %s invalid duration %q, using %s", key, raw, def)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}
