package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"code-assistant/internal/assistant"
	"code-assistant/internal/github"
	"code-assistant/internal/llmapi"
	"code-assistant/internal/services/health"
	"code-assistant/internal/shared/config"
	"code-assistant/internal/shared/metrics"
	"code-assistant/internal/shared/server/middleware"
	"code-assistant/internal/shared/server/respond"
)

// RouterDeps carries the handlers NewRouter mounts. Nil handlers are skipped.
type RouterDeps struct {
	Config           config.Config
	Health           *health.Service
	LLMHandler       *llmapi.Handler
	AssistantHandler *assistant.Handler
	GitHubHandler    *github.Handler
	RateLimiter      *middleware.RateLimiter
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	cfg := deps.Config
	r.Use(
		middleware.RequestID(),
		middleware.Identity(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules:   rateRules(cfg),
			Limiter: deps.RateLimiter,
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		if deps.Health == nil {
			respond.JSON(c, http.StatusOK, gin.H{"ok": true})
			return
		}
		respond.JSON(c, http.StatusOK, deps.Health.Status(c.Request.Context()))
	})
	if deps.LLMHandler != nil {
		deps.LLMHandler.RegisterRoutes(api.Group("/llm"))
	}
	if deps.AssistantHandler != nil {
		deps.AssistantHandler.RegisterRoutes(api.Group("/assist"))
	}
	if deps.GitHubHandler != nil {
		deps.GitHubHandler.RegisterRoutes(api.Group("/github"))
	}

	return r
}

func rateRules(cfg config.Config) map[string]middleware.RateLimitRule {
	return map[string]middleware.RateLimitRule{
		middleware.RateGroupLLM:     {Rate: cfg.RateLimitLLM, Burst: cfg.RateLimitLLMBurst},
		middleware.RateGroupGitHub:  {Rate: cfg.RateLimitGitHub, Burst: burstFor(cfg.RateLimitGitHub)},
		middleware.RateGroupDefault: {Rate: cfg.RateLimitDefault, Burst: burstFor(cfg.RateLimitDefault)},
	}
}

// burstFor allows roughly ten seconds of traffic at rate in one go.
func burstFor(rate float64) int {
	b := int(rate * 10)
	if b < 1 {
		return 1
	}
	return b
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":5000"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
