package llmapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"code-assistant/internal/llm"
	"code-assistant/internal/sessions"
	"code-assistant/internal/shared/server/middleware"
	"code-assistant/internal/shared/server/respond"
)

// Handler exposes the LLM service over HTTP.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches routes under the /api/llm group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/providers", h.providers)
	rg.GET("/models", h.models)
	rg.POST("/analyze", h.analyze)
	rg.POST("/analyze-multiple", h.analyzeMultiple)
	rg.POST("/chat", h.chat)
	rg.POST("/test-connection", h.testConnection)
	rg.GET("/sessions", h.listSessions)
	rg.GET("/sessions/:id/history", h.sessionHistory)
	rg.DELETE("/sessions/:id/clear", h.clearSession)
}

func (h *Handler) providers(c *gin.Context) {
	respond.OK(c, h.Svc.Providers())
}

func (h *Handler) models(c *gin.Context) {
	respond.OK(c, h.Svc.Models(c.Query("provider")))
}

func (h *Handler) analyze(c *gin.Context) {
	var req AnalyzeRequest
	if !respond.Bind(c, &req) {
		return
	}
	tagRequest(c, req.LLMConfig, req.SessionID)
	resp, err := h.Svc.Analyze(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, resp)
}

func (h *Handler) analyzeMultiple(c *gin.Context) {
	var req MultiAnalyzeRequest
	if !respond.Bind(c, &req) {
		return
	}
	tagRequest(c, req.LLMConfig, req.SessionID)
	resp, err := h.Svc.AnalyzeMultiple(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, resp)
}

func (h *Handler) chat(c *gin.Context) {
	var req ChatRequest
	if !respond.Bind(c, &req) {
		return
	}
	tagRequest(c, req.LLMConfig, req.SessionID)
	resp, err := h.Svc.Chat(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, resp)
}

// testConnection reports provider failures in the body with a 400 so the
// settings screen can show them inline.
func (h *Handler) testConnection(c *gin.Context) {
	var req TestConnectionRequest
	if !respond.Bind(c, &req) {
		return
	}
	tagRequest(c, req.LLMConfig, "")
	resp, err := h.Svc.TestConnection(c.Request.Context(), req)
	if err != nil {
		respond.JSON(c, http.StatusBadRequest, TestConnectionResponse{Success: false, Error: err.Error()})
		return
	}
	respond.OK(c, resp)
}

func (h *Handler) listSessions(c *gin.Context) {
	list, err := h.Svc.Sessions.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list sessions", nil)
		return
	}
	respond.OK(c, gin.H{"sessions": list})
}

func (h *Handler) sessionHistory(c *gin.Context) {
	id, ok := sessionParam(c)
	if !ok {
		return
	}
	msgs, err := h.Svc.Sessions.History(c.Request.Context(), id)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to load history", nil)
		return
	}
	respond.OK(c, gin.H{"messages": msgs})
}

func (h *Handler) clearSession(c *gin.Context) {
	id, ok := sessionParam(c)
	if !ok {
		return
	}
	if err := h.Svc.Sessions.Clear(c.Request.Context(), id); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to clear session", nil)
		return
	}
	respond.OK(c, gin.H{"message": "Session " + id + " cleared successfully"})
}

func sessionParam(c *gin.Context) (string, bool) {
	id, err := sessions.NormalizeID(c.Param("id"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid session id", nil)
		return "", false
	}
	c.Set(middleware.LogSessionKey, id)
	return id, true
}

func tagRequest(c *gin.Context, cfg LLMConfig, sessionID string) {
	provider := cfg.Provider
	if provider == "" {
		provider = llm.DefaultProvider
	}
	c.Set(middleware.LogProviderKey, provider)
	if cfg.Model != "" {
		c.Set(middleware.LogModelKey, cfg.Model)
	}
	if sessionID != "" {
		c.Set(middleware.LogSessionKey, sessionID)
	}
}

func writeError(c *gin.Context, err error) {
	var failure *llm.Failure
	switch {
	case isValidation(err):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, sessions.ErrInvalidSession):
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid session id", nil)
	case llm.IsConfigError(err):
		respond.Error(c, http.StatusBadRequest, "config_error", err.Error(), nil)
	case errors.As(err, &failure):
		respond.Err(c, failure)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "request failed", nil)
	}
}
