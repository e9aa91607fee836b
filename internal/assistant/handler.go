package assistant

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"code-assistant/internal/language"
	"code-assistant/internal/llm"
	"code-assistant/internal/llmapi"
	"code-assistant/internal/shared/server/middleware"
	"code-assistant/internal/shared/server/respond"
	"code-assistant/internal/suggestions"
)

const defaultLanguage = "javascript"

// Handler exposes the assistant under /api/assist.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches routes under the /api/assist group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyze", h.analyze)
	rg.POST("/improve", h.improve)
	rg.POST("/smart-suggestions", h.smart)
	rg.POST("/hints", h.hints)
	rg.POST("/validate", h.validate)
	rg.POST("/detect-language", h.detectLanguage)
	rg.POST("/apply", h.apply)
	rg.GET("/cache/stats", h.cacheStats)
	rg.DELETE("/cache", h.clearCache)
	rg.POST("/cache/invalidate", h.invalidate)
}

// codeRequest carries the code plus optional settings; absent settings fall
// back to the server defaults.
type codeRequest struct {
	Settings
	Code     string `json:"code"`
	Language string `json:"language"`
	Refresh  bool   `json:"refresh"`
}

type applyRequest struct {
	Code    string               `json:"code"`
	Changes []suggestions.Change `json:"changes"`
}

type detectRequest struct {
	Code string `json:"code"`
	Path string `json:"path"`
}

// bindCode decodes a codeRequest, attaches its settings to the request
// context and resolves the language.
func (h *Handler) bindCode(c *gin.Context) (codeRequest, bool) {
	var req codeRequest
	if !respond.Bind(c, &req) {
		return req, false
	}
	if strings.TrimSpace(req.Code) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", llmapi.ErrCodeRequired.Error(), nil)
		return req, false
	}
	if req.Settings != (Settings{}) {
		c.Request = c.Request.WithContext(WithSettings(c.Request.Context(), req.Settings))
	}
	req.Language = strings.ToLower(strings.TrimSpace(req.Language))
	if req.Language == "" {
		if d := language.Detect(req.Code); d.Language != language.Unknown {
			req.Language = d.Language
		} else {
			req.Language = defaultLanguage
		}
	}
	set := h.Svc.settings(c.Request.Context())
	c.Set(middleware.LogProviderKey, set.Provider)
	c.Set(middleware.LogModelKey, set.Model)
	return req, true
}

func (h *Handler) analyze(c *gin.Context) {
	req, ok := h.bindCode(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if req.Refresh {
		h.Svc.ClearCacheForCode(ctx, req.Code, req.Language)
	}
	result := h.Svc.Analyze(ctx, req.Code, req.Language)
	c.Set(middleware.LogPathKey, string(result.Path))
	respond.OK(c, result)
}

func (h *Handler) improve(c *gin.Context) {
	req, ok := h.bindCode(c)
	if !ok {
		return
	}
	imp := h.Svc.Improve(c.Request.Context(), req.Code, req.Language)
	c.Set(middleware.LogPathKey, string(imp.Path))
	respond.OK(c, imp)
}

func (h *Handler) smart(c *gin.Context) {
	req, ok := h.bindCode(c)
	if !ok {
		return
	}
	res := h.Svc.SmartSuggestions(c.Request.Context(), req.Code, req.Language)
	c.Set(middleware.LogPathKey, string(res.Path))
	respond.OK(c, res)
}

func (h *Handler) hints(c *gin.Context) {
	req, ok := h.bindCode(c)
	if !ok {
		return
	}
	res := h.Svc.ContextualHints(c.Request.Context(), req.Code, req.Language)
	c.Set(middleware.LogPathKey, string(res.Path))
	respond.OK(c, res)
}

func (h *Handler) validate(c *gin.Context) {
	req, ok := h.bindCode(c)
	if !ok {
		return
	}
	v, err := h.Svc.Validate(c.Request.Context(), req.Code, req.Language)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, v)
}

func (h *Handler) detectLanguage(c *gin.Context) {
	var req detectRequest
	if !respond.Bind(c, &req) {
		return
	}
	if req.Path != "" {
		if lang := language.FromPath(req.Path); lang != language.Unknown {
			respond.OK(c, language.Detection{Language: lang, Confidence: 1})
			return
		}
	}
	if strings.TrimSpace(req.Code) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", llmapi.ErrCodeRequired.Error(), nil)
		return
	}
	respond.OK(c, language.Detect(req.Code))
}

// apply performs an accepted suggestion's line edits on the editor content.
func (h *Handler) apply(c *gin.Context) {
	var req applyRequest
	if !respond.Bind(c, &req) {
		return
	}
	if len(req.Changes) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "changes are required", nil)
		return
	}
	respond.OK(c, gin.H{"code": suggestions.ApplyChanges(req.Code, req.Changes)})
}

func (h *Handler) cacheStats(c *gin.Context) {
	respond.OK(c, h.Svc.CacheStats())
}

func (h *Handler) clearCache(c *gin.Context) {
	h.Svc.ClearCache()
	respond.OK(c, gin.H{"message": "Cache cleared"})
}

func (h *Handler) invalidate(c *gin.Context) {
	req, ok := h.bindCode(c)
	if !ok {
		return
	}
	removed := h.Svc.ClearCacheForCode(c.Request.Context(), req.Code, req.Language)
	respond.OK(c, gin.H{"removed": removed})
}

func writeError(c *gin.Context, err error) {
	var (
		failure *llm.Failure
		remote  *RemoteError
	)
	switch {
	case errors.Is(err, llmapi.ErrCodeRequired):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case llm.IsConfigError(err):
		respond.Error(c, http.StatusBadRequest, "config_error", err.Error(), nil)
	case errors.As(err, &failure):
		respond.Err(c, failure)
	case errors.As(err, &remote):
		code := remote.Code
		if code == "" {
			code = "backend_error"
		}
		respond.Error(c, remote.Status, code, remote.Message, nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "request failed", nil)
	}
}
