package github

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"code-assistant/internal/shared/server/respond"
	"code-assistant/internal/shared/util"
)

const (
	defaultPRTitle = "Code Improvements by AI Assistant"
	defaultPRBody  = "This pull request contains AI-suggested code improvements."
	defaultPRBase  = "main"
)

// Handler proxies GitHub calls with the caller's token.
type Handler struct {
	BaseURL     string
	Concurrency int
}

// NewHandler constructs a Handler.
func NewHandler(baseURL string, concurrency int) *Handler {
	return &Handler{BaseURL: baseURL, Concurrency: concurrency}
}

// RegisterRoutes attaches routes under the /api/github group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/repositories", h.repositories)
	rg.GET("/repository/:owner/:repo/contents", h.contents)
	rg.GET("/repository/:owner/:repo/file", h.file)
	rg.POST("/repository/:owner/:repo/analyze-all", h.analyzeAll)
	rg.POST("/repository/:owner/:repo/create-pr", h.createPR)
}

// TokenFromHeader strips the "Bearer " or "token " scheme from an
// Authorization header value.
func TokenFromHeader(header string) string {
	header = strings.TrimSpace(header)
	for _, prefix := range []string{"Bearer ", "bearer ", "token ", "Token "} {
		if strings.HasPrefix(header, prefix) {
			return strings.TrimSpace(header[len(prefix):])
		}
	}
	return header
}

func (h *Handler) client(c *gin.Context) (*Client, bool) {
	token := TokenFromHeader(c.GetHeader("Authorization"))
	if token == "" {
		respond.Error(c, http.StatusUnauthorized, "token_required", ErrTokenRequired.Error(), nil)
		return nil, false
	}
	return NewClient(c.Request.Context(), h.BaseURL, token), true
}

func (h *Handler) repositories(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}
	repos, err := client.ListRepositories(c.Request.Context())
	if err != nil {
		writeError(c, "", err)
		return
	}
	respond.OK(c, gin.H{"repositories": repos})
}

func (h *Handler) contents(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}
	path, err := util.CleanRepoPath(c.Query("path"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid path", nil)
		return
	}
	owner, repo := c.Param("owner"), c.Param("repo")
	contents, err := client.Contents(c.Request.Context(), owner, repo, path)
	if err != nil {
		writeError(c, owner+"/"+repo, err)
		return
	}
	if contents.File != nil {
		respond.OK(c, contents.File)
		return
	}
	respond.OK(c, gin.H{"contents": contents.Dir, "type": "directory"})
}

func (h *Handler) file(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}
	raw := strings.TrimSpace(c.Query("path"))
	if raw == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", ErrPathRequired.Error(), nil)
		return
	}
	path, err := util.CleanRepoPath(raw)
	if err != nil || path == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid path", nil)
		return
	}
	owner, repo := c.Param("owner"), c.Param("repo")
	f, err := client.File(c.Request.Context(), owner, repo, path)
	if err != nil {
		writeError(c, owner+"/"+repo, err)
		return
	}
	respond.OK(c, gin.H{"name": f.Name, "path": f.Path, "content": f.Content, "size": f.Size, "sha": f.SHA})
}

type analyzeAllRequest struct {
	Extensions []string `json:"extensions"`
	MaxFiles   int      `json:"max_files"`
}

func (h *Handler) analyzeAll(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}
	var req analyzeAllRequest
	if c.Request.ContentLength != 0 && !respond.Bind(c, &req) {
		return
	}
	owner, repo := c.Param("owner"), c.Param("repo")
	files, err := client.CollectFiles(c.Request.Context(), owner, repo, CollectOptions{
		Extensions:  req.Extensions,
		MaxFiles:    req.MaxFiles,
		Concurrency: h.Concurrency,
	})
	if err != nil {
		writeError(c, owner+"/"+repo, err)
		return
	}
	respond.OK(c, gin.H{
		"files":       files,
		"total_files": len(files),
		"repository":  owner + "/" + repo,
	})
}

func (h *Handler) createPR(c *gin.Context) {
	client, ok := h.client(c)
	if !ok {
		return
	}
	var req PullRequestInput
	if !respond.Bind(c, &req) {
		return
	}
	if strings.TrimSpace(req.Head) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", ErrHeadRequired.Error(), nil)
		return
	}
	if req.Title == "" {
		req.Title = defaultPRTitle
	}
	if req.Body == "" {
		req.Body = defaultPRBody
	}
	if req.Base == "" {
		req.Base = defaultPRBase
	}
	owner, repo := c.Param("owner"), c.Param("repo")
	pr, err := client.CreatePullRequest(c.Request.Context(), owner, repo, req)
	if err != nil {
		writeError(c, owner+"/"+repo, err)
		return
	}
	respond.OK(c, pr)
}

func writeError(c *gin.Context, repoName string, err error) {
	switch {
	case IsUnauthorized(err):
		respond.Error(c, http.StatusUnauthorized, "invalid_token", "Invalid GitHub token. Please check your token and try again.", nil)
	case IsNotFound(err):
		msg := "Resource not found or not accessible."
		if repoName != "" {
			msg = fmt.Sprintf("Repository %q not found or not accessible.", repoName)
		}
		respond.Error(c, http.StatusNotFound, "not_found", msg, nil)
	case errors.Is(err, ErrNotAFile):
		respond.Error(c, http.StatusBadRequest, "validation_error", "path is a directory", nil)
	case errors.Is(err, ErrUndecodable):
		respond.Error(c, http.StatusUnprocessableEntity, "undecodable", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "github_error", "GitHub API error: "+err.Error(), nil)
	}
}
