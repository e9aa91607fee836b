package respond

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"code-assistant/internal/shared/telemetry"
)

// ErrorBody defines the standardized error object.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Title   string      `json:"title,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Problem is implemented by errors that know their HTTP rendering.
type Problem interface {
	error
	HTTPStatus() int
	ErrorCode() string
}

// Titled problems carry a short user-facing heading.
type Titled interface {
	Heading() string
}

// Error sends a standardized error response.
func Error(c *gin.Context, status int, code, message string, details interface{}) {
	write(c, status, ErrorBody{Code: code, Message: message, Details: details})
}

// Err renders err as a Problem when it is one, otherwise as an internal error.
func Err(c *gin.Context, err error) {
	var p Problem
	if !errors.As(err, &p) {
		write(c, http.StatusInternalServerError, ErrorBody{Code: "internal_error", Message: "unexpected server error"})
		return
	}
	body := ErrorBody{Code: p.ErrorCode(), Message: p.Error()}
	if t, ok := p.(Titled); ok {
		body.Title = t.Heading()
	}
	write(c, p.HTTPStatus(), body)
}

func write(c *gin.Context, status int, body ErrorBody) {
	fields := map[string]any{
		"status":     status,
		"code":       body.Code,
		"message":    body.Message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if clientID := c.GetString("clientId"); clientID != "" {
		fields["client_id"] = clientID
	}
	telemetry.Error("http.error", fields)

	c.AbortWithStatusJSON(status, ErrorResponse{Error: body})
}
