package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Failure kinds reported to clients.
const (
	KindNetwork   = "network_error"
	KindTimeout   = "timeout_error"
	KindRateLimit = "rate_limit"
	KindAuth      = "auth_error"
	KindQuota     = "quota_error"
	KindGeneral   = "general_error"
)

// StatusError is returned by provider clients for non-2xx responses.
type StatusError struct {
	Provider string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s http status %d: %s", e.Provider, e.Status, e.Body)
}

// Failure is a classified provider error ready for an HTTP response.
type Failure struct {
	Kind    string
	Status  int
	Title   string
	Message string
	Err     error
}

func (f *Failure) Error() string     { return f.Message }
func (f *Failure) Unwrap() error     { return f.Err }
func (f *Failure) HTTPStatus() int   { return f.Status }
func (f *Failure) ErrorCode() string { return f.Kind }

// Heading is the short title shown above the message.
func (f *Failure) Heading() string { return f.Title }

var failureTemplates = map[string]Failure{
	KindNetwork: {
		Status:  http.StatusServiceUnavailable,
		Title:   "Network Error",
		Message: "Network connection error. Please check your internet connection and try again.",
	},
	KindTimeout: {
		Status:  http.StatusGatewayTimeout,
		Title:   "Request Timeout",
		Message: "Request timeout. The analysis is taking too long. Try with shorter code.",
	},
	KindRateLimit: {
		Status:  http.StatusTooManyRequests,
		Title:   "Rate Limit Exceeded",
		Message: "Rate limit exceeded. Please wait a moment and try again.",
	},
	KindAuth: {
		Status:  http.StatusUnauthorized,
		Title:   "Authentication Error",
		Message: "Invalid API key. Please check your API key configuration.",
	},
	KindQuota: {
		Status:  http.StatusPaymentRequired,
		Title:   "Quota Exceeded",
		Message: "API quota exceeded or billing issue. Please check your account.",
	},
	KindGeneral: {
		Status: http.StatusInternalServerError,
		Title:  "Analysis Error",
	},
}

// Classify maps a provider error to a Failure. Status codes from
// StatusError win over message inspection.
func Classify(err error) *Failure {
	if err == nil {
		return nil
	}
	var already *Failure
	if errors.As(err, &already) {
		return already
	}
	kind := classifyKind(err)
	f := failureTemplates[kind]
	f.Kind = kind
	f.Err = err
	if kind == KindGeneral {
		f.Message = "Analysis failed: " + err.Error()
	}
	return &f
}

func classifyKind(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		body := strings.ToLower(se.Body)
		switch {
		case se.Status == http.StatusUnauthorized || se.Status == http.StatusForbidden:
			return KindAuth
		case se.Status == http.StatusPaymentRequired:
			return KindQuota
		case se.Status == http.StatusTooManyRequests:
			if strings.Contains(body, "quota") || strings.Contains(body, "billing") {
				return KindQuota
			}
			return KindRateLimit
		case se.Status == http.StatusRequestTimeout || se.Status == http.StatusGatewayTimeout:
			return KindTimeout
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection") || strings.Contains(msg, "network"):
		return KindNetwork
	case strings.Contains(msg, "timeout"):
		return KindTimeout
	case strings.Contains(msg, "rate limit"):
		return KindRateLimit
	case strings.Contains(msg, "api key") || strings.Contains(msg, "authentication"):
		return KindAuth
	case strings.Contains(msg, "quota") || strings.Contains(msg, "billing"):
		return KindQuota
	}
	return KindGeneral
}

// IsContextLengthError reports whether the provider rejected the prompt as
// too long for the model.
func IsContextLengthError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "context length") ||
		strings.Contains(msg, "context_length") ||
		strings.Contains(msg, "token limit") ||
		strings.Contains(msg, "maximum context")
}

// IsConfigError reports errors raised while resolving a target, which are
// the caller's fault rather than the provider's.
func IsConfigError(err error) bool {
	var mk *MissingKeyError
	return errors.As(err, &mk) || errors.Is(err, ErrCustomKeyRequired) || errors.Is(err, ErrAzureEndpoint)
}
