package llm

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"code-assistant/internal/shared/telemetry"
)

// RetryDelay is the pause before the single retry of a transient failure.
var RetryDelay = 300 * time.Millisecond

type retryingClient struct {
	base     Client
	provider string
}

// WithRetry retries a failed completion once when the failure looks
// transient: timeouts, dropped connections and 5xx responses.
func WithRetry(base Client, provider string) Client {
	if base == nil {
		return nil
	}
	return retryingClient{base: base, provider: provider}
}

func (r retryingClient) Complete(ctx context.Context, req Request) (Response, error) {
	resp, err := r.base.Complete(ctx, req)
	if err == nil || !shouldRetry(err) {
		return resp, err
	}

	telemetry.Warn("llm.retry", map[string]any{
		"provider": r.provider,
		"attempt":  1,
		"error":    err.Error(),
	})
	select {
	case <-time.After(RetryDelay):
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
	return r.base.Complete(ctx, req)
}

func shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "server_error") {
		return true
	}
	return strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "client.timeout") ||
		strings.Contains(msg, "eof")
}
