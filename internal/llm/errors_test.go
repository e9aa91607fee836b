package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		kind   string
		status int
		title  string
	}{
		{"connection refused", errors.New("dial tcp: connection refused"), KindNetwork, 503, "Network Error"},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), KindTimeout, 504, "Request Timeout"},
		{"timeout text", errors.New("read timeout"), KindTimeout, 504, "Request Timeout"},
		{"rate limit text", errors.New("Rate limit reached for requests"), KindRateLimit, 429, "Rate Limit Exceeded"},
		{"429 status", &StatusError{Provider: "openai", Status: 429, Body: "slow down"}, KindRateLimit, 429, "Rate Limit Exceeded"},
		{"429 quota", &StatusError{Provider: "openai", Status: 429, Body: "You exceeded your current quota"}, KindQuota, 402, "Quota Exceeded"},
		{"401 status", &StatusError{Provider: "openai", Status: 401, Body: "bad"}, KindAuth, 401, "Authentication Error"},
		{"api key text", errors.New("Invalid API key"), KindAuth, 401, "Authentication Error"},
		{"billing", errors.New("billing hard limit"), KindQuota, 402, "Quota Exceeded"},
		{"general", errors.New("boom"), KindGeneral, 500, "Analysis Error"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			f := Classify(tt.err)
			if f.Kind != tt.kind || f.Status != tt.status || f.Title != tt.title {
				t.Fatalf("got %+v", f)
			}
			if !errors.Is(f, tt.err) {
				t.Fatalf("failure should unwrap to the original error")
			}
		})
	}
}

func TestClassifyGeneralMessage(t *testing.T) {
	f := Classify(errors.New("boom"))
	if f.Message != "Analysis failed: boom" {
		t.Fatalf("unexpected message %q", f.Message)
	}
	if f.HTTPStatus() != http.StatusInternalServerError || f.ErrorCode() != "general_error" {
		t.Fatalf("unexpected problem rendering %d %s", f.HTTPStatus(), f.ErrorCode())
	}
	if Classify(nil) != nil {
		t.Fatalf("nil error should classify to nil")
	}
	if Classify(f) != f {
		t.Fatalf("a failure should classify to itself")
	}
}

func TestIsContextLengthError(t *testing.T) {
	if !IsContextLengthError(&StatusError{Provider: "openai", Status: 400, Body: "This model's maximum context length is 4097 tokens"}) {
		t.Fatalf("expected context length error")
	}
	if IsContextLengthError(errors.New("rate limit")) {
		t.Fatalf("unexpected context length match")
	}
}
