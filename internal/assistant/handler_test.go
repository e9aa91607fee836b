package assistant

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"code-assistant/internal/analysiscache"
	"code-assistant/internal/language"
	"code-assistant/internal/llm"
)

func newTestRouter(t *testing.T, backend Backend, defaults Settings) (*gin.Engine, *Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := newTestService(t, backend, defaults)
	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api/assist"))
	return r, svc
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestAnalyzeEndpointUsesBodySettings(t *testing.T) {
	backend := &fakeBackend{}
	r, _ := newTestRouter(t, backend, Settings{Provider: "openai"})

	resp := doJSON(r, http.MethodPost, "/api/assist/analyze", map[string]any{
		"code":     "var x = 1;",
		"language": "javascript",
		"provider": "openai",
		"api_key":  "sk-body",
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var res Result
	if err := json.Unmarshal(resp.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Path != PathBackend || res.Provider != "openai" {
		t.Fatalf("unexpected result %+v", res)
	}
	if backend.analyzeCalls[0].APIKey != "sk-body" {
		t.Fatalf("body api key not forwarded")
	}

	// Without body settings the server defaults apply and carry no key.
	resp = doJSON(r, http.MethodPost, "/api/assist/analyze", map[string]any{"code": "var y = 2;"})
	if err := json.Unmarshal(resp.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Provider != "demo" || res.Path != PathDemoUnconfigured {
		t.Fatalf("expected demo result, got %+v", res)
	}
}

func TestAnalyzeEndpointRefreshBypassesCache(t *testing.T) {
	backend := &fakeBackend{}
	r, _ := newTestRouter(t, backend, Settings{Provider: "openai", APIKey: "sk-test"})

	body := map[string]any{"code": "var x = 1;", "language": "javascript"}
	doJSON(r, http.MethodPost, "/api/assist/analyze", body)
	doJSON(r, http.MethodPost, "/api/assist/analyze", body)
	if backend.analyzeCount() != 1 {
		t.Fatalf("expected cached second call, got %d backend calls", backend.analyzeCount())
	}

	body["refresh"] = true
	doJSON(r, http.MethodPost, "/api/assist/analyze", body)
	if backend.analyzeCount() != 2 {
		t.Fatalf("refresh should reach the backend, got %d calls", backend.analyzeCount())
	}
}

func TestAnalyzeEndpointRequiresCode(t *testing.T) {
	r, _ := newTestRouter(t, &fakeBackend{}, Settings{})

	resp := doJSON(r, http.MethodPost, "/api/assist/analyze", map[string]any{"code": "  "})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestCacheEndpoints(t *testing.T) {
	backend := &fakeBackend{}
	r, svc := newTestRouter(t, backend, Settings{Provider: "openai", APIKey: "sk-test"})

	body := map[string]any{"code": "var x = 1;", "language": "javascript"}
	doJSON(r, http.MethodPost, "/api/assist/analyze", body)
	doJSON(r, http.MethodPost, "/api/assist/analyze", body)

	resp := doJSON(r, http.MethodGet, "/api/assist/cache/stats", nil)
	var stats analysiscache.Stats
	if err := json.Unmarshal(resp.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Size != 1 || stats.MaxSize != analysiscache.DefaultCapacity || stats.HitRate != 50 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	resp = doJSON(r, http.MethodPost, "/api/assist/cache/invalidate", body)
	var out struct {
		Removed bool `json:"removed"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil || !out.Removed {
		t.Fatalf("expected removal, got %s", resp.Body.String())
	}

	doJSON(r, http.MethodPost, "/api/assist/analyze", body)
	resp = doJSON(r, http.MethodDelete, "/api/assist/cache", nil)
	if resp.Code != http.StatusOK || svc.Cache.Len() != 0 {
		t.Fatalf("cache not cleared: %d entries", svc.Cache.Len())
	}
}

func TestDetectLanguageEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, &fakeBackend{}, Settings{})

	resp := doJSON(r, http.MethodPost, "/api/assist/detect-language", map[string]any{"path": "src/app.py"})
	var d language.Detection
	if err := json.Unmarshal(resp.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Language != "python" || d.Confidence != 1 {
		t.Fatalf("unexpected detection %+v", d)
	}

	resp = doJSON(r, http.MethodPost, "/api/assist/detect-language", map[string]any{})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without code, got %d", resp.Code)
	}
}

func TestValidateEndpointMapsFailures(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"auth", llm.Classify(&llm.StatusError{Provider: "openai", Status: 401, Body: "bad key"}), http.StatusUnauthorized, llm.KindAuth},
		{"config", &llm.MissingKeyError{EnvVar: "OPENAI_API_KEY"}, http.StatusBadRequest, "config_error"},
		{"remote", &RemoteError{Status: 429, Code: llm.KindRateLimit, Message: "Rate limit exceeded"}, http.StatusTooManyRequests, llm.KindRateLimit},
		{"other", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRouter(t, &fakeBackend{analyzeErr: tt.err}, Settings{Provider: "openai", APIKey: "sk-test"})
			resp := doJSON(r, http.MethodPost, "/api/assist/validate", map[string]any{"code": "x := 1", "language": "go"})
			if resp.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.Code)
			}
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Code != tt.code {
				t.Fatalf("expected code %s, got %s", tt.code, body.Error.Code)
			}
		})
	}
}

func TestApplyEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, &fakeBackend{}, Settings{})

	resp := doJSON(r, http.MethodPost, "/api/assist/apply", map[string]any{
		"code": "var a = 1;\nvar b = 2;\nconsole.log(a + b);",
		"changes": []map[string]any{
			{"type": "replace", "startLine": 1, "endLine": 2, "newContent": "const a = 1;\nconst b = 2;"},
			{"type": "delete", "startLine": 3, "endLine": 3},
		},
	})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var out struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Code != "const a = 1;\nconst b = 2;" {
		t.Fatalf("unexpected code %q", out.Code)
	}

	resp = doJSON(r, http.MethodPost, "/api/assist/apply", map[string]any{"code": "x"})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without changes, got %d", resp.Code)
	}
}
