package metrics

import (
	"strings"
	"testing"
)

func TestRenderIncludesLabeledCounters(t *testing.T) {
	IncAssistPath("cached")
	IncAssistPath("cached")
	IncLLMRequest("ollama", "network_error")
	IncGitHubRequest("contents", 404)
	RegisterGauge("test_cache_entries", "entries", func() float64 { return 3 })

	out := Render()
	for _, want := range []string{
		`assist_results_total{path="cached"} 2`,
		`llm_requests_total{provider="ollama",outcome="network_error"} 1`,
		`github_requests_total{op="contents",status="404"} 1`,
		"test_cache_entries 3",
		"# TYPE llm_request_duration_ms histogram",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	if snap.count != 3 {
		t.Fatalf("expected count 3, got %d", snap.count)
	}
	if snap.counts[0] != 1 || snap.counts[1] != 1 {
		t.Fatalf("unexpected bucket counts %v", snap.counts)
	}
}
