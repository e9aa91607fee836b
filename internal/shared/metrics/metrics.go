package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	assistResults  = newCounterVec("assist_results_total", "Assist analyses by resolution path", "path")
	llmRequests    = newCounterVec("llm_requests_total", "LLM completions by provider and outcome", "provider", "outcome")
	githubRequests = newCounterVec("github_requests_total", "GitHub API calls by operation and status", "op", "status")

	llmDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000})

	gaugesMu sync.Mutex
	gauges   = map[string]gauge{}
)

type gauge struct {
	help string
	fn   func() float64
}

// IncAssistPath counts one assist analysis resolved through path.
func IncAssistPath(path string) {
	assistResults.inc(path)
}

// IncLLMRequest counts one completion call; outcome is "ok" or a failure kind.
func IncLLMRequest(provider, outcome string) {
	llmRequests.inc(provider, outcome)
}

// ObserveLLMDurationMs records a completion latency in milliseconds.
func ObserveLLMDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	llmDuration.Observe(value)
}

// IncGitHubRequest counts one upstream GitHub call.
func IncGitHubRequest(op string, status int) {
	githubRequests.inc(op, strconv.Itoa(status))
}

// RegisterGauge exposes a value computed at scrape time. Re-registering a name replaces it.
func RegisterGauge(name, help string, fn func() float64) {
	if fn == nil {
		return
	}
	gaugesMu.Lock()
	gauges[name] = gauge{help: help, fn: fn}
	gaugesMu.Unlock()
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	assistResults.write(&buf)
	llmRequests.write(&buf)
	githubRequests.write(&buf)
	writeHistogram(&buf, "llm_request_duration_ms", "LLM completion latency in milliseconds", llmDuration.Snapshot())

	gaugesMu.Lock()
	names := make([]string, 0, len(gauges))
	for name := range gauges {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		g := gauges[name]
		fmt.Fprintf(&buf, "# HELP %s %s\n", name, g.help)
		fmt.Fprintf(&buf, "# TYPE %s gauge\n", name)
		fmt.Fprintf(&buf, "%s %s\n", name, formatFloat(g.fn()))
	}
	gaugesMu.Unlock()
	return buf.String()
}

type counterVec struct {
	name   string
	help   string
	labels []string

	mu     sync.Mutex
	values map[string]uint64
}

func newCounterVec(name, help string, labels ...string) *counterVec {
	return &counterVec{name: name, help: help, labels: labels, values: map[string]uint64{}}
}

func (v *counterVec) inc(labelValues ...string) {
	key := strings.Join(labelValues, "\x00")
	v.mu.Lock()
	v.values[key]++
	v.mu.Unlock()
}

func (v *counterVec) write(buf *bytes.Buffer) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fmt.Fprintf(buf, "# HELP %s %s\n", v.name, v.help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", v.name)
	keys := make([]string, 0, len(v.values))
	for k := range v.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts := strings.Split(k, "\x00")
		pairs := make([]string, 0, len(v.labels))
		for i, label := range v.labels {
			val := ""
			if i < len(parts) {
				val = parts[i]
			}
			pairs = append(pairs, fmt.Sprintf("%s=%q", label, val))
		}
		fmt.Fprintf(buf, "%s{%s} %d\n", v.name, strings.Join(pairs, ","), v.values[k])
	}
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe places value in the first bucket whose bound covers it.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// SinceMillis returns the elapsed time since start in milliseconds.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
