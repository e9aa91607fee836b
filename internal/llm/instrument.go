package llm

import (
	"context"
	"sync"
	"time"

	"code-assistant/internal/shared/metrics"
	"code-assistant/internal/shared/telemetry"
)

type instrumentedClient struct {
	base   Client
	target Target
}

// Instrument records latency and outcome metrics for every completion and
// logs failures.
func Instrument(base Client, target Target) Client {
	if base == nil {
		return nil
	}
	return instrumentedClient{base: base, target: target}
}

func (i instrumentedClient) Complete(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	resp, err := i.base.Complete(ctx, req)
	metrics.ObserveLLMDurationMs(metrics.SinceMillis(start))

	outcome := "ok"
	if err != nil {
		outcome = Classify(err).Kind
		telemetry.Warn("llm.complete.failed", map[string]any{
			"provider": i.target.Provider,
			"model":    i.target.Model,
			"kind":     outcome,
			"error":    err.Error(),
		})
	}
	metrics.IncLLMRequest(i.target.Provider, outcome)
	return resp, err
}

// Pipeline wraps a factory so every client it builds is instrumented and
// retried once on transient failures. Clients for local providers share one
// Gate per base URL.
type Pipeline struct {
	Factory  Factory
	Catalog  *Catalog
	LocalGap time.Duration

	mu    sync.Mutex
	gates map[string]*Gate
}

// NewClient implements Factory.
func (p *Pipeline) NewClient(target Target) (Client, error) {
	c, err := p.Factory.NewClient(target)
	if err != nil {
		return nil, err
	}
	c = WithRetry(Instrument(c, target), target.Provider)
	if p.Catalog != nil && p.Catalog.IsLocal(target.Provider) {
		c = p.gate(target.Provider + "|" + target.BaseURL).Wrap(c)
	}
	return c, nil
}

func (p *Pipeline) gate(key string) *Gate {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gates == nil {
		p.gates = map[string]*Gate{}
	}
	g, ok := p.gates[key]
	if !ok {
		g = NewGate(p.LocalGap)
		p.gates[key] = g
	}
	return g
}
