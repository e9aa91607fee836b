package llm

import (
	"context"
	"time"
)

// Gate admits one request at a time and keeps at least gap between the end
// of one request and the start of the next. Local model servers handle
// concurrent requests poorly, so every client talking to the same server
// shares one Gate.
type Gate struct {
	gap time.Duration
	// slot is a one-element semaphore; lastDone is only touched while holding it.
	slot     chan struct{}
	lastDone time.Time
}

// NewGate returns an open gate.
func NewGate(gap time.Duration) *Gate {
	return &Gate{gap: gap, slot: make(chan struct{}, 1)}
}

// Wrap routes c's completions through the gate.
func (g *Gate) Wrap(c Client) Client {
	if c == nil {
		return nil
	}
	return ClientFunc(func(ctx context.Context, req Request) (Response, error) {
		if err := g.enter(ctx); err != nil {
			return Response{}, err
		}
		defer g.leave()
		return c.Complete(ctx, req)
	})
}

func (g *Gate) enter(ctx context.Context) error {
	select {
	case g.slot <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	if g.lastDone.IsZero() {
		return nil
	}
	if wait := g.gap - time.Since(g.lastDone); wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			<-g.slot
			return ctx.Err()
		}
	}
	return nil
}

func (g *Gate) leave() {
	g.lastDone = time.Now()
	<-g.slot
}
