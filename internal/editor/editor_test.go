package editor

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"code-assistant/internal/assistant"
	"code-assistant/internal/shared/telemetry"
)

func TestDelayFor(t *testing.T) {
	tests := []struct {
		n    int
		want time.Duration
	}{
		{0, 1500 * time.Millisecond},
		{2000, 1500 * time.Millisecond},
		{2001, 2 * time.Second},
		{5000, 2 * time.Second},
		{5001, 3 * time.Second},
	}
	for _, tt := range tests {
		if got := DelayFor(tt.n); got != tt.want {
			t.Fatalf("DelayFor(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestDebouncerRunsOnlyTheLastTrigger(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	var runs int32
	var last int32
	done := make(chan struct{}, 1)
	for i := 1; i <= 5; i++ {
		i := int32(i)
		d.Trigger(func() {
			atomic.AddInt32(&runs, 1)
			atomic.StoreInt32(&last, i)
			done <- struct{}{}
		})
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("debounced func never ran")
	}
	time.Sleep(60 * time.Millisecond)
	if atomic.LoadInt32(&runs) != 1 || atomic.LoadInt32(&last) != 5 {
		t.Fatalf("expected only the last trigger to run, runs=%d last=%d", runs, last)
	}
	if d.Pending() {
		t.Fatalf("nothing should be pending after the run")
	}
}

func TestDebouncerStop(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var runs int32
	d.Trigger(func() { atomic.AddInt32(&runs, 1) })
	if !d.Stop() {
		t.Fatalf("expected a pending func to be stopped")
	}
	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt32(&runs) != 0 {
		t.Fatalf("stopped func ran")
	}
}

type gatedAnalyzer struct {
	mu      sync.Mutex
	release map[string]chan struct{}
	calls   []string
}

func (g *gatedAnalyzer) gate(code string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.release == nil {
		g.release = map[string]chan struct{}{}
	}
	ch, ok := g.release[code]
	if !ok {
		ch = make(chan struct{})
		g.release[code] = ch
	}
	return ch
}

func (g *gatedAnalyzer) Analyze(ctx context.Context, code, language string) assistant.Result {
	g.mu.Lock()
	g.calls = append(g.calls, code)
	g.mu.Unlock()
	<-g.gate(code)
	return assistant.Result{Analysis: code, Provider: "demo", Path: assistant.PathDemoUnconfigured}
}

func (g *gatedAnalyzer) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestLiveSessionIgnoresShortCode(t *testing.T) {
	s := NewLiveSession(context.Background(), &gatedAnalyzer{}, "javascript")
	defer s.Close()

	if s.Change("   let x   ") {
		t.Fatalf("short code should not be scheduled")
	}
	if !s.Change("const total = items.length;") {
		t.Fatalf("long enough code should be scheduled")
	}
}

func TestLiveSessionCoalescesEdits(t *testing.T) {
	an := &gatedAnalyzer{}
	updates := make(chan Update, 4)
	s := NewLiveSession(context.Background(), an, "javascript",
		WithDelays(func(int) time.Duration { return 20 * time.Millisecond }),
		WithListener(func(u Update) { updates <- u }))
	defer s.Close()

	base := "const value = compute();"
	for i := 0; i < 5; i++ {
		s.Change(base + strings.Repeat(" ", i))
	}
	final := base + strings.Repeat(" ", 4)
	close(an.gate(final))

	select {
	case u := <-updates:
		if u.Code != final || u.Generation != 1 || u.Stale {
			t.Fatalf("unexpected update %+v", u)
		}
	case <-time.After(time.Second):
		t.Fatalf("no update published")
	}
	if an.callCount() != 1 {
		t.Fatalf("expected one analysis for a burst, got %d", an.callCount())
	}
}

// Two overlapping analyses both publish; whichever finishes last is what
// Latest reports, even when it was started first.
func TestLiveSessionLastCompletionWins(t *testing.T) {
	restore := telemetry.SetOutput(&bytes.Buffer{})
	defer restore()

	an := &gatedAnalyzer{}
	var mu sync.Mutex
	var order []uint64
	s := NewLiveSession(context.Background(), an, "javascript",
		WithListener(func(u Update) {
			mu.Lock()
			order = append(order, u.Generation)
			mu.Unlock()
		}))
	defer s.Close()

	first := "function first() { return 1; }"
	second := "function second() { return 2; }"
	s.Flush(first)
	s.Flush(second)
	waitFor(t, func() bool { return an.callCount() == 2 })

	close(an.gate(second))
	waitFor(t, func() bool {
		u, ok := s.Latest()
		return ok && u.Generation == 2
	})
	close(an.gate(first))
	waitFor(t, func() bool {
		u, _ := s.Latest()
		return u.Generation == 1
	})

	latest, _ := s.Latest()
	if latest.Code != first || !latest.Stale {
		t.Fatalf("expected the older, stale result to win: %+v", latest)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Fatalf("unexpected completion order %v", order)
	}
}

func TestLiveSessionDetectsLanguage(t *testing.T) {
	an := &gatedAnalyzer{}
	updates := make(chan Update, 1)
	s := NewLiveSession(context.Background(), an, "", WithListener(func(u Update) { updates <- u }))
	defer s.Close()

	code := "def main():\n    import os\n    print(os.getcwd())"
	close(an.gate(code))
	s.Flush(code)

	select {
	case u := <-updates:
		if u.Language != "python" {
			t.Fatalf("expected python, got %s", u.Language)
		}
	case <-time.After(time.Second):
		t.Fatalf("no update")
	}
}
