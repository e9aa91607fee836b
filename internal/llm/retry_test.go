package llm

import (
	"bytes"
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"code-assistant/internal/shared/telemetry"
)

func fastRetry(t *testing.T) {
	t.Helper()
	prev := RetryDelay
	RetryDelay = time.Millisecond
	restore := telemetry.SetOutput(&bytes.Buffer{})
	t.Cleanup(func() {
		RetryDelay = prev
		restore()
	})
}

func TestWithRetryRetriesTransientOnce(t *testing.T) {
	fastRetry(t)
	var calls int32
	base := ClientFunc(func(ctx context.Context, req Request) (Response, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return Response{}, &StatusError{Provider: "openai", Status: 502, Body: "bad gateway"}
		}
		return Response{Content: "ok"}, nil
	})
	resp, err := WithRetry(base, "openai").Complete(context.Background(), Request{})
	if err != nil || resp.Content != "ok" {
		t.Fatalf("expected success after retry, got %v %+v", err, resp)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestWithRetrySkipsPermanentErrors(t *testing.T) {
	fastRetry(t)
	cases := []error{
		&StatusError{Provider: "openai", Status: 401, Body: "bad key"},
		errors.New("invalid request"),
		context.Canceled,
	}
	for _, want := range cases {
		var calls int32
		base := ClientFunc(func(ctx context.Context, req Request) (Response, error) {
			atomic.AddInt32(&calls, 1)
			return Response{}, want
		})
		_, err := WithRetry(base, "openai").Complete(context.Background(), Request{})
		if !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
		if calls != 1 {
			t.Fatalf("%v: expected 1 call, got %d", want, calls)
		}
	}
}

func TestShouldRetryMessages(t *testing.T) {
	for _, msg := range []string{"read: connection reset by peer", "unexpected EOF", "write: broken pipe"} {
		if !shouldRetry(errors.New(msg)) {
			t.Fatalf("expected retry for %q", msg)
		}
	}
	if !shouldRetry(context.DeadlineExceeded) {
		t.Fatalf("expected retry for deadline")
	}
}

func TestGateSerializesCalls(t *testing.T) {
	var active, peak int32
	base := ClientFunc(func(ctx context.Context, req Request) (Response, error) {
		n := atomic.AddInt32(&active, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&active, -1)
		return Response{}, nil
	})
	gate := NewGate(2 * time.Millisecond)
	a, b := gate.Wrap(base), gate.Wrap(base)

	start := time.Now()
	done := make(chan struct{})
	for _, c := range []Client{a, b, a} {
		c := c
		go func() {
			_, _ = c.Complete(context.Background(), Request{})
			done <- struct{}{}
		}()
	}
	for i := 0; i < 3; i++ {
		<-done
	}
	if peak != 1 {
		t.Fatalf("expected one request in flight, peak %d", peak)
	}
	if elapsed := time.Since(start); elapsed < 19*time.Millisecond {
		t.Fatalf("expected gaps between calls, took %s", elapsed)
	}
}

func TestGateHonorsContext(t *testing.T) {
	block := make(chan struct{})
	base := ClientFunc(func(ctx context.Context, req Request) (Response, error) {
		<-block
		return Response{}, nil
	})
	c := NewGate(0).Wrap(base)
	go func() { _, _ = c.Complete(context.Background(), Request{}) }()
	time.Sleep(5 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := c.Complete(ctx, Request{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline while waiting for the gate, got %v", err)
	}
	close(block)
}
