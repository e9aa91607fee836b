package sessions

import (
	"context"
	"testing"
	"time"
)

func TestMemoryRepoLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	clock := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { clock = clock.Add(time.Second); return clock }

	if err := repo.Append(ctx, "a", Turn("q1", "a1")...); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := repo.Append(ctx, "b", Turn("q2", "a2")...); err != nil {
		t.Fatalf("Append: %v", err)
	}

	hist, _ := repo.History(ctx, "a")
	if len(hist) != 2 || hist[0].Content != "q1" || hist[0].ID == "" || hist[0].SessionID != "a" {
		t.Fatalf("unexpected history %+v", hist)
	}

	list, _ := repo.List(ctx)
	if len(list) != 2 || list[0].SessionID != "b" || list[0].MessageCount != 2 {
		t.Fatalf("unexpected list %+v", list)
	}

	if err := repo.Clear(ctx, "a"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := repo.Clear(ctx, "missing"); err != nil {
		t.Fatalf("Clear unknown: %v", err)
	}
	hist, _ = repo.History(ctx, "a")
	if hist == nil || len(hist) != 0 {
		t.Fatalf("expected empty non-nil history, got %#v", hist)
	}
}

func TestMemoryRepoHistoryIsACopy(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	_ = repo.Append(ctx, "a", Message{Role: RoleUser, Content: "x"})
	hist, _ := repo.History(ctx, "a")
	hist[0].Content = "mutated"
	again, _ := repo.History(ctx, "a")
	if again[0].Content != "x" {
		t.Fatalf("history should not alias repo storage")
	}
}

func TestNormalizeID(t *testing.T) {
	if id, _ := NormalizeID("  "); id != DefaultSessionID {
		t.Fatalf("expected default session, got %q", id)
	}
	if _, err := NormalizeID(string(make([]byte, 200))); err == nil {
		t.Fatalf("expected error for long id")
	}
}
