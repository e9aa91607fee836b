package health

import (
	"context"
	"errors"
	"testing"
)

type fakePinger struct{ err error }

func (f fakePinger) PingContext(ctx context.Context) error { return f.err }

func TestStatus(t *testing.T) {
	tests := []struct {
		name     string
		db       Pinger
		status   string
		sessions string
		database string
	}{
		{"memory", nil, "healthy", "memory", ""},
		{"database ok", fakePinger{}, "healthy", "database", "ok"},
		{"database down", fakePinger{err: errors.New("refused")}, "degraded", "database", "unreachable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewService(tt.db, []string{"openai"}, "test").Status(context.Background())
			if !r.OK {
				t.Fatalf("api should report ok")
			}
			if r.Status != tt.status || r.Sessions != tt.sessions || r.Database != tt.database {
				t.Fatalf("unexpected report %+v", r)
			}
		})
	}
}
