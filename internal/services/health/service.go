package health

import (
	"context"
	"time"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Report is the /api/health payload.
type Report struct {
	OK       bool     `json:"ok"`
	Status   string   `json:"status"`
	Sessions string   `json:"sessions"`
	Database string   `json:"database,omitempty"`
	Version  string   `json:"version,omitempty"`
	Provider []string `json:"providers,omitempty"`
}

// Service reports whether the API and its session store are usable.
type Service struct {
	DB        Pinger
	Providers []string
	Version   string
	Timeout   time.Duration
}

// NewService constructs a health service. A nil db means sessions live in
// memory.
func NewService(db Pinger, providers []string, version string) *Service {
	return &Service{DB: db, Providers: providers, Version: version, Timeout: 2 * time.Second}
}

// Status pings the database, if any. A failing database degrades the report
// but the API itself stays up.
func (s *Service) Status(ctx context.Context) Report {
	r := Report{OK: true, Status: "healthy", Sessions: "memory", Version: s.Version, Provider: s.Providers}
	if s.DB == nil {
		return r
	}
	r.Sessions = "database"
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.DB.PingContext(pingCtx); err != nil {
		r.Status = "degraded"
		r.Database = "unreachable"
		return r
	}
	r.Database = "ok"
	return r
}
