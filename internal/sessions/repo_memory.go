package sessions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo keeps sessions in process memory.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]Message
	now  func() time.Time
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string][]Message),
		now:  time.Now,
	}
}

// Append implements Repo.
func (r *MemoryRepo) Append(ctx context.Context, sessionID string, msgs ...Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.data[sessionID] = append(r.data[sessionID], stamp(m, sessionID, r.now))
	}
	return nil
}

// History implements Repo.
func (r *MemoryRepo) History(ctx context.Context, sessionID string) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Message{}, r.data[sessionID]...), nil
}

// List implements Repo.
func (r *MemoryRepo) List(ctx context.Context) ([]Summary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]Summary, 0, len(r.data))
	for id, msgs := range r.data {
		if len(msgs) == 0 {
			continue
		}
		out = append(out, Summary{
			SessionID:    id,
			MessageCount: len(msgs),
			LastActivity: msgs[len(msgs)-1].CreatedAt,
		})
	}
	r.mu.RUnlock()
	sortSummaries(out)
	return out, nil
}

// Clear implements Repo.
func (r *MemoryRepo) Clear(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	delete(r.data, sessionID)
	r.mu.Unlock()
	return nil
}

func stamp(m Message, sessionID string, now func() time.Time) Message {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now().UTC()
	}
	m.SessionID = sessionID
	return m
}

func sortSummaries(s []Summary) {
	sort.SliceStable(s, func(i, j int) bool {
		if !s[i].LastActivity.Equal(s[j].LastActivity) {
			return s[i].LastActivity.After(s[j].LastActivity)
		}
		return s[i].SessionID < s[j].SessionID
	})
}

var _ Repo = (*MemoryRepo)(nil)
