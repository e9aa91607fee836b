package sessions

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Roles stored with each message.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// DefaultSessionID is used when a request names no session.
const DefaultSessionID = "default"

var ErrInvalidSession = errors.New("invalid session id")

// Message is one stored conversation turn.
type Message struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"type"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"timestamp"`
}

// Summary describes one session for listings.
type Summary struct {
	SessionID    string    `json:"session_id"`
	MessageCount int       `json:"message_count"`
	LastActivity time.Time `json:"last_activity"`
}

// Repo persists conversation memory per session.
type Repo interface {
	// Append stores messages at the end of the session, in order.
	Append(ctx context.Context, sessionID string, msgs ...Message) error
	// History returns every message of the session, oldest first. Unknown
	// sessions return an empty slice.
	History(ctx context.Context, sessionID string) ([]Message, error)
	// List returns sessions with at least one message, most recent first.
	List(ctx context.Context) ([]Summary, error)
	// Clear removes the session. Clearing an unknown session is not an error.
	Clear(ctx context.Context, sessionID string) error
}

const maxSessionIDLen = 128

// NormalizeID trims the id and applies the default session.
func NormalizeID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return DefaultSessionID, nil
	}
	if len(id) > maxSessionIDLen {
		return "", ErrInvalidSession
	}
	return id, nil
}
