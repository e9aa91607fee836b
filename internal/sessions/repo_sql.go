package sessions

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"code-assistant/internal/shared/storage/db"
)

// SQLRepo stores sessions in the chat_messages table. Queries are written
// with ? placeholders and rebound for the connection's dialect.
type SQLRepo struct {
	DB      *sql.DB
	Dialect db.Dialect
	Now     func() time.Time
}

// NewSQLRepo constructs a SQLRepo.
func NewSQLRepo(database *sql.DB, dialect db.Dialect) *SQLRepo {
	return &SQLRepo{DB: database, Dialect: dialect, Now: time.Now}
}

func (r *SQLRepo) q(query string) string {
	return db.Rebind(r.Dialect, query)
}

func (r *SQLRepo) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// Append implements Repo. Positions are allocated inside the transaction
// from the session's current maximum.
func (r *SQLRepo) Append(ctx context.Context, sessionID string, msgs ...Message) error {
	if len(msgs) == 0 {
		return nil
	}
	const query = `
INSERT INTO chat_messages (id, session_id, position, role, content, created_at)
VALUES (?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM chat_messages WHERE session_id = ?), ?, ?, ?)`

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt := r.q(query)
	for _, m := range msgs {
		m = stamp(m, sessionID, r.now)
		if _, err := tx.ExecContext(ctx, stmt, m.ID, sessionID, sessionID, m.Role, m.Content, m.CreatedAt); err != nil {
			return fmt.Errorf("insert chat message: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

// History implements Repo.
func (r *SQLRepo) History(ctx context.Context, sessionID string) ([]Message, error) {
	const query = `
SELECT id, session_id, role, content, created_at
FROM chat_messages
WHERE session_id = ?
ORDER BY position ASC`

	rows, err := r.DB.QueryContext(ctx, r.q(query), sessionID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := []Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// List implements Repo.
func (r *SQLRepo) List(ctx context.Context) ([]Summary, error) {
	const query = `
SELECT session_id, COUNT(*), MAX(created_at)
FROM chat_messages
GROUP BY session_id`

	rows, err := r.DB.QueryContext(ctx, r.q(query))
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var s Summary
		var last string
		if err := rows.Scan(&s.SessionID, &s.MessageCount, &last); err != nil {
			return nil, fmt.Errorf("scan sessions: %w", err)
		}
		s.LastActivity = parseTimestamp(last)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortSummaries(out)
	return out, nil
}

// Clear implements Repo.
func (r *SQLRepo) Clear(ctx context.Context, sessionID string) error {
	if _, err := r.DB.ExecContext(ctx, r.q(`DELETE FROM chat_messages WHERE session_id = ?`), sessionID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Aggregates lose the column type in SQLite, so MAX(created_at) arrives as
// text in one of the driver's layouts.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

var _ Repo = (*SQLRepo)(nil)
