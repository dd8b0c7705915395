package store

import (
	"context"
	"fmt"
	"time"
)

// MessageRecord is a contact submission and its delivery status.
type MessageRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InsertMessage stores a new submission. CreatedAt and UpdatedAt are set by
// the store.
func (s *Store) InsertMessage(ctx context.Context, m MessageRecord) error {
	now := s.now().Unix()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, name, email, subject, body, status, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Email, m.Subject, m.Body, m.Status, m.Error, now, now)
	if err != nil {
		return fmt.Errorf("insert message %s: %w", m.ID, err)
	}
	return nil
}

// SetMessageStatus moves a submission to status, recording errMsg.
func (s *Store) SetMessageStatus(ctx context.Context, id, status, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE messages SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		status, errMsg, s.now().Unix(), id)
	if err != nil {
		return fmt.Errorf("update message %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Messages returns the latest submissions, newest first.
func (s *Store) Messages(ctx context.Context, limit int) ([]MessageRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, COALESCE(subject, ''), body, status, COALESCE(error, ''), created_at, updated_at
		FROM messages
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []MessageRecord
	for rows.Next() {
		var m MessageRecord
		var created, updated int64
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Body, &m.Status, &m.Error, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.CreatedAt = time.Unix(created, 0).UTC()
		m.UpdatedAt = time.Unix(updated, 0).UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}
