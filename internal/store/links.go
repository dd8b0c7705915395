package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LinkStat is an outbound link and how often it was followed.
type LinkStat struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
	Clicks    int64     `json:"clicks"`
}

// UpsertLink registers a link, keeping its click count if it already exists.
func (s *Store) UpsertLink(ctx context.Context, key, url, label string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO links (key, url, label, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET url = excluded.url, label = excluded.label`,
		key, url, label, s.now().Unix())
	if err != nil {
		return fmt.Errorf("upsert link %s: %w", key, err)
	}
	return nil
}

// Follow counts a click on key and returns its destination.
func (s *Store) Follow(ctx context.Context, key string) (string, error) {
	var url string
	err := s.db.QueryRowContext(ctx,
		`UPDATE links SET clicks = clicks + 1 WHERE key = ? RETURNING url`, key).Scan(&url)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("follow link %s: %w", key, err)
	}
	return url, nil
}

// DeleteLink removes a link and its counter.
func (s *Store) DeleteLink(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM links WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete link %s: %w", key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Links returns every link, most clicked first.
func (s *Store) Links(ctx context.Context, limit int) ([]LinkStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, url, COALESCE(label, ''), created_at, clicks
		FROM links
		ORDER BY clicks DESC, key ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	var out []LinkStat
	for rows.Next() {
		var l LinkStat
		var created int64
		if err := rows.Scan(&l.Key, &l.URL, &l.Label, &created, &l.Clicks); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		l.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, l)
	}
	return out, rows.Err()
}
