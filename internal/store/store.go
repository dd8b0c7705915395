// Package store keeps the little state the site has on sqlite: privacy
// conscious visitor records, contact messages and outbound link clicks.
package store

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a keyed row does not exist.
var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS visitors (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	hashed_ip TEXT NOT NULL,  -- never the raw address
	user_agent TEXT,
	path TEXT,
	ts INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS visitors_ts ON visitors (ts);

CREATE TABLE IF NOT EXISTS links (
	key TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	label TEXT,
	created_at INTEGER NOT NULL,
	clicks INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	subject TEXT,
	body TEXT NOT NULL,
	status TEXT NOT NULL,
	error TEXT,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// Store wraps the sqlite database.
type Store struct {
	db   *sql.DB
	salt string
	now  func() time.Time
}

type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open opens (creating if needed) the database at path and applies the schema.
// salt keys the IP hashing; a new salt per process makes hashes unlinkable
// across restarts.
func Open(ctx context.Context, path, salt string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// sqlite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}

	s := &Store{db: db, salt: salt, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// HashIP returns a truncated salted hash of ip, stable for this store.
func (s *Store) HashIP(ip string) string {
	h := sha256.New()
	h.Write([]byte(ip + s.salt))
	return hex.EncodeToString(h.Sum(nil))[:16]
}
