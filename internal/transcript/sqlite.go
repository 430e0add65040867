// Package transcript keeps an optional local record of everything the client
// received, in SQLite.
package transcript

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS transcript (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	kind        TEXT NOT NULL,
	room        TEXT NOT NULL DEFAULT '',
	username    TEXT NOT NULL DEFAULT '',
	body        TEXT NOT NULL DEFAULT '',
	received_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_transcript_room ON transcript (room, id);
`

// Entry is one recorded event.
type Entry struct {
	ID         int64
	SessionID  string
	Kind       string
	Room       string
	User       string
	Body       string
	ReceivedAt time.Time
}

// Store writes entries for a single client session.
type Store struct {
	db        *sql.DB
	sessionID string
}

// Open opens (creating if needed) the transcript database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, sessionID: uuid.NewString()}, nil
}

// SessionID identifies the entries written by this Store.
func (s *Store) SessionID() string {
	return s.sessionID
}

// Record appends e under the store's session.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = time.Now()
	}
	query := `
		INSERT INTO transcript (session_id, kind, room, username, body, received_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, s.sessionID, e.Kind, e.Room, e.User, e.Body, e.ReceivedAt.UTC()); err != nil {
		return fmt.Errorf("insert transcript entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries for room, oldest first, across sessions.
func (s *Store) Recent(ctx context.Context, room string, limit int) ([]Entry, error) {
	query := `
		SELECT id, session_id, kind, room, username, body, received_at
		FROM transcript
		WHERE room = ?
		ORDER BY id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, room, limit)
	if err != nil {
		return nil, fmt.Errorf("query transcript: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Kind, &e.Room, &e.User, &e.Body, &e.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan transcript entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transcript: %w", err)
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
