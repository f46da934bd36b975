package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/wirechat-client/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS session (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	user_id    TEXT NOT NULL,
	name       TEXT NOT NULL,
	token      TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens (and if needed creates) the session database at dbPath.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveSession stores the session, replacing any previous one.
func (s *SQLiteStore) SaveSession(ctx context.Context, sess store.Session) error {
	query := `
		INSERT INTO session (id, user_id, name, token)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			name = excluded.name,
			token = excluded.token,
			created_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.ExecContext(ctx, query, sess.UserID, sess.Name, sess.Token); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// LoadSession returns the saved session or store.ErrNoSession.
func (s *SQLiteStore) LoadSession(ctx context.Context) (*store.Session, error) {
	query := `SELECT user_id, name, token, created_at FROM session WHERE id = 1`

	var sess store.Session
	err := s.db.QueryRowContext(ctx, query).Scan(&sess.UserID, &sess.Name, &sess.Token, &sess.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNoSession
		}
		return nil, fmt.Errorf("query session: %w", err)
	}
	return &sess, nil
}

// ClearSession removes the saved session. Clearing an empty store is not an error.
func (s *SQLiteStore) ClearSession(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session WHERE id = 1`); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
