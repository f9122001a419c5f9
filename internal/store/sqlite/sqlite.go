package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/wiremeet/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS participations (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id      TEXT NOT NULL,
	meeting_code TEXT NOT NULL,
	joined_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_participations_user ON participations(user_id, joined_at DESC);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens the database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, Migrate)
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply schema without migrations.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps :memory: shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Migrate applies the ledger schema. It is safe to run repeatedly.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AddParticipation appends a history entry.
func (s *SQLiteStore) AddParticipation(ctx context.Context, userID, roomID string) error {
	query := `
		INSERT INTO participations (user_id, meeting_code)
		VALUES (?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, userID, roomID); err != nil {
		return fmt.Errorf("insert participation: %w", err)
	}
	return nil
}

// ListParticipations returns a user's entries, newest first.
func (s *SQLiteStore) ListParticipations(ctx context.Context, userID string, limit int) ([]*store.Participation, error) {
	query := `
		SELECT id, user_id, meeting_code, joined_at
		FROM participations
		WHERE user_id = ?
		ORDER BY joined_at DESC, id DESC
	`
	args := []any{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query participations: %w", err)
	}
	defer rows.Close()

	var out []*store.Participation
	for rows.Next() {
		var p store.Participation
		if err := rows.Scan(&p.ID, &p.UserID, &p.RoomID, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan participation: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participations: %w", err)
	}
	return out, nil
}
