package store

import (
	"context"
	"time"
)

// Participation records that a user took part in a meeting.
type Participation struct {
	ID       int64
	UserID   string
	RoomID   string
	JoinedAt time.Time
}

// ParticipationStore handles the meeting history ledger.
type ParticipationStore interface {
	// AddParticipation appends a history entry.
	AddParticipation(ctx context.Context, userID, roomID string) error

	// ListParticipations returns a user's entries, newest first.
	// A non-positive limit returns everything.
	ListParticipations(ctx context.Context, userID string, limit int) ([]*Participation, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	ParticipationStore

	// Close closes the underlying database connection.
	Close() error
}
