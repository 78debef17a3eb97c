// internal/infra/database/postgres_session_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"phq9_screening_bot/internal/domain/screening"

	"github.com/lib/pq" // For pq.Array and driver registration
)

const createSessionsTable = `CREATE TABLE IF NOT EXISTS screening_sessions (
    conversation_id TEXT PRIMARY KEY,
    session_id      UUID        NOT NULL,
    state           TEXT        NOT NULL,
    consent_given   BOOLEAN     NOT NULL DEFAULT FALSE,
    in_progress     BOOLEAN     NOT NULL DEFAULT FALSE,
    current_index   INTEGER     NOT NULL DEFAULT 0 CHECK (current_index BETWEEN 0 AND 9),
    scores          INTEGER[]   NOT NULL DEFAULT '{}',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

type PostgresSessionRepository struct {
	db *sql.DB
}

func NewPostgresSessionRepository(db *sql.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

// EnsureSchema creates the sessions table when it does not exist yet.
// It mirrors migrations/001_create_screening_sessions.sql.
func (r *PostgresSessionRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createSessionsTable); err != nil {
		return fmt.Errorf("error creating screening_sessions table: %w", err)
	}
	return nil
}

func (r *PostgresSessionRepository) GetByConversationID(ctx context.Context, conversationID string) (*screening.Session, error) {
	query := `SELECT session_id, conversation_id, state, consent_given, in_progress, current_index, scores, created_at, updated_at
               FROM screening_sessions WHERE conversation_id = $1`

	s := &screening.Session{}
	var scores pq.Int64Array
	err := r.db.QueryRowContext(ctx, query, conversationID).Scan(
		&s.ID, &s.ConversationID, &s.State, &s.ConsentGiven, &s.InProgress, &s.CurrentIndex, &scores, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, screening.ErrSessionNotFound
		}
		return nil, fmt.Errorf("error getting session by conversation ID: %w", err)
	}

	s.Scores = make([]int, len(scores))
	for i, v := range scores {
		s.Scores[i] = int(v)
	}
	return s, nil
}

func (r *PostgresSessionRepository) Save(ctx context.Context, s *screening.Session) error {
	query := `INSERT INTO screening_sessions (conversation_id, session_id, state, consent_given, in_progress, current_index, scores, created_at, updated_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
               ON CONFLICT (conversation_id) DO UPDATE SET
                   session_id = EXCLUDED.session_id,
                   state = EXCLUDED.state,
                   consent_given = EXCLUDED.consent_given,
                   in_progress = EXCLUDED.in_progress,
                   current_index = EXCLUDED.current_index,
                   scores = EXCLUDED.scores,
                   created_at = EXCLUDED.created_at,
                   updated_at = EXCLUDED.updated_at`

	scores := make(pq.Int64Array, len(s.Scores))
	for i, v := range s.Scores {
		scores[i] = int64(v)
	}

	_, err := r.db.ExecContext(ctx, query,
		s.ConversationID, s.ID, s.State, s.ConsentGiven, s.InProgress, s.CurrentIndex, scores, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("error saving session %s: %w", s.ID, err)
	}
	return nil
}

func (r *PostgresSessionRepository) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM screening_sessions WHERE state = $1 AND updated_at < $2`
	res, err := r.db.ExecContext(ctx, query, screening.StateCompleted, cutoff)
	if err != nil {
		return 0, fmt.Errorf("error deleting finished sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading deleted row count: %w", err)
	}
	return n, nil
}
