// internal/infra/memory/session_repository.go
package memory

import (
	"context"
	"sync"
	"time"

	"phq9_screening_bot/internal/domain/screening"
)

// SessionRepository keeps sessions in process memory. Sessions are lost on restart.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*screening.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{sessions: make(map[string]*screening.Session)}
}

func (r *SessionRepository) GetByConversationID(_ context.Context, conversationID string) (*screening.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[conversationID]
	if !ok {
		return nil, screening.ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (r *SessionRepository) Save(_ context.Context, s *screening.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ConversationID] = s.Clone()
	return nil
}

func (r *SessionRepository) DeleteFinishedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, s := range r.sessions {
		if s.IsTerminal() && s.UpdatedAt.Before(cutoff) {
			delete(r.sessions, id)
			n++
		}
	}
	return n, nil
}
