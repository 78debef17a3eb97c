// internal/app/conversation_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"phq9_screening_bot/internal/domain/dialogue"
	"phq9_screening_bot/internal/domain/screening"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ConversationService loads, advances and stores the screening session of each conversation.
type ConversationService struct {
	repo   screening.Repository
	router *Router
	logger *logrus.Entry

	now   func() time.Time
	idGen func() string

	mu    sync.Mutex
	locks map[string]*conversationLock
}

// conversationLock is dropped from the map once no turn holds or waits on it.
type conversationLock struct {
	mu   sync.Mutex
	refs int
}

func NewConversationService(repo screening.Repository, router *Router, logger *logrus.Entry) *ConversationService {
	return &ConversationService{
		repo:   repo,
		router: router,
		logger: logger,
		now:    time.Now,
		idGen:  uuid.NewString,
		locks:  make(map[string]*conversationLock),
	}
}

// Start opens a fresh session for the conversation, replacing any previous one,
// and returns the greeting.
func (s *ConversationService) Start(ctx context.Context, conversationID string) ([]dialogue.Message, error) {
	unlock := s.lock(conversationID)
	defer unlock()

	session, err := s.greetedSession(conversationID)
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	s.sessionLogger(session).Info("Conversation started")
	return s.router.Greeting(), nil
}

// HandleMessage runs one turn of the conversation, creating its session on first contact.
func (s *ConversationService) HandleMessage(ctx context.Context, conversationID, text string) ([]dialogue.Message, error) {
	if normalize(text) == "" {
		return nil, nil
	}
	return s.handle(ctx, conversationID, text, true)
}

// ContinueConversation runs one turn of a conversation opened earlier with Start.
// It returns screening.ErrSessionNotFound for an unknown conversation.
func (s *ConversationService) ContinueConversation(ctx context.Context, conversationID, text string) ([]dialogue.Message, error) {
	return s.handle(ctx, conversationID, text, false)
}

func (s *ConversationService) handle(ctx context.Context, conversationID, text string, create bool) ([]dialogue.Message, error) {
	unlock := s.lock(conversationID)
	defer unlock()

	session, err := s.repo.GetByConversationID(ctx, conversationID)
	switch {
	case err == nil:
	case errors.Is(err, screening.ErrSessionNotFound) && create:
		session = screening.NewSession(s.idGen(), conversationID, s.now())
		s.sessionLogger(session).Info("New session created on first message")
	case errors.Is(err, screening.ErrSessionNotFound):
		return nil, err
	default:
		return nil, fmt.Errorf("failed to load session for conversation %s: %w", conversationID, err)
	}

	if normalize(text) == "" {
		return nil, nil
	}

	before := session.State
	replies, err := s.router.HandleTurn(session, text)
	if err != nil {
		s.sessionLogger(session).WithError(err).Error("Dialogue invariant violated")
		return nil, fmt.Errorf("handling turn for conversation %s: %w", conversationID, err)
	}

	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	logCtx := s.sessionLogger(session).WithFields(logrus.Fields{
		"from_state":    before,
		"current_index": session.CurrentIndex,
		"replies":       len(replies),
	})
	if session.IsTerminal() && before != screening.StateCompleted {
		tier, _ := screening.Classify(session.TotalScore())
		logCtx.WithField("tier", tier.String()).Info("Screening completed")
	} else {
		logCtx.Debug("Turn processed")
	}
	return replies, nil
}

// StartScreening is the explicit start command. It gives consent at the prompt or after a
// decline; a missing, not yet greeted or completed session is replaced by a fresh one,
// greeted and started in the same turn.
func (s *ConversationService) StartScreening(ctx context.Context, conversationID string) ([]dialogue.Message, error) {
	unlock := s.lock(conversationID)
	defer unlock()

	session, err := s.repo.GetByConversationID(ctx, conversationID)
	if err != nil && !errors.Is(err, screening.ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to load session for conversation %s: %w", conversationID, err)
	}

	var out []dialogue.Message
	if session == nil || session.State == screening.StateNotStarted || session.IsTerminal() {
		if session, err = s.greetedSession(conversationID); err != nil {
			return nil, err
		}
		out = append(out, s.router.Greeting()...)
	}

	replies, err := s.router.StartScreening(session)
	if err != nil {
		s.sessionLogger(session).WithError(err).Error("Dialogue invariant violated")
		return nil, fmt.Errorf("starting screening for conversation %s: %w", conversationID, err)
	}
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	s.sessionLogger(session).Info("Screening started by command")
	return append(out, replies...), nil
}

// PurgeFinished deletes completed sessions not touched since cutoff.
func (s *ConversationService) PurgeFinished(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.repo.DeleteFinishedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge finished sessions: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"deleted": n, "cutoff": cutoff.Format(time.RFC3339)}).Info("Finished sessions purged")
	return n, nil
}

func (s *ConversationService) greetedSession(conversationID string) (*screening.Session, error) {
	session := screening.NewSession(s.idGen(), conversationID, s.now())
	if err := session.MarkGreeted(); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *ConversationService) save(ctx context.Context, session *screening.Session) error {
	session.UpdatedAt = s.now()
	if err := s.repo.Save(ctx, session); err != nil {
		return fmt.Errorf("failed to save session %s: %w", session.ID, err)
	}
	return nil
}

// lock serializes turns of a single conversation.
func (s *ConversationService) lock(conversationID string) func() {
	s.mu.Lock()
	l, ok := s.locks[conversationID]
	if !ok {
		l = &conversationLock{}
		s.locks[conversationID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, conversationID)
		}
		s.mu.Unlock()
	}
}

func (s *ConversationService) sessionLogger(session *screening.Session) *logrus.Entry {
	return s.logger.WithFields(logrus.Fields{
		"conversation_id": session.ConversationID,
		"session_id":      session.ID,
		"state":           session.State,
	})
}
