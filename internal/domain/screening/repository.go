package screening

import (
	"context"
	"fmt"
	"time"
)

// ErrSessionNotFound is returned by a Repository when the conversation has no session.
var ErrSessionNotFound = fmt.Errorf("screening session not found")

// Repository stores the current session of each conversation.
type Repository interface {
	// GetByConversationID returns ErrSessionNotFound when the conversation has no session.
	GetByConversationID(ctx context.Context, conversationID string) (*Session, error)
	// Save inserts or replaces the conversation's session.
	Save(ctx context.Context, s *Session) error
	// DeleteFinishedBefore removes completed sessions last updated before cutoff.
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
