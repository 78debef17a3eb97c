// internal/domain/screening/session.go
package screening

import (
	"fmt"
	"time"
)

// State is the position of a conversation in the screening flow.
type State string

const (
	StateNotStarted      State = "NOT_STARTED"
	StateAwaitingConsent State = "AWAITING_CONSENT"
	StateDeclined        State = "DECLINED"
	StateInProgress      State = "IN_PROGRESS"
	StateCompleted       State = "COMPLETED"
)

// ErrInvalidTransition is returned when an operation is not allowed in the session's current state.
var ErrInvalidTransition = fmt.Errorf("invalid screening state transition")

// Session tracks one conversation through consent, the nine questions and completion.
// It is owned by a single conversation and is not safe for concurrent use.
type Session struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	State          State     `json:"state"`
	ConsentGiven   bool      `json:"consent_given"`
	InProgress     bool      `json:"in_progress"`
	CurrentIndex   int       `json:"current_index"`
	Scores         []int     `json:"scores"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewSession returns a session in StateNotStarted.
func NewSession(id, conversationID string, now time.Time) *Session {
	return &Session{
		ID:             id,
		ConversationID: conversationID,
		State:          StateNotStarted,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// MarkGreeted records that the welcome and consent prompt have been sent.
func (s *Session) MarkGreeted() error {
	if s.State != StateNotStarted {
		return fmt.Errorf("%w: greet from %s", ErrInvalidTransition, s.State)
	}
	s.State = StateAwaitingConsent
	return nil
}

// Decline records a refusal at the consent prompt.
func (s *Session) Decline() error {
	if s.State != StateAwaitingConsent {
		return fmt.Errorf("%w: decline from %s", ErrInvalidTransition, s.State)
	}
	s.State = StateDeclined
	return nil
}

// Begin gives consent and positions the session on the first question.
// It is valid from AwaitingConsent and, via the explicit start command, from Declined.
func (s *Session) Begin() error {
	if s.State != StateAwaitingConsent && s.State != StateDeclined {
		return fmt.Errorf("%w: begin from %s", ErrInvalidTransition, s.State)
	}
	s.State = StateInProgress
	s.ConsentGiven = true
	s.InProgress = true
	s.CurrentIndex = 0
	s.Scores = make([]int, 0, QuestionCount)
	return nil
}

// Record stores the answer to the current question and advances.
// It reports true when that answer completed the questionnaire.
func (s *Session) Record(option ResponseOption) (bool, error) {
	if s.State != StateInProgress {
		return false, fmt.Errorf("%w: record from %s", ErrInvalidTransition, s.State)
	}
	if !option.Valid() {
		return false, fmt.Errorf("invalid response option %d", int(option))
	}
	if len(s.Scores) != s.CurrentIndex || s.CurrentIndex >= QuestionCount {
		return false, fmt.Errorf("%w: index %d with %d scores", ErrQuestionOutOfRange, s.CurrentIndex, len(s.Scores))
	}

	s.Scores = append(s.Scores, option.Score())
	s.CurrentIndex++
	if s.CurrentIndex == QuestionCount {
		s.InProgress = false
		s.State = StateCompleted
		return true, nil
	}
	return false, nil
}

// CurrentQuestion returns the prompt awaiting an answer.
func (s *Session) CurrentQuestion() (string, error) {
	return QuestionAt(s.CurrentIndex)
}

// TotalScore sums the recorded item scores.
func (s *Session) TotalScore() int {
	total := 0
	for _, v := range s.Scores {
		total += v
	}
	return total
}

// IsTerminal reports whether the session has completed and is frozen.
func (s *Session) IsTerminal() bool {
	return s.State == StateCompleted
}

// Clone returns a deep copy, used by stores that must not share state with callers.
func (s *Session) Clone() *Session {
	cp := *s
	if s.Scores != nil {
		cp.Scores = append(make([]int, 0, len(s.Scores)), s.Scores...)
	}
	return &cp
}
