// internal/app/dialogue_router.go
package app

import (
	"fmt"
	"strings"

	"phq9_screening_bot/internal/domain/dialogue"
	"phq9_screening_bot/internal/domain/screening"
)

// RouterOptions holds the product switches of the dialogue.
type RouterOptions struct {
	// AcceptNumericReplies lets "1".."4" answer a question.
	AcceptNumericReplies bool
	// RepromptUnclearConsent re-sends the consent prompt when the reply is neither yes nor no.
	// When false such replies are ignored.
	RepromptUnclearConsent bool
}

// Router decides what the bot says for each inbound message.
// It mutates only the session it is given and performs no I/O.
type Router struct {
	mapper   screening.Mapper
	opts     RouterOptions
	keywords []string
}

func NewRouter(opts RouterOptions) *Router {
	return &Router{
		mapper:   screening.Mapper{AcceptNumeric: opts.AcceptNumericReplies},
		opts:     opts,
		keywords: dialogue.NegativeKeywords,
	}
}

// Greeting is the fixed opening sequence of a conversation.
func (r *Router) Greeting() []dialogue.Message {
	return []dialogue.Message{
		dialogue.Text(dialogue.WelcomeText),
		dialogue.Text(dialogue.ConsentPromptText),
	}
}

// HandleTurn processes one inbound message against the session and returns the replies.
// Blank input yields no replies and leaves the session untouched.
// An error means a session invariant was broken.
func (r *Router) HandleTurn(s *screening.Session, rawText string) ([]dialogue.Message, error) {
	text := strings.TrimSpace(rawText)
	if text == "" {
		return nil, nil
	}

	var out []dialogue.Message
	if s.State == screening.StateNotStarted {
		if err := s.MarkGreeted(); err != nil {
			return nil, err
		}
		out = append(out, r.Greeting()...)
	}

	var (
		replies []dialogue.Message
		err     error
	)
	switch s.State {
	case screening.StateAwaitingConsent:
		replies, err = r.handleConsent(s, text)
	case screening.StateInProgress:
		replies, err = r.handleAnswer(s, text)
	case screening.StateDeclined:
		if normalize(text) == dialogue.StartScreeningCommand {
			replies, err = r.begin(s)
		} else {
			replies = r.freeForm(text)
		}
	default:
		replies = r.freeForm(text)
	}
	if err != nil {
		return nil, err
	}
	return append(out, replies...), nil
}

// StartScreening handles the explicit start command on a greeted session.
// From the consent prompt or after a decline it begins at the first question;
// a screening already under way gets its current question again.
func (r *Router) StartScreening(s *screening.Session) ([]dialogue.Message, error) {
	switch s.State {
	case screening.StateAwaitingConsent, screening.StateDeclined:
		return r.begin(s)
	case screening.StateInProgress:
		q, err := r.questionMessage(s.CurrentIndex)
		if err != nil {
			return nil, err
		}
		return []dialogue.Message{q}, nil
	}
	return nil, fmt.Errorf("%w: start screening from %s", screening.ErrInvalidTransition, s.State)
}

func (r *Router) handleConsent(s *screening.Session, text string) ([]dialogue.Message, error) {
	switch normalize(text) {
	case dialogue.ConsentYes:
		return r.begin(s)
	case dialogue.ConsentNo:
		if err := s.Decline(); err != nil {
			return nil, err
		}
		return []dialogue.Message{dialogue.Text(dialogue.DeclineText)}, nil
	}
	if r.opts.RepromptUnclearConsent {
		return []dialogue.Message{dialogue.Text(dialogue.ConsentPromptText)}, nil
	}
	return nil, nil
}

func (r *Router) begin(s *screening.Session) ([]dialogue.Message, error) {
	if err := s.Begin(); err != nil {
		return nil, err
	}
	q, err := r.questionMessage(s.CurrentIndex)
	if err != nil {
		return nil, err
	}
	return []dialogue.Message{dialogue.Text(dialogue.ConsentThanksText), q}, nil
}

func (r *Router) handleAnswer(s *screening.Session, text string) ([]dialogue.Message, error) {
	option, ok := r.mapper.Map(text)
	if !ok {
		q, err := s.CurrentQuestion()
		if err != nil {
			return nil, err
		}
		reprompt := q + "\n\n" + dialogue.RepromptText + "\n" + screening.OptionMenu()
		return []dialogue.Message{dialogue.TextWithReplies(reprompt, screening.OptionLabels())}, nil
	}

	completed, err := s.Record(option)
	if err != nil {
		return nil, err
	}
	if !completed {
		q, err := r.questionMessage(s.CurrentIndex)
		if err != nil {
			return nil, err
		}
		return []dialogue.Message{q}, nil
	}

	feedback, err := screening.FeedbackMessage(s.TotalScore())
	if err != nil {
		return nil, fmt.Errorf("completing session %s: %w", s.ID, err)
	}
	return []dialogue.Message{dialogue.Text(feedback)}, nil
}

func (r *Router) questionMessage(index int) (dialogue.Message, error) {
	prompt, err := screening.QuestionPrompt(index)
	if err != nil {
		return dialogue.Message{}, err
	}
	return dialogue.TextWithReplies(prompt, screening.OptionLabels()), nil
}

func (r *Router) freeForm(text string) []dialogue.Message {
	lower := strings.ToLower(text)
	for _, word := range r.keywords {
		if strings.Contains(lower, word) {
			return []dialogue.Message{dialogue.Text(dialogue.CheckInText)}
		}
	}
	return []dialogue.Message{dialogue.Text(dialogue.ListeningText)}
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
