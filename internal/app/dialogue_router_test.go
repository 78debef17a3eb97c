package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	"phq9_screening_bot/internal/domain/dialogue"
	"phq9_screening_bot/internal/domain/screening"
)

func greetedSession(t *testing.T) *screening.Session {
	t.Helper()
	s := screening.NewSession("S1", "C1", time.Now())
	if err := s.MarkGreeted(); err != nil {
		t.Fatalf("MarkGreeted error: %v", err)
	}
	return s
}

func turn(t *testing.T, r *Router, s *screening.Session, text string) []dialogue.Message {
	t.Helper()
	msgs, err := r.HandleTurn(s, text)
	if err != nil {
		t.Fatalf("HandleTurn(%q) error: %v", text, err)
	}
	return msgs
}

func TestConsentYesThenNineAnswers(t *testing.T) {
	r := NewRouter(RouterOptions{})
	s := greetedSession(t)

	msgs := turn(t, r, s, "yes")
	if len(msgs) != 2 || msgs[0].Content != dialogue.ConsentThanksText {
		t.Fatalf("unexpected consent reply: %+v", msgs)
	}
	q0, _ := screening.QuestionPrompt(0)
	if msgs[1].Content != q0 || len(msgs[1].Replies) != 4 {
		t.Fatalf("first question not emitted: %+v", msgs[1])
	}

	for i := 0; i < screening.QuestionCount; i++ {
		msgs = turn(t, r, s, "Several days")
		if len(msgs) != 1 {
			t.Fatalf("answer %d produced %d messages", i, len(msgs))
		}
		if i < screening.QuestionCount-1 {
			want, _ := screening.QuestionPrompt(i + 1)
			if msgs[0].Content != want {
				t.Fatalf("answer %d: got %q, want next question", i, msgs[0].Content)
			}
		}
	}

	if s.TotalScore() != 9 || s.InProgress || s.State != screening.StateCompleted {
		t.Fatalf("unexpected final session: %+v", s)
	}
	mild, _ := screening.FeedbackMessage(9)
	if msgs[0].Content != mild {
		t.Fatalf("feedback=%q, want %q", msgs[0].Content, mild)
	}
	if !strings.Contains(msgs[0].Content, "mild depression") || !strings.HasSuffix(msgs[0].Content, screening.CrisisFooter) {
		t.Fatalf("feedback is not mild with footer: %q", msgs[0].Content)
	}
}

func TestNoQuestionBeforeConsent(t *testing.T) {
	r := NewRouter(RouterOptions{})
	s := screening.NewSession("S1", "C1", time.Now())

	for _, text := range []string{"hello", "Several days", "maybe", "no"} {
		for _, m := range turn(t, r, s, text) {
			if strings.Contains(m.Content, "Over the last 2 weeks") {
				t.Fatalf("question emitted before consent after %q", text)
			}
		}
	}
	if s.ConsentGiven {
		t.Fatalf("consent recorded without yes")
	}
}

func TestFirstTurnEmitsGreetingOnce(t *testing.T) {
	r := NewRouter(RouterOptions{})
	s := screening.NewSession("S1", "C1", time.Now())

	msgs := turn(t, r, s, "hi")
	if len(msgs) != 2 || msgs[0].Content != dialogue.WelcomeText || msgs[1].Content != dialogue.ConsentPromptText {
		t.Fatalf("unexpected first turn: %+v", msgs)
	}
	if msgs := turn(t, r, s, "hi again"); len(msgs) != 0 {
		t.Fatalf("greeting repeated: %+v", msgs)
	}

	s = screening.NewSession("S2", "C2", time.Now())
	msgs = turn(t, r, s, "YES")
	if len(msgs) != 4 || msgs[2].Content != dialogue.ConsentThanksText {
		t.Fatalf("greeting + consent not combined: %+v", msgs)
	}
}

func TestUnclearConsentIsSwallowed(t *testing.T) {
	r := NewRouter(RouterOptions{})
	s := greetedSession(t)

	if msgs := turn(t, r, s, "maybe"); len(msgs) != 0 {
		t.Fatalf("expected no reply, got %+v", msgs)
	}
	if s.State != screening.StateAwaitingConsent || s.ConsentGiven {
		t.Fatalf("state changed: %+v", s)
	}
}

func TestUnclearConsentRepromptWhenEnabled(t *testing.T) {
	r := NewRouter(RouterOptions{RepromptUnclearConsent: true})
	s := greetedSession(t)

	msgs := turn(t, r, s, "maybe")
	if len(msgs) != 1 || msgs[0].Content != dialogue.ConsentPromptText {
		t.Fatalf("expected consent prompt, got %+v", msgs)
	}
	if s.State != screening.StateAwaitingConsent {
		t.Fatalf("state changed: %s", s.State)
	}
}

func TestDeclineThenFreeForm(t *testing.T) {
	r := NewRouter(RouterOptions{})
	s := greetedSession(t)

	msgs := turn(t, r, s, " No ")
	if len(msgs) != 1 || msgs[0].Content != dialogue.DeclineText {
		t.Fatalf("unexpected decline reply: %+v", msgs)
	}

	msgs = turn(t, r, s, "I feel sad today")
	if len(msgs) != 1 || msgs[0].Content != dialogue.CheckInText {
		t.Fatalf("expected check-in, got %+v", msgs)
	}
	msgs = turn(t, r, s, "the weather is nice")
	if len(msgs) != 1 || msgs[0].Content != dialogue.ListeningText {
		t.Fatalf("expected generic prompt, got %+v", msgs)
	}
	if s.ConsentGiven {
		t.Fatalf("free-form turn gave consent")
	}
}

func TestStartScreeningAfterDecline(t *testing.T) {
	r := NewRouter(RouterOptions{})
	s := greetedSession(t)
	turn(t, r, s, "no")

	msgs := turn(t, r, s, "Start Screening")
	if len(msgs) != 2 || !s.InProgress || !s.ConsentGiven {
		t.Fatalf("screening not started: %+v %+v", msgs, s)
	}
	q0, _ := screening.QuestionPrompt(0)
	if msgs[1].Content != q0 {
		t.Fatalf("first question not emitted: %q", msgs[1].Content)
	}
}

func TestUnrecognizedAnswerReprompts(t *testing.T) {
	r := NewRouter(RouterOptions{})
	s := greetedSession(t)
	turn(t, r, s, "yes")
	turn(t, r, s, "Not at all")

	q1, _ := screening.QuestionAt(1)
	var first string
	for i := 0; i < 3; i++ {
		msgs := turn(t, r, s, "sometimes")
		if len(msgs) != 1 {
			t.Fatalf("expected one re-prompt, got %+v", msgs)
		}
		if !strings.HasPrefix(msgs[0].Content, q1) || !strings.Contains(msgs[0].Content, dialogue.RepromptText) {
			t.Fatalf("re-prompt does not repeat question: %q", msgs[0].Content)
		}
		if i == 0 {
			first = msgs[0].Content
		} else if msgs[0].Content != first {
			t.Fatalf("re-prompt changed between turns")
		}
		if s.CurrentIndex != 1 || len(s.Scores) != 1 {
			t.Fatalf("re-prompt advanced session: %+v", s)
		}
	}
}

func TestNumericRepliesOnlyWhenEnabled(t *testing.T) {
	s := greetedSession(t)
	r := NewRouter(RouterOptions{})
	turn(t, r, s, "yes")
	turn(t, r, s, "3")
	if s.CurrentIndex != 0 {
		t.Fatalf("numeric reply accepted by default")
	}

	r = NewRouter(RouterOptions{AcceptNumericReplies: true})
	turn(t, r, s, "3")
	if s.CurrentIndex != 1 || s.Scores[0] != 2 {
		t.Fatalf("numeric reply not recorded: %+v", s)
	}
}

func TestCompletedSessionIsFrozen(t *testing.T) {
	r := NewRouter(RouterOptions{})
	s := greetedSession(t)
	turn(t, r, s, "yes")
	for i := 0; i < screening.QuestionCount; i++ {
		turn(t, r, s, "Nearly every day")
	}
	if s.TotalScore() != 27 {
		t.Fatalf("TotalScore=%d", s.TotalScore())
	}

	for _, text := range []string{"Nearly every day", "yes", "start screening", "I want to die"} {
		msgs := turn(t, r, s, text)
		if len(msgs) != 1 {
			t.Fatalf("unexpected replies to %q: %+v", text, msgs)
		}
		if len(s.Scores) != screening.QuestionCount || s.TotalScore() != 27 || !s.IsTerminal() {
			t.Fatalf("completed session mutated by %q", text)
		}
	}
}

func TestBlankInputIgnored(t *testing.T) {
	r := NewRouter(RouterOptions{})
	s := screening.NewSession("S1", "C1", time.Now())
	for _, text := range []string{"", "   ", "\n\t"} {
		if msgs := turn(t, r, s, text); msgs != nil {
			t.Fatalf("blank input produced %+v", msgs)
		}
	}
	if s.State != screening.StateNotStarted {
		t.Fatalf("blank input changed state to %s", s.State)
	}
}

func TestFreeFormKeywords(t *testing.T) {
	r := NewRouter(RouterOptions{})
	cases := map[string]string{
		"I feel HOPELESS":         dialogue.CheckInText,
		"everything is worthless": dialogue.CheckInText,
		"I am fine":               dialogue.ListeningText,
		"thanks":                  dialogue.ListeningText,
	}
	for text, want := range cases {
		got := r.freeForm(text)
		if len(got) != 1 || got[0].Content != want {
			t.Fatalf("freeForm(%q)=%+v, want %q", text, got, want)
		}
	}
}

func TestRouterStartScreeningRejectsCompletedSession(t *testing.T) {
	r := NewRouter(RouterOptions{})
	s := greetedSession(t)
	turn(t, r, s, "yes")
	for i := 0; i < screening.QuestionCount; i++ {
		turn(t, r, s, "Not at all")
	}

	if _, err := r.StartScreening(s); !errors.Is(err, screening.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}
