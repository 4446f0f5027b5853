package quizforge

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// SessionState is the phase of one quiz attempt.
type SessionState string

const (
	StateActive             SessionState = "active"
	StatePaused             SessionState = "paused"
	StateTranslationPending SessionState = "translation_pending"
	StateSubmitted          SessionState = "submitted"
)

// ErrTranslationMismatch reports a translation reply whose length does not
// match the request. It is non-fatal: the session stays active and no partial
// translation is shown.
var ErrTranslationMismatch = errors.New("translation reply does not match requested texts")

// Session is the state machine for one timed quiz attempt. It is driven by a
// single thread of control: ticks arrive as explicit events (see Countdown)
// rather than from an internal timer, so the machine needs no locking and is
// testable without wall-clock delay.
type Session struct {
	quiz     Quiz
	settings QuizSettings

	state       SessionState
	current     int
	timeLeft    int       // seconds
	answers     []*string // index-aligned with quiz.Questions, nil = unanswered
	translation []string  // overlay for the current question, nil when absent
	result      *QuizResult
}

// NewSession starts a session at question 0 with the full time budget and
// every answer unset.
func NewSession(quiz Quiz, settings QuizSettings) *Session {
	return &Session{
		quiz:     quiz,
		settings: settings,
		state:    StateActive,
		timeLeft: settings.DurationMinutes * 60,
		answers:  make([]*string, len(quiz.Questions)),
	}
}

// State returns the current session state.
func (s *Session) State() SessionState { return s.state }

// Settings returns the settings the session was created with.
func (s *Session) Settings() QuizSettings { return s.settings }

// TimeLeft returns the remaining time in seconds.
func (s *Session) TimeLeft() int { return s.timeLeft }

// CurrentIndex returns the 0-based index of the question on screen.
func (s *Session) CurrentIndex() int { return s.current }

// CurrentQuestion returns the question on screen.
func (s *Session) CurrentQuestion() Question { return s.quiz.Questions[s.current] }

// Answers returns a copy of the per-question answers; nil entries are
// unanswered.
func (s *Session) Answers() []*string {
	return append([]*string(nil), s.answers...)
}

// Translation returns the translation overlay for the current question, or
// nil if none is showing. When present, the first entry is the question text
// and the rest are the options in order.
func (s *Session) Translation() []string { return s.translation }

// Result returns the QuizResult once the session is submitted, nil before.
func (s *Session) Result() *QuizResult { return s.result }

// Tick consumes one countdown second. Ticks are ignored unless the session is
// active, so a stale tick delivered after pause or submit cannot mutate the
// session. When the clock reaches zero the session submits itself; the result
// is returned so the driving loop can observe the expiry.
func (s *Session) Tick() *QuizResult {
	if s.state != StateActive {
		return nil
	}
	s.timeLeft--
	if s.timeLeft <= 0 {
		s.timeLeft = 0
		return s.Submit()
	}
	return nil
}

// Pause freezes the countdown. No other state changes while paused.
func (s *Session) Pause() {
	if s.state == StateActive {
		s.state = StatePaused
	}
}

// Resume restarts the countdown from the frozen time.
func (s *Session) Resume() {
	if s.state == StatePaused {
		s.state = StateActive
	}
}

// Answer records the user's answer for the current question. The machine
// accepts a write in any non-terminal state; gating input while paused is the
// caller's job (the pause overlay, not the machine, blocks typing).
func (s *Session) Answer(value string) {
	if s.state == StateSubmitted {
		return
	}
	v := value
	s.answers[s.current] = &v
}

// Goto moves to the given question. Out-of-range indexes are silently
// ignored, and moving clears the translation overlay: translations are never
// cached across questions.
func (s *Session) Goto(index int) {
	if s.state == StateSubmitted {
		return
	}
	if index < 0 || index >= len(s.quiz.Questions) {
		return
	}
	s.current = index
	s.translation = nil
}

// Skip advances to the next question. A skipped question is simply an
// unanswered one; no separate marker is recorded.
func (s *Session) Skip() {
	s.Goto(s.current + 1)
}

// Translator is the slice of Provider the session needs for the translation
// overlay.
type Translator interface {
	Translate(ctx context.Context, texts []string, language string) ([]string, error)
}

// Translate fetches the translation overlay for the current question: its
// text plus its options, exactly 1+len(options) strings, expected back in the
// same order. A provider failure or a count mismatch is non-fatal: the session
// returns to active with no overlay. A reply that arrives after the user has
// navigated away is discarded.
func (s *Session) Translate(ctx context.Context, provider Translator, language string) error {
	if s.state != StateActive {
		return nil
	}

	index := s.current
	question := s.quiz.Questions[index]
	texts := append([]string{question.Text}, question.Options...)

	s.state = StateTranslationPending
	translations, err := provider.Translate(ctx, texts, language)
	if s.state == StateTranslationPending {
		s.state = StateActive
	}
	if err != nil {
		return err
	}
	if s.current != index {
		// User moved on while the request was in flight.
		return nil
	}
	if len(translations) != len(texts) {
		return fmt.Errorf("%w: requested %d, got %d", ErrTranslationMismatch, len(texts), len(translations))
	}

	s.translation = translations
	return nil
}

// Submit scores the session and retires it. Submitting is idempotent: the
// second and later calls return the result minted by the first and change
// nothing. A time-expiry submission is indistinguishable from a manual one.
func (s *Session) Submit() *QuizResult {
	if s.state == StateSubmitted {
		return s.result
	}

	score := 0
	for i, answer := range s.answers {
		if answer != nil && *answer == s.quiz.Questions[i].CorrectAnswer {
			score++
		}
	}

	timeTaken := s.settings.DurationMinutes*60 - s.timeLeft
	if timeTaken < 0 {
		timeTaken = 0
	}

	s.result = &QuizResult{
		ID:          newResultID(),
		Quiz:        s.snapshotQuiz(),
		Settings:    s.settings,
		UserAnswers: s.Answers(),
		Score:       score,
		TimeTaken:   timeTaken,
		FolderID:    UncategorizedFolderID,
		Tags:        []string{},
		CreatedAt:   time.Now(),
	}
	s.state = StateSubmitted
	s.translation = nil
	return s.result
}

// snapshotQuiz deep-copies the quiz so the result owns it outright.
func (s *Session) snapshotQuiz() Quiz {
	questions := make([]Question, len(s.quiz.Questions))
	for i, q := range s.quiz.Questions {
		q.Options = append([]string(nil), q.Options...)
		questions[i] = q
	}
	return Quiz{Topic: s.quiz.Topic, Questions: questions}
}
