package quizforge

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testQuiz() Quiz {
	return Quiz{
		Topic: "Go",
		Questions: []Question{
			{
				Text:          "Which keyword starts a goroutine?",
				Type:          TypeMultipleChoice,
				Options:       []string{"go", "run", "spawn", "async"},
				CorrectAnswer: "go",
			},
			{
				Text:          "The builtin ___ appends to a slice.",
				Type:          TypeFillInBlank,
				Options:       []string{},
				CorrectAnswer: "append",
			},
			{
				Text:          "Which type is a channel?",
				Type:          TypeMultipleChoice,
				Options:       []string{"chan int", "int", "map", "slice"},
				CorrectAnswer: "chan int",
			},
		},
	}
}

func testSettings() QuizSettings {
	return QuizSettings{
		Topic:           "Go",
		NumQuestions:    3,
		QuestionType:    SettingsMixed,
		Difficulty:      DifficultyEasy,
		DurationMinutes: 1,
	}
}

// fakeTranslator returns canned translations or a canned error.
type fakeTranslator struct {
	reply    []string
	err      error
	requests [][]string
	onCall   func(s *Session) // runs mid-flight, before returning
	session  *Session
}

func (f *fakeTranslator) Translate(ctx context.Context, texts []string, language string) ([]string, error) {
	f.requests = append(f.requests, texts)
	if f.onCall != nil {
		f.onCall(f.session)
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.reply != nil {
		return f.reply, nil
	}
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = "[" + language + "] " + t
	}
	return out, nil
}

func TestNewSessionInitialState(t *testing.T) {
	s := NewSession(testQuiz(), testSettings())

	assert.Equal(t, StateActive, s.State())
	assert.Equal(t, 0, s.CurrentIndex())
	assert.Equal(t, 60, s.TimeLeft())
	require.Len(t, s.Answers(), 3)
	for _, a := range s.Answers() {
		assert.Nil(t, a)
	}
}

func TestTickCountsDownAndSubmitsAtZero(t *testing.T) {
	s := NewSession(testQuiz(), testSettings())
	s.Answer("go")

	var result *QuizResult
	for i := 0; i < 60; i++ {
		assert.Nil(t, result)
		result = s.Tick()
	}

	require.NotNil(t, result, "reaching zero must submit")
	assert.Equal(t, StateSubmitted, s.State())
	assert.Equal(t, 0, s.TimeLeft())
	assert.Equal(t, 1, result.Score)
	assert.Equal(t, 60, result.TimeTaken)
}

func TestExpirySubmitMatchesManualSubmit(t *testing.T) {
	answers := func(s *Session) {
		s.Answer("go")
		s.Goto(1)
		s.Answer("append")
	}

	manual := NewSession(testQuiz(), testSettings())
	answers(manual)
	manualResult := manual.Submit()

	expired := NewSession(testQuiz(), testSettings())
	answers(expired)
	var expiredResult *QuizResult
	for expiredResult == nil {
		expiredResult = expired.Tick()
	}

	assert.Equal(t, manualResult.Score, expiredResult.Score)
	assert.Equal(t, manualResult.UserAnswers, expiredResult.UserAnswers)
}

func TestPauseFreezesCountdown(t *testing.T) {
	s := NewSession(testQuiz(), testSettings())

	s.Pause()
	assert.Equal(t, StatePaused, s.State())
	for i := 0; i < 10; i++ {
		assert.Nil(t, s.Tick())
	}
	assert.Equal(t, 60, s.TimeLeft(), "ticks while paused must not change timeLeft")

	s.Resume()
	for i := 0; i < 10; i++ {
		s.Tick()
	}
	assert.Equal(t, 50, s.TimeLeft())
}

func TestAnswerAcceptedWhilePaused(t *testing.T) {
	// The pause overlay blocks input in the UI; the machine itself accepts a
	// write in any non-terminal state.
	s := NewSession(testQuiz(), testSettings())
	s.Pause()
	s.Answer("go")
	require.NotNil(t, s.Answers()[0])
	assert.Equal(t, "go", *s.Answers()[0])
}

func TestGotoBoundsAndSkip(t *testing.T) {
	s := NewSession(testQuiz(), testSettings())

	s.Goto(-1)
	assert.Equal(t, 0, s.CurrentIndex())
	s.Goto(3)
	assert.Equal(t, 0, s.CurrentIndex())

	s.Skip()
	assert.Equal(t, 1, s.CurrentIndex())
	s.Skip()
	assert.Equal(t, 2, s.CurrentIndex())
	s.Skip() // past the end, ignored
	assert.Equal(t, 2, s.CurrentIndex())

	result := s.Submit()
	for _, a := range result.UserAnswers {
		assert.Nil(t, a, "skipped questions are plain unanswered entries")
	}
}

func TestSubmitIsIdempotent(t *testing.T) {
	s := NewSession(testQuiz(), testSettings())
	s.Answer("go")

	first := s.Submit()
	second := s.Submit()

	assert.Same(t, first, second, "second submit must not mint a new result")

	// A retired session accepts no further mutations.
	s.Answer("chan int")
	s.Goto(2)
	s.Tick()
	assert.Equal(t, 0, s.CurrentIndex())
	assert.Equal(t, 1, first.Score)
}

func TestSubmitScoringAndTimeTaken(t *testing.T) {
	s := NewSession(testQuiz(), testSettings())
	for i := 0; i < 25; i++ {
		s.Tick()
	}
	s.Answer("go")
	s.Goto(1)
	s.Answer("Append") // exact match only, case matters
	s.Goto(2)
	s.Answer("chan int")

	result := s.Submit()
	assert.Equal(t, 2, result.Score)
	assert.Equal(t, 25, result.TimeTaken)
	assert.Equal(t, UncategorizedFolderID, result.FolderID)
	assert.Empty(t, result.Tags)
	assert.NotEmpty(t, result.ID)
}

func TestTimeTakenIsMonotonicAndBounded(t *testing.T) {
	limit := testSettings().DurationMinutes * 60
	previous := -1
	for ticks := 0; ticks <= limit; ticks += 15 {
		s := NewSession(testQuiz(), testSettings())
		var result *QuizResult
		for i := 0; i < ticks && result == nil; i++ {
			result = s.Tick()
		}
		if result == nil {
			result = s.Submit()
		}
		assert.GreaterOrEqual(t, result.TimeTaken, previous)
		assert.LessOrEqual(t, result.TimeTaken, limit)
		previous = result.TimeTaken
	}
}

func TestResultOwnsSnapshots(t *testing.T) {
	quiz := testQuiz()
	s := NewSession(quiz, testSettings())
	result := s.Submit()

	quiz.Questions[0].Options[0] = "mutated"
	quiz.Questions[0].CorrectAnswer = "mutated"

	assert.Equal(t, "go", result.Quiz.Questions[0].Options[0])
	assert.Equal(t, "go", result.Quiz.Questions[0].CorrectAnswer)
}

func TestTranslateRequestsQuestionPlusOptions(t *testing.T) {
	s := NewSession(testQuiz(), testSettings())
	translator := &fakeTranslator{}

	err := s.Translate(context.Background(), translator, "German")
	require.NoError(t, err)

	require.Len(t, translator.requests, 1)
	assert.Len(t, translator.requests[0], 5, "4-option question asks for exactly 5 strings")

	overlay := s.Translation()
	require.Len(t, overlay, 5)
	assert.Equal(t, "[German] Which keyword starts a goroutine?", overlay[0])
	assert.Equal(t, StateActive, s.State())
}

func TestTranslateFillInBlankRequestsSingleString(t *testing.T) {
	s := NewSession(testQuiz(), testSettings())
	s.Goto(1)
	translator := &fakeTranslator{}

	require.NoError(t, s.Translate(context.Background(), translator, "French"))
	require.Len(t, translator.requests, 1)
	assert.Len(t, translator.requests[0], 1)
}

func TestTranslateMismatchIsNonFatal(t *testing.T) {
	s := NewSession(testQuiz(), testSettings())
	translator := &fakeTranslator{reply: []string{"a", "b", "c", "d"}} // one short

	err := s.Translate(context.Background(), translator, "German")
	require.ErrorIs(t, err, ErrTranslationMismatch)
	assert.Nil(t, s.Translation(), "no partial translation is shown")
	assert.Equal(t, StateActive, s.State(), "session continues")
}

func TestTranslateProviderFailureIsNonFatal(t *testing.T) {
	s := NewSession(testQuiz(), testSettings())
	translator := &fakeTranslator{err: &ProviderError{Op: "translate", Err: errors.New("boom")}}

	err := s.Translate(context.Background(), translator, "German")
	require.Error(t, err)
	assert.Nil(t, s.Translation())
	assert.Equal(t, StateActive, s.State())
}

func TestTranslateLateReplyForAbandonedQuestionIsDiscarded(t *testing.T) {
	s := NewSession(testQuiz(), testSettings())
	translator := &fakeTranslator{session: s}
	translator.onCall = func(sess *Session) {
		// User navigates away while the request is in flight.
		sess.current = 2
	}

	err := s.Translate(context.Background(), translator, "German")
	require.NoError(t, err)
	assert.Nil(t, s.Translation(), "late reply for an abandoned question is discarded")
}

func TestNavigationClearsTranslationOverlay(t *testing.T) {
	s := NewSession(testQuiz(), testSettings())
	require.NoError(t, s.Translate(context.Background(), &fakeTranslator{}, "German"))
	require.NotNil(t, s.Translation())

	s.Goto(1)
	assert.Nil(t, s.Translation(), "translations are never cached across questions")
}

func TestEndToEndFillInBlankSession(t *testing.T) {
	quiz := Quiz{
		Topic: "Photosynthesis",
		Questions: []Question{
			{Text: "Plants absorb ___ from the air.", Type: TypeFillInBlank, Options: []string{}, CorrectAnswer: "carbon dioxide"},
			{Text: "Photosynthesis happens in the ___.", Type: TypeFillInBlank, Options: []string{}, CorrectAnswer: "chloroplast"},
		},
	}
	settings := QuizSettings{
		Topic:           "Photosynthesis",
		NumQuestions:    2,
		QuestionType:    SettingsFillInBlank,
		Difficulty:      DifficultyEasy,
		DurationMinutes: 1,
	}

	s := NewSession(quiz, settings)
	assert.Equal(t, 60, s.TimeLeft())

	for i := 0; i < 12; i++ {
		s.Tick()
	}
	s.Answer("carbon dioxide")
	s.Goto(1)
	s.Answer("mitochondria")

	result := s.Submit()
	assert.Equal(t, 1, result.Score)
	assert.Less(t, result.TimeTaken, 60)
}

func TestResultIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s := NewSession(testQuiz(), testSettings())
		id := s.Submit().ID
		require.False(t, seen[id], fmt.Sprintf("duplicate id %s", id))
		seen[id] = true
	}
}
