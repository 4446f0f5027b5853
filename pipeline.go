package quizforge

import (
	"context"
	"fmt"
	"log"
)

// QuizGenerator runs the content pipeline: settings are turned into a
// generation request, handed to the provider, and the provider's candidate
// payload is parsed and validated before a Quiz is released. No partial quiz
// is ever accepted.
type QuizGenerator struct {
	provider Provider
	logger   *LLMLogger
}

// NewQuizGenerator creates a generator backed by the given provider.
func NewQuizGenerator(provider Provider) *QuizGenerator {
	return &QuizGenerator{provider: provider}
}

// SetLogger attaches a transcript logger for the generation run.
func (qg *QuizGenerator) SetLogger(logger *LLMLogger) {
	qg.logger = logger
	if p, ok := qg.provider.(*OpenAIProvider); ok {
		p.SetLogger(logger)
	}
}

// GenerateQuiz produces a validated Quiz for the given settings, or an error
// describing exactly what went wrong. Provider failures and malformed
// payloads surface as *ProviderError; structural violations surface as
// *ValidationError or ValidationErrors. Nothing is retried automatically.
func (qg *QuizGenerator) GenerateQuiz(ctx context.Context, settings QuizSettings) (*Quiz, error) {
	if err := ValidateSettings(settings); err != nil {
		return nil, err
	}

	log.Printf("Starting quiz generation for topic: %s, target questions: %d", settings.Topic, settings.NumQuestions)

	req := BuildGenerationRequest(settings)

	raw, err := qg.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("quiz generation failed: %w", err)
	}

	candidate, err := ParseCandidate(raw)
	if err != nil {
		return nil, fmt.Errorf("quiz generation failed: %w", err)
	}

	quiz, err := qg.validate(candidate, settings)
	if err != nil {
		return nil, err
	}

	log.Printf("Quiz generation complete: %d questions for topic '%s'", len(quiz.Questions), quiz.Topic)
	return quiz, nil
}

func (qg *QuizGenerator) validate(candidate *CandidateQuiz, settings QuizSettings) (*Quiz, error) {
	quiz, err := ValidateQuiz(candidate)
	if err != nil {
		if qg.logger != nil {
			qg.logger.LogValidation(err.Error())
		}
		return nil, fmt.Errorf("candidate quiz rejected: %w", err)
	}
	if quiz.Topic == "" {
		quiz.Topic = settings.Topic
	}
	if qg.logger != nil {
		qg.logger.LogValidation(fmt.Sprintf("accepted %d questions", len(quiz.Questions)))
	}
	return quiz, nil
}
