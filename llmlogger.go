package quizforge

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LLMLogger writes a transcript of all provider interactions for one
// generation run to a file under log/.
type LLMLogger struct {
	file  *os.File
	mu    sync.Mutex
	runID string
}

// NewLLMLogger creates a transcript logger for a generation run.
func NewLLMLogger(runID string, settings QuizSettings) (*LLMLogger, error) {
	if err := os.MkdirAll("log", 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	filename := filepath.Join("log", fmt.Sprintf("%s.log", runID))
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	logger := &LLMLogger{
		file:  file,
		runID: runID,
	}

	logger.Logf("=== Quiz Generation Log ===\n")
	logger.Logf("Run ID: %s\n", runID)
	logger.Logf("Topic: %s\n", settings.Topic)
	logger.Logf("Number of Questions: %d\n", settings.NumQuestions)
	logger.Logf("Question Type: %s\n", settings.QuestionType)
	logger.Logf("Difficulty: %s\n", settings.Difficulty)
	logger.Logf("Duration: %d minutes\n", settings.DurationMinutes)
	if settings.Language != "" {
		logger.Logf("Language: %s\n", settings.Language)
	}
	if settings.DocumentContent != "" {
		logger.Logf("Document Length: %d base64 characters\n", len(settings.DocumentContent))
	}
	logger.Logf("Started: %s\n", time.Now().Format(time.RFC3339))
	logger.Logf("========================\n\n")

	return logger, nil
}

// Logf writes a formatted log entry with timestamp.
func (ll *LLMLogger) Logf(format string, args ...interface{}) {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	timestamp := time.Now().Format("15:04:05.000")
	message := fmt.Sprintf(format, args...)

	fmt.Fprintf(ll.file, "[%s] %s", timestamp, message)
	ll.file.Sync()
}

// LogLLMRequest logs an outgoing provider request.
func (ll *LLMLogger) LogLLMRequest(op, prompt string) {
	ll.Logf("=== LLM REQUEST (%s) ===\n", op)
	ll.Logf("Prompt:\n%s\n", prompt)
	ll.Logf("=====================\n\n")
}

// LogLLMResponse logs a provider response.
func (ll *LLMLogger) LogLLMResponse(op, response string) {
	ll.Logf("=== LLM RESPONSE (%s) ===\n", op)
	ll.Logf("Response:\n%s\n", response)
	ll.Logf("======================\n\n")
}

// LogValidation logs the validator's verdict on a candidate quiz.
func (ll *LLMLogger) LogValidation(verdict string) {
	ll.Logf("Validation: %s\n", verdict)
}

// Close writes the trailer and closes the log file.
func (ll *LLMLogger) Close() error {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	if ll.file != nil {
		fmt.Fprintf(ll.file, "[%s] === Quiz Generation Complete ===\n", time.Now().Format("15:04:05.000"))
		fmt.Fprintf(ll.file, "[%s] Completed: %s\n", time.Now().Format("15:04:05.000"), time.Now().Format(time.RFC3339))
		return ll.file.Close()
	}
	return nil
}
