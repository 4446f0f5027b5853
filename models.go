package quizforge

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	validator "github.com/go-playground/validator"
)

// QuestionType tags the answer format of a single question.
type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeFillInBlank    QuestionType = "fill_in_the_blank"
)

// SettingsQuestionType is the requested question mix for a whole quiz.
type SettingsQuestionType string

const (
	SettingsMultipleChoice SettingsQuestionType = "Multiple Choice"
	SettingsFillInBlank    SettingsQuestionType = "Fill in the Blank"
	SettingsMixed          SettingsQuestionType = "Mixed"
)

// Difficulty levels accepted by the generator.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// QuizSettings is the immutable generation request as entered by the user.
// When a document is uploaded, Topic holds the document's display name and
// DocumentContent holds its base64-encoded bytes.
type QuizSettings struct {
	Topic           string               `json:"topic" validate:"required"`
	DocumentContent string               `json:"document_content,omitempty"`
	NumQuestions    int                  `json:"num_questions" validate:"required,gt=0"`
	QuestionType    SettingsQuestionType `json:"question_type" validate:"required"`
	Difficulty      Difficulty           `json:"difficulty" validate:"required,oneof=Easy Medium Hard"`
	DurationMinutes int                  `json:"duration" validate:"required,gt=0"`
	Language        string               `json:"language"` // empty means source language
}

var settingsValidator = validator.New()

// ValidateSettings checks a QuizSettings value before it enters the pipeline.
// The question type check is manual because its values contain spaces, which
// the oneof tag cannot express.
func ValidateSettings(s QuizSettings) error {
	if strings.TrimSpace(s.Topic) == "" {
		return fmt.Errorf("invalid quiz settings: topic is required")
	}
	if err := settingsValidator.Struct(s); err != nil {
		return fmt.Errorf("invalid quiz settings: %w", err)
	}
	switch s.QuestionType {
	case SettingsMultipleChoice, SettingsFillInBlank, SettingsMixed:
	default:
		return fmt.Errorf("invalid quiz settings: unknown question type %q", s.QuestionType)
	}
	return nil
}

// Question is a single validated quiz question.
//
// Invariants (enforced by ValidateQuiz): Text is non-empty; for
// multiple_choice there are exactly 4 distinct non-empty options and
// CorrectAnswer equals one of them verbatim; for fill_in_the_blank Options
// is empty.
type Question struct {
	Text          string       `json:"question_text"`
	Type          QuestionType `json:"question_type"`
	Options       []string     `json:"options"`
	CorrectAnswer string       `json:"correct_answer"`
	Explanation   string       `json:"explanation"`
}

// Quiz is a validated, immutable set of questions.
type Quiz struct {
	Topic     string     `json:"topic"`
	Questions []Question `json:"questions"`
}

// QuizResult is the scored outcome of one submitted session. It owns full
// copies of the quiz and settings so a retake reproduces the exact original
// quiz rather than a re-generated one.
type QuizResult struct {
	ID          string       `json:"id"`
	Quiz        Quiz         `json:"quiz"`
	Settings    QuizSettings `json:"settings"`
	UserAnswers []*string    `json:"user_answers"` // index-aligned, nil = unanswered
	Score       int          `json:"score"`
	TimeTaken   int          `json:"time_taken"` // seconds
	FolderID    string       `json:"folder_id"`
	Tags        []string     `json:"tags"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Folder groups quiz results in the history view.
type Folder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// UncategorizedFolderID is the reserved id of the sentinel folder that always
// exists and cannot be deleted.
const UncategorizedFolderID = "uncategorized"

// UncategorizedFolderName is the display name of the sentinel folder.
const UncategorizedFolderName = "Uncategorized"

const idCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

// newResultID mints a unique, roughly monotonically increasing result id.
func newResultID() string {
	b := make([]byte, 6)
	for i := range b {
		b[i] = idCharset[rand.Intn(len(idCharset))]
	}
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), string(b))
}
