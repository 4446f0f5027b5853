package quizforge

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DocumentPart carries an uploaded source document through to the provider.
type DocumentPart struct {
	MediaType string `json:"media_type"`
	Data      string `json:"data"` // base64-encoded bytes
}

// GenerationRequest is a provider-agnostic quiz generation request: the prompt
// text, the JSON schema the provider should constrain its output to, and the
// optional source document.
type GenerationRequest struct {
	Topic        string               `json:"topic"`
	NumQuestions int                  `json:"num_questions"`
	QuestionType SettingsQuestionType `json:"question_type"`
	Difficulty   Difficulty           `json:"difficulty"`
	Language     string               `json:"language,omitempty"`
	Prompt       string               `json:"prompt"`
	Schema       map[string]any       `json:"schema"`
	Document     *DocumentPart        `json:"document,omitempty"`
}

// BuildGenerationRequest turns settings into a GenerationRequest. It is a pure
// function: no I/O, deterministic for a given settings value. The rule bullets
// in the prompt are hints to the provider; ValidateQuiz remains the authority.
func BuildGenerationRequest(settings QuizSettings) GenerationRequest {
	req := GenerationRequest{
		Topic:        settings.Topic,
		NumQuestions: settings.NumQuestions,
		QuestionType: settings.QuestionType,
		Difficulty:   settings.Difficulty,
		Language:     settings.Language,
		Prompt:       buildPrompt(settings),
		Schema:       quizSchema(),
	}
	if settings.DocumentContent != "" {
		req.Document = &DocumentPart{
			MediaType: DetectMediaType(settings.Topic),
			Data:      settings.DocumentContent,
		}
	}
	return req
}

// DetectMediaType infers a media type from the filename extension held in
// Topic when a document was uploaded. Unrecognized extensions fall back to a
// generic binary type.
func DetectMediaType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}

func buildPrompt(settings QuizSettings) string {
	var sb strings.Builder

	if settings.DocumentContent != "" {
		sb.WriteString(fmt.Sprintf("Generate %d quiz questions derived from the attached document (%s).\n\n",
			settings.NumQuestions, settings.Topic))
	} else {
		sb.WriteString(fmt.Sprintf("Generate %d quiz questions about: %s\n\n",
			settings.NumQuestions, settings.Topic))
	}

	sb.WriteString(fmt.Sprintf("Difficulty level: %s\n\n", settings.Difficulty))

	sb.WriteString("Requirements:\n")
	switch settings.QuestionType {
	case SettingsMultipleChoice:
		sb.WriteString("- Every question must be of type multiple_choice\n")
	case SettingsFillInBlank:
		sb.WriteString("- Every question must be of type fill_in_the_blank\n")
	case SettingsMixed:
		sb.WriteString("- Use a combination of multiple_choice and fill_in_the_blank questions\n")
	}
	sb.WriteString("- Every multiple_choice question must have exactly 4 distinct, non-empty options\n")
	sb.WriteString("- For multiple_choice, correct_answer must exactly match one of the options\n")
	sb.WriteString("- Every fill_in_the_blank question must have an empty options array\n")
	sb.WriteString("- Provide a brief explanation for why each answer is correct\n")
	if settings.DocumentContent != "" {
		sb.WriteString("- Derive every question exclusively from the attached document; do not use outside knowledge\n")
	}
	if settings.Language != "" {
		sb.WriteString(fmt.Sprintf("- Write all question text, options, answers and explanations in %s\n", settings.Language))
	}
	sb.WriteString("- Use the submit_quiz tool to return the quiz\n")

	return sb.String()
}

// quizSchema is the JSON schema the provider is asked to constrain its quiz
// output to.
func quizSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"topic": map[string]any{
				"type":        "string",
				"description": "The quiz topic",
			},
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"question_text": map[string]any{
							"type":        "string",
							"description": "The question text",
						},
						"question_type": map[string]any{
							"type":        "string",
							"enum":        []any{"multiple_choice", "fill_in_the_blank"},
							"description": "The answer format of this question",
						},
						"options": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "string",
							},
							"description": "Exactly 4 options for multiple_choice; empty array for fill_in_the_blank",
						},
						"correct_answer": map[string]any{
							"type":        "string",
							"description": "The correct answer. For multiple_choice it must equal one of the options verbatim.",
						},
						"explanation": map[string]any{
							"type":        "string",
							"description": "Brief explanation of why the answer is correct",
						},
					},
					"required": []any{"question_text", "question_type", "options", "correct_answer", "explanation"},
				},
			},
		},
		"required": []any{"topic", "questions"},
	}
}
