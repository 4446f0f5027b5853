package quizforge

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CandidateQuiz is the untrusted shape returned by the content provider.
// Nothing in it is assumed to be present or well-formed until ValidateQuiz
// has accepted it.
type CandidateQuiz struct {
	Topic     string              `json:"topic"`
	Questions []CandidateQuestion `json:"questions"`
}

// CandidateQuestion mirrors Question but with no invariants attached.
type CandidateQuestion struct {
	Text          string   `json:"question_text"`
	Type          string   `json:"question_type"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation"`
}

// ValidationKind identifies which structural invariant a candidate violated.
type ValidationKind string

const (
	ErrEmptyQuiz           ValidationKind = "empty_quiz"
	ErrUnknownQuestionType ValidationKind = "unknown_question_type"
	ErrEmptyQuestionText   ValidationKind = "empty_question_text"
	ErrInvalidOptions      ValidationKind = "invalid_options"
	ErrAnswerNotInOptions  ValidationKind = "answer_not_in_options"
)

// ValidationError reports one violated invariant. Question is the 0-based
// index of the offending question, or -1 for quiz-level errors.
type ValidationError struct {
	Kind     ValidationKind
	Question int
	Detail   string
}

func (e *ValidationError) Error() string {
	if e.Question < 0 {
		return fmt.Sprintf("invalid quiz: %s: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("invalid quiz: question %d: %s: %s", e.Question+1, e.Kind, e.Detail)
}

// ValidationErrors aggregates one error per offending question so the caller
// can report exactly which questions failed.
type ValidationErrors []*ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return strings.Join(msgs, "; ")
}

// ParseCandidate decodes a raw provider payload into a CandidateQuiz.
// A payload that is not valid JSON, or not an object with a questions array,
// is a provider fault, not a validation fault.
func ParseCandidate(data []byte) (*CandidateQuiz, error) {
	var candidate CandidateQuiz
	if err := json.Unmarshal(data, &candidate); err != nil {
		return nil, &ProviderError{Op: "generate", Err: fmt.Errorf("malformed payload: %w", err)}
	}
	if candidate.Questions == nil {
		return nil, &ProviderError{Op: "generate", Err: fmt.Errorf("payload missing questions array")}
	}
	return &candidate, nil
}

// ValidateQuiz checks every structural invariant of a candidate quiz and
// returns the trusted Quiz, or an error describing exactly what failed.
//
// Checks run per question in declaration order, recording the first violation
// for each question and then moving on, so a multi-question report names every
// bad question. An unknown question type aborts immediately: once the tag is
// unrecognized the rest of the payload cannot be trusted. Fill-in-the-blank
// options are forced to empty regardless of what the candidate supplied; that
// is a repair, not a rejection. Malformed multiple-choice data is never
// repaired, because fabricating options or a correct answer would corrupt the
// scoring contract.
func ValidateQuiz(candidate *CandidateQuiz) (*Quiz, error) {
	if len(candidate.Questions) == 0 {
		return nil, &ValidationError{Kind: ErrEmptyQuiz, Question: -1, Detail: "quiz has no questions"}
	}

	var errs ValidationErrors
	questions := make([]Question, 0, len(candidate.Questions))

	for i, cq := range candidate.Questions {
		text := strings.TrimSpace(cq.Text)
		if text == "" {
			errs = append(errs, &ValidationError{Kind: ErrEmptyQuestionText, Question: i, Detail: "question text is empty"})
			continue
		}

		switch QuestionType(cq.Type) {
		case TypeMultipleChoice:
			if ve := checkOptions(i, cq); ve != nil {
				errs = append(errs, ve)
				continue
			}
			questions = append(questions, Question{
				Text:          text,
				Type:          TypeMultipleChoice,
				Options:       append([]string(nil), cq.Options...),
				CorrectAnswer: cq.CorrectAnswer,
				Explanation:   cq.Explanation,
			})

		case TypeFillInBlank:
			// Normalization, not rejection: whatever options the candidate
			// supplied are dropped.
			questions = append(questions, Question{
				Text:          text,
				Type:          TypeFillInBlank,
				Options:       []string{},
				CorrectAnswer: cq.CorrectAnswer,
				Explanation:   cq.Explanation,
			})

		default:
			return nil, &ValidationError{
				Kind:     ErrUnknownQuestionType,
				Question: i,
				Detail:   fmt.Sprintf("unrecognized question type %q", cq.Type),
			}
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return &Quiz{Topic: candidate.Topic, Questions: questions}, nil
}

// checkOptions enforces the multiple-choice option invariants: exactly 4
// non-empty, pairwise-distinct options, with the correct answer present
// verbatim among them.
func checkOptions(index int, cq CandidateQuestion) *ValidationError {
	if len(cq.Options) != 4 {
		return &ValidationError{
			Kind:     ErrInvalidOptions,
			Question: index,
			Detail:   fmt.Sprintf("expected 4 options, got %d", len(cq.Options)),
		}
	}
	seen := make(map[string]bool, 4)
	for _, opt := range cq.Options {
		if strings.TrimSpace(opt) == "" {
			return &ValidationError{Kind: ErrInvalidOptions, Question: index, Detail: "empty option"}
		}
		if seen[opt] {
			return &ValidationError{
				Kind:     ErrInvalidOptions,
				Question: index,
				Detail:   fmt.Sprintf("duplicate option %q", opt),
			}
		}
		seen[opt] = true
	}
	if !seen[cq.CorrectAnswer] {
		return &ValidationError{
			Kind:     ErrAnswerNotInOptions,
			Question: index,
			Detail:   fmt.Sprintf("correct answer %q is not one of the options", cq.CorrectAnswer),
		}
	}
	return nil
}
