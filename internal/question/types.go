// Package question defines quiz questions and loads question banks.
package question

import (
	"errors"
	"strings"

	"github.com/verte-zerg/regquiz/internal/simulation"
)

// Kind discriminates question variants.
type Kind string

const (
	// KindMultipleChoice questions are answered by picking one option.
	KindMultipleChoice Kind = "multiple-choice"
	// KindFillBlank questions are answered with free text.
	KindFillBlank Kind = "fill-blank"
)

// Data errors. Load-time validation reports them inside a ValidationError.
var (
	ErrMissingOptions      = errors.New("multiple-choice question has no options")
	ErrMissingAnswer       = errors.New("question has no correct answer")
	ErrInvalidCorrectIndex = errors.New("correct index does not name an option")
	ErrKindMismatch        = errors.New("answer fields do not match question type")
	ErrMissingTopic        = errors.New("question has no topic")
	ErrMissingPrompt       = errors.New("question has no prompt")
	ErrUnknownKind         = errors.New("unknown question type")
	ErrEmptyBank           = errors.New("question bank has no questions")
	ErrUnsupportedVersion  = errors.New("unsupported question bank version")
)

// Question is one quiz item. Options and CorrectIndex are used by
// multiple-choice questions, CorrectAnswer by fill-blank ones.
type Question struct {
	Topic         string `field:"topic" validate:"notblank"`
	Kind          Kind   `field:"type" validate:"oneof=multiple-choice fill-blank"`
	Prompt        string `field:"question" validate:"notblank"`
	Resources     []string
	Options       []string
	CorrectIndex  int
	CorrectAnswer string
	Explanation   string
	Simulation    simulation.Payload
}

// CorrectAnswerText returns the text of the correct answer for feedback.
func (q Question) CorrectAnswerText() string {
	if q.Kind == KindFillBlank {
		return q.CorrectAnswer
	}
	if q.CorrectIndex >= 0 && q.CorrectIndex < len(q.Options) {
		return q.Options[q.CorrectIndex]
	}
	return ""
}

// NormalizeAnswerText trims whitespace and lowercases an answer for matching.
func NormalizeAnswerText(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
