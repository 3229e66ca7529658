package render

import (
	"errors"
	"testing"

	"github.com/verte-zerg/regquiz/internal/question"
)

// TestQuestionBodyMultipleChoice verifies the prompt line and option input.
func TestQuestionBodyMultipleChoice(t *testing.T) {
	q := question.Question{
		Topic:        "GPIO",
		Kind:         question.KindMultipleChoice,
		Prompt:       "Which register sets the pin mode?",
		Resources:    []string{"RM0091 8.4.1"},
		Options:      []string{"GPIOx_MODER", "GPIOx_OTYPER"},
		CorrectIndex: 0,
	}
	view, err := QuestionBody(q)
	if err != nil {
		t.Fatalf("question body: %v", err)
	}
	if view.PromptLine != "(GPIO) Which register sets the pin mode?" {
		t.Fatalf("unexpected prompt line %q", view.PromptLine)
	}
	if view.Input.Kind != InputOptions || len(view.Input.Options) != 2 {
		t.Fatalf("unexpected input %+v", view.Input)
	}
	if len(view.References) != 1 || view.References[0] != "RM0091 8.4.1" {
		t.Fatalf("unexpected references %v", view.References)
	}
	view.Input.Options[0] = "changed"
	if q.Options[0] != "GPIOx_MODER" {
		t.Fatalf("expected options to be copied")
	}
}

// TestQuestionBodyFillBlank verifies free text input.
func TestQuestionBodyFillBlank(t *testing.T) {
	view, err := QuestionBody(question.Question{Topic: "Interrupts", Kind: question.KindFillBlank, Prompt: "Handler?", CorrectAnswer: "TIM7_IRQHandler"})
	if err != nil {
		t.Fatalf("question body: %v", err)
	}
	if view.Input.Kind != InputFreeText || view.Input.Options != nil {
		t.Fatalf("unexpected input %+v", view.Input)
	}
}

// TestQuestionBodyMissingVariantFields verifies malformed questions are rejected.
func TestQuestionBodyMissingVariantFields(t *testing.T) {
	if _, err := QuestionBody(question.Question{Topic: "RCC", Kind: question.KindMultipleChoice, Prompt: "Q"}); !errors.Is(err, question.ErrMissingOptions) {
		t.Fatalf("expected ErrMissingOptions, got %v", err)
	}
	if _, err := QuestionBody(question.Question{Topic: "RCC", Kind: question.KindFillBlank, Prompt: "Q"}); !errors.Is(err, question.ErrMissingAnswer) {
		t.Fatalf("expected ErrMissingAnswer, got %v", err)
	}
}

func TestQuestionBodyUnknownKind(t *testing.T) {
	q := question.Question{Topic: "RCC", Kind: "essay", Prompt: "Q", Options: []string{"a", "b"}}
	if _, err := QuestionBody(q); !errors.Is(err, question.ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}
