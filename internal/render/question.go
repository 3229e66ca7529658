// Package render turns questions and simulations into display view-models.
// It holds no state and produces no markup: rich text is passed through as
// authored for the UI to style.
package render

import (
	"fmt"

	"github.com/verte-zerg/regquiz/internal/question"
)

// InputKind selects the answer control for a question.
type InputKind int

const (
	// InputOptions shows a list of selectable options.
	InputOptions InputKind = iota
	// InputFreeText shows a single text field.
	InputFreeText
)

// InputSpec describes the answer control.
type InputSpec struct {
	Kind    InputKind
	Options []string
}

// QuestionView is the display projection of a question.
type QuestionView struct {
	Topic      string
	Prompt     string
	PromptLine string
	References []string
	Input      InputSpec
}

// QuestionBody projects q into a QuestionView. It fails when the variant
// fields required to answer q are missing.
func QuestionBody(q question.Question) (QuestionView, error) {
	view := QuestionView{
		Topic:      q.Topic,
		Prompt:     q.Prompt,
		PromptLine: fmt.Sprintf("(%s) %s", q.Topic, q.Prompt),
		References: append([]string(nil), q.Resources...),
	}
	switch q.Kind {
	case question.KindFillBlank:
		if q.CorrectAnswer == "" {
			return QuestionView{}, question.ErrMissingAnswer
		}
		view.Input = InputSpec{Kind: InputFreeText}
	case question.KindMultipleChoice:
		if len(q.Options) == 0 {
			return QuestionView{}, question.ErrMissingOptions
		}
		view.Input = InputSpec{Kind: InputOptions, Options: append([]string(nil), q.Options...)}
	default:
		return QuestionView{}, fmt.Errorf("%w: %q", question.ErrUnknownKind, q.Kind)
	}
	return view, nil
}
