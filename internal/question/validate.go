package question

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Issue captures a validation problem in a question bank.
type Issue struct {
	Field   string
	Message string
	Err     error
}

// ValidationError reports one or more validation issues.
type ValidationError struct {
	Issues []Issue
}

// Error returns a readable message for validation failures.
func (err *ValidationError) Error() string {
	if err == nil || len(err.Issues) == 0 {
		return ""
	}
	parts := make([]string, 0, len(err.Issues))
	for _, issue := range err.Issues {
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Field, issue.Message))
	}
	return fmt.Sprintf("question bank validation failed: %s", strings.Join(parts, "; "))
}

// Unwrap exposes the distinct sentinel errors so errors.Is can match them.
func (err *ValidationError) Unwrap() []error {
	if err == nil {
		return nil
	}
	seen := map[error]struct{}{}
	out := make([]error, 0, len(err.Issues))
	for _, issue := range err.Issues {
		if issue.Err == nil {
			continue
		}
		if _, ok := seen[issue.Err]; ok {
			continue
		}
		seen[issue.Err] = struct{}{}
		out = append(out, issue.Err)
	}
	return out
}

type issueCollector struct {
	issues []Issue
}

func (collector *issueCollector) add(field, message string, err error) {
	collector.issues = append(collector.issues, Issue{Field: field, Message: message, Err: err})
}

func (collector *issueCollector) result() error {
	if len(collector.issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: collector.issues}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		if name := field.Tag.Get("field"); name != "" {
			return name
		}
		name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})
	return v
}

var fieldErrors = map[string]error{
	"topic":    ErrMissingTopic,
	"question": ErrMissingPrompt,
	"type":     ErrUnknownKind,
	"version":  ErrUnsupportedVersion,
}

// checkStruct runs tag validation on v and records each failure under prefix.
func checkStruct(collector *issueCollector, prefix string, v any) {
	err := validate.Struct(v)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		collector.add(prefix, err.Error(), nil)
		return
	}
	for _, fe := range fieldErrs {
		field := fe.Field()
		if prefix != "" {
			field = prefix + "." + field
		}
		collector.add(field, describeFieldError(fe), fieldErrors[fe.Field()])
	}
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of %s, got %q", strings.ReplaceAll(fe.Param(), " ", ", "), fmt.Sprint(fe.Value()))
	case "eq":
		return fmt.Sprintf("unsupported version %v (want %d)", fe.Value(), BankVersion)
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}

// Validate checks the variant invariants of every question and rejects the
// whole set on any issue.
func Validate(questions []Question) error {
	collector := &issueCollector{}
	checkQuestions(collector, questions)
	return collector.result()
}

func checkQuestions(collector *issueCollector, questions []Question) {
	if len(questions) == 0 {
		collector.add("questions", "must include at least one entry", ErrEmptyBank)
	}
	for i, q := range questions {
		checkQuestion(collector, fmt.Sprintf("questions[%d]", i), q)
	}
}

func checkQuestion(collector *issueCollector, prefix string, q Question) {
	checkStruct(collector, prefix, q)
	if q.Kind != KindMultipleChoice && q.Kind != KindFillBlank {
		return
	}
	checkAnswers(collector, prefix, q)
}

// checkAnswers enforces that exactly the answer fields of q.Kind are set.
func checkAnswers(collector *issueCollector, prefix string, q Question) {
	switch q.Kind {
	case KindMultipleChoice:
		if len(q.Options) < 2 {
			collector.add(prefix+".options", "must include at least two entries", ErrMissingOptions)
		}
		for i, option := range q.Options {
			if strings.TrimSpace(option) == "" {
				collector.add(fmt.Sprintf("%s.options[%d]", prefix, i), "is required", ErrMissingOptions)
			}
		}
		switch {
		case q.CorrectIndex < 0:
			collector.add(prefix+".correct_index", "is required", ErrMissingAnswer)
		case len(q.Options) > 0 && q.CorrectIndex >= len(q.Options):
			collector.add(prefix+".correct_index", fmt.Sprintf("must be between 0 and %d, got %d", len(q.Options)-1, q.CorrectIndex), ErrInvalidCorrectIndex)
		}
		if q.CorrectAnswer != "" {
			collector.add(prefix+".correct_answer", "is not allowed for multiple-choice questions", ErrKindMismatch)
		}
	case KindFillBlank:
		if strings.TrimSpace(q.CorrectAnswer) == "" {
			collector.add(prefix+".correct_answer", "is required", ErrMissingAnswer)
		}
		if len(q.Options) > 0 {
			collector.add(prefix+".options", "is not allowed for fill-blank questions", ErrKindMismatch)
		}
	}
}
