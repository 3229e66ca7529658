//go:build cucumber

package quiz

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/verte-zerg/regquiz/internal/question"
)

// TestSessionFeatures executes the session feature scenarios via godog.
func TestSessionFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "session",
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:    "pretty",
			Paths:     []string{filepath.Join("features", "session.feature")},
			Strict:    true,
			TestingT:  t,
			Randomize: 0,
		},
	}
	if suite.Run() != 0 {
		t.Fatalf("non-zero godog status")
	}
}

// InitializeScenario wires step definitions for the session feature tests.
func InitializeScenario(ctx *godog.ScenarioContext) {
	state := &sessionState{}
	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		state.reset()
		return ctx, nil
	})

	ctx.Step(`^a bank with questions:$`, state.givenBank)
	ctx.Step(`^I start a session with topics "([^"]*)"$`, state.startSession)
	ctx.Step(`^starting fails with an empty pool$`, state.startFailedEmpty)
	ctx.Step(`^the session has (\d+) questions$`, state.sessionHasQuestions)
	ctx.Step(`^I answer "([^"]*)"$`, state.answerText)
	ctx.Step(`^I submit without a selection$`, state.submitNothing)
	ctx.Step(`^I choose option (\d+)( again)?$`, state.chooseOption)
	ctx.Step(`^the answer is (correct|incorrect)$`, state.answerIs)
	ctx.Step(`^the second submission is rejected$`, state.secondRejected)
	ctx.Step(`^the score is (\d+)$`, state.scoreIs)
	ctx.Step(`^I answer every question correctly except topic "([^"]+)" once$`, state.answerAllExcept)
	ctx.Step(`^the session is finished$`, state.sessionFinished)
	ctx.Step(`^the breakdown is:$`, state.breakdownIs)
}

// sessionState holds scenario state for the feature tests.
type sessionState struct {
	bank      []question.Question
	session   *Session
	startErr  error
	outcome   Outcome
	repeatErr error
}

// reset clears the scenario state.
func (s *sessionState) reset() {
	s.bank = nil
	s.session = nil
	s.startErr = nil
	s.outcome = Outcome{}
	s.repeatErr = nil
}

// givenBank builds the master question set from a table.
func (s *sessionState) givenBank(table *godog.Table) error {
	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		if len(row.Cells) != 4 {
			return fmt.Errorf("row %d: expected 4 cells", i)
		}
		topic, kind, options, correct := row.Cells[0].Value, row.Cells[1].Value, row.Cells[2].Value, row.Cells[3].Value
		q := question.Question{Topic: topic, Kind: question.Kind(kind), Prompt: fmt.Sprintf("question %d", i), CorrectIndex: -1}
		switch q.Kind {
		case question.KindMultipleChoice:
			idx, err := strconv.Atoi(correct)
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			q.Options = strings.Split(options, ",")
			q.CorrectIndex = idx
		case question.KindFillBlank:
			q.CorrectAnswer = correct
		default:
			return fmt.Errorf("row %d: unknown type %q", i, kind)
		}
		s.bank = append(s.bank, q)
	}
	return question.Validate(s.bank)
}

// startSession starts a session with a comma separated topic list.
func (s *sessionState) startSession(topics string) error {
	var selection []string
	if topics != "" {
		selection = strings.Split(topics, ",")
	}
	s.session, s.startErr = Start(selection, s.bank, NewShuffler(1))
	return nil
}

func (s *sessionState) startFailedEmpty() error {
	if !errors.Is(s.startErr, ErrEmptyPool) {
		return fmt.Errorf("expected ErrEmptyPool, got %v", s.startErr)
	}
	return nil
}

func (s *sessionState) requireSession() error {
	if s.startErr != nil {
		return fmt.Errorf("session did not start: %w", s.startErr)
	}
	return nil
}

func (s *sessionState) sessionHasQuestions(n int) error {
	if err := s.requireSession(); err != nil {
		return err
	}
	if s.session.Total() != n {
		return fmt.Errorf("expected %d questions, got %d", n, s.session.Total())
	}
	return nil
}

func (s *sessionState) answerText(input string) error {
	if err := s.requireSession(); err != nil {
		return err
	}
	var err error
	s.outcome, err = s.session.Submit(Text(input))
	return err
}

func (s *sessionState) submitNothing() error {
	if err := s.requireSession(); err != nil {
		return err
	}
	var err error
	s.outcome, err = s.session.SubmitPending()
	return err
}

// chooseOption selects and submits an option; a repeated choice records the error.
func (s *sessionState) chooseOption(index int, again string) error {
	if err := s.requireSession(); err != nil {
		return err
	}
	if again != "" {
		_, s.repeatErr = s.session.Submit(Choice(index))
		return nil
	}
	if err := s.session.Select(index); err != nil {
		return err
	}
	var err error
	s.outcome, err = s.session.SubmitPending()
	return err
}

func (s *sessionState) answerIs(result string) error {
	if want := result == "correct"; s.outcome.Correct != want {
		return fmt.Errorf("expected answer to be %s", result)
	}
	return nil
}

func (s *sessionState) secondRejected() error {
	if !errors.Is(s.repeatErr, ErrAlreadyAnswered) {
		return fmt.Errorf("expected ErrAlreadyAnswered, got %v", s.repeatErr)
	}
	return nil
}

func (s *sessionState) scoreIs(score int) error {
	if s.session.Score() != score {
		return fmt.Errorf("expected score %d, got %d", score, s.session.Score())
	}
	return nil
}

// answerAllExcept walks the run, missing the first question of topic.
func (s *sessionState) answerAllExcept(topic string) error {
	if err := s.requireSession(); err != nil {
		return err
	}
	missed := false
	for !s.session.Finished() {
		q, err := s.session.Current()
		if err != nil {
			return err
		}
		response := Choice(q.CorrectIndex)
		if q.Kind == question.KindFillBlank {
			response = Text(q.CorrectAnswer)
		}
		if q.Topic == topic && !missed {
			missed = true
			response = NoSelection()
		}
		if _, err := s.session.Submit(response); err != nil {
			return err
		}
		if _, err := s.session.Advance(); err != nil {
			return err
		}
	}
	return nil
}

func (s *sessionState) sessionFinished() error {
	if !s.session.Finished() {
		return fmt.Errorf("expected session to be finished at position %d", s.session.Position())
	}
	return nil
}

// breakdownIs compares the breakdown with a table.
func (s *sessionState) breakdownIs(table *godog.Table) error {
	got := s.session.Breakdown()
	if len(got) != len(table.Rows)-1 {
		return fmt.Errorf("expected %d topics, got %v", len(table.Rows)-1, got)
	}
	for i, row := range table.Rows[1:] {
		want := fmt.Sprintf("%s %s/%s %s", row.Cells[0].Value, row.Cells[1].Value, row.Cells[2].Value, row.Cells[3].Value)
		have := fmt.Sprintf("%s %d/%d %d", got[i].Topic, got[i].Correct, got[i].Total, got[i].Percentage)
		if want != have {
			return fmt.Errorf("row %d: expected %s, got %s", i+1, want, have)
		}
	}
	return nil
}
