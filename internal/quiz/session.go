// Package quiz runs one quiz session: topic filtering, shuffling, scoring,
// and the per-topic breakdown shown when the run finishes.
package quiz

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/regquiz/internal/question"
)

// AllTopics selects every question of the bank.
const AllTopics = "all"

var (
	// ErrEmptyPool reports that the topic selection matched no questions.
	ErrEmptyPool = errors.New("no questions match the selected topics")
	// ErrOutOfRange reports access past the end of the pool.
	ErrOutOfRange = errors.New("no question at this position")
	// ErrTypeMismatch reports a response that does not fit the question kind.
	ErrTypeMismatch = errors.New("response does not match question type")
	// ErrAlreadyAnswered reports a second submission for the same question.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrInvalidOption reports an option index outside the options list.
	ErrInvalidOption = errors.New("option index out of range")
)

type responseKind int

const (
	responseNone responseKind = iota
	responseChoice
	responseText
)

// Response is a user's answer to the current question.
type Response struct {
	kind  responseKind
	index int
	text  string
}

// Choice answers a multiple-choice question with the option at index.
func Choice(index int) Response { return Response{kind: responseChoice, index: index} }

// NoSelection submits a multiple-choice question with nothing selected.
func NoSelection() Response { return Response{kind: responseNone} }

// Text answers a fill-blank question.
func Text(s string) Response { return Response{kind: responseText, text: s} }

// Outcome is the result of one submission.
type Outcome struct {
	Correct              bool
	CorrectAnswerDisplay string
	Given                string
	Explanation          string
}

// Answer is one entry of the answer log.
type Answer struct {
	Topic   string
	Correct bool
	Given   string
}

// State is returned by Advance. Next is only set while the run is in progress.
type State struct {
	Finished bool
	Next     question.Question
}

// Session holds the state of a single quiz run. A Session is owned by one
// caller and is not safe for concurrent use.
type Session struct {
	id        string
	startedAt time.Time
	selection []string
	pool      []question.Question
	position  int
	score     int
	answers   map[int]Answer
	pending   int
}

// Start builds a session over the questions of master whose topic is in
// topics. An empty selection, or one containing AllTopics, uses every
// question. The pool is shuffled with sh; a nil sh seeds from the clock.
func Start(topics []string, master []question.Question, sh *Shuffler) (*Session, error) {
	selection := normalizeSelection(topics)
	pool := filterPool(selection, master)
	if len(pool) == 0 {
		if len(selection) == 0 {
			return nil, ErrEmptyPool
		}
		return nil, fmt.Errorf("%w: %s", ErrEmptyPool, strings.Join(selection, ", "))
	}
	if sh == nil {
		sh = NewTimeShuffler()
	}
	sh.Permute(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	return &Session{
		id:        uuid.NewString(),
		startedAt: time.Now(),
		selection: selection,
		pool:      pool,
		answers:   make(map[int]Answer, len(pool)),
		pending:   -1,
	}, nil
}

// normalizeSelection trims and deduplicates topics. A nil result means all
// topics.
func normalizeSelection(topics []string) []string {
	seen := make(map[string]struct{}, len(topics))
	selection := make([]string, 0, len(topics))
	for _, topic := range topics {
		topic = strings.TrimSpace(topic)
		if topic == "" {
			continue
		}
		if strings.EqualFold(topic, AllTopics) {
			return nil
		}
		if _, ok := seen[topic]; ok {
			continue
		}
		seen[topic] = struct{}{}
		selection = append(selection, topic)
	}
	if len(selection) == 0 {
		return nil
	}
	sort.Strings(selection)
	return selection
}

func filterPool(selection []string, master []question.Question) []question.Question {
	if len(selection) == 0 {
		return append([]question.Question(nil), master...)
	}
	wanted := make(map[string]struct{}, len(selection))
	for _, topic := range selection {
		wanted[topic] = struct{}{}
	}
	pool := make([]question.Question, 0, len(master))
	for _, q := range master {
		if _, ok := wanted[q.Topic]; ok {
			pool = append(pool, q)
		}
	}
	return pool
}

// ID returns the run identifier.
func (s *Session) ID() string { return s.id }

// StartedAt returns when the session was created.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// Selection returns the normalized topic selection; nil means all topics.
func (s *Session) Selection() []string { return append([]string(nil), s.selection...) }

// Topics returns the distinct topics in the pool, sorted.
func (s *Session) Topics() []string {
	seen := make(map[string]struct{})
	topics := make([]string, 0)
	for _, q := range s.pool {
		if _, ok := seen[q.Topic]; ok {
			continue
		}
		seen[q.Topic] = struct{}{}
		topics = append(topics, q.Topic)
	}
	sort.Strings(topics)
	return topics
}

// Score returns the number of correct answers so far.
func (s *Session) Score() int { return s.score }

// Total returns the pool size.
func (s *Session) Total() int { return len(s.pool) }

// Position returns the 0-based index of the current question.
func (s *Session) Position() int { return s.position }

// Answered returns the number of submitted answers.
func (s *Session) Answered() int { return len(s.answers) }

// Finished reports whether the run advanced past the last question.
func (s *Session) Finished() bool { return s.position >= len(s.pool) }

// CurrentAnswered reports whether the current question was submitted.
func (s *Session) CurrentAnswered() bool {
	_, ok := s.answers[s.position]
	return ok
}

// Answer returns the logged answer for the question at position.
func (s *Session) Answer(position int) (Answer, bool) {
	a, ok := s.answers[position]
	return a, ok
}

// Current returns the question at the current position.
func (s *Session) Current() (question.Question, error) {
	if s.position >= len(s.pool) {
		return question.Question{}, fmt.Errorf("%w: position %d of %d", ErrOutOfRange, s.position, len(s.pool))
	}
	return s.pool[s.position], nil
}

// Select highlights a multiple-choice option without submitting it.
func (s *Session) Select(index int) error {
	q, err := s.Current()
	if err != nil {
		return err
	}
	if s.CurrentAnswered() {
		return ErrAlreadyAnswered
	}
	if q.Kind != question.KindMultipleChoice {
		return ErrTypeMismatch
	}
	if index < 0 || index >= len(q.Options) {
		return fmt.Errorf("%w: %d", ErrInvalidOption, index)
	}
	s.pending = index
	return nil
}

// ClearSelection drops the highlighted option.
func (s *Session) ClearSelection() { s.pending = -1 }

// Pending returns the highlighted option, if any.
func (s *Session) Pending() (int, bool) {
	return s.pending, s.pending >= 0
}

// SubmitPending submits the highlighted option, or no selection.
func (s *Session) SubmitPending() (Outcome, error) {
	if index, ok := s.Pending(); ok {
		return s.Submit(Choice(index))
	}
	return s.Submit(NoSelection())
}

// Submit scores r against the current question and logs it. A question can
// be submitted once; later submissions fail with ErrAlreadyAnswered and leave
// the session unchanged.
func (s *Session) Submit(r Response) (Outcome, error) {
	q, err := s.Current()
	if err != nil {
		return Outcome{}, err
	}
	if s.CurrentAnswered() {
		return Outcome{}, ErrAlreadyAnswered
	}

	outcome := Outcome{CorrectAnswerDisplay: q.CorrectAnswerText(), Explanation: q.Explanation}
	switch q.Kind {
	case question.KindMultipleChoice:
		switch r.kind {
		case responseChoice:
			if r.index < 0 || r.index >= len(q.Options) {
				return Outcome{}, fmt.Errorf("%w: %d", ErrInvalidOption, r.index)
			}
			outcome.Given = q.Options[r.index]
			outcome.Correct = r.index == q.CorrectIndex
		case responseNone:
		default:
			return Outcome{}, ErrTypeMismatch
		}
	case question.KindFillBlank:
		if r.kind != responseText {
			return Outcome{}, ErrTypeMismatch
		}
		outcome.Given = strings.TrimSpace(r.text)
		outcome.Correct = question.NormalizeAnswerText(r.text) == question.NormalizeAnswerText(q.CorrectAnswer)
	default:
		return Outcome{}, fmt.Errorf("%w: unknown question type %q", ErrTypeMismatch, q.Kind)
	}

	if outcome.Correct {
		s.score++
	}
	s.answers[s.position] = Answer{Topic: q.Topic, Correct: outcome.Correct, Given: outcome.Given}
	return outcome, nil
}

// Advance moves to the next question. Once the pool is exhausted every call
// reports Finished.
func (s *Session) Advance() (State, error) {
	if s.position < len(s.pool) {
		s.position++
	}
	s.pending = -1
	if s.position >= len(s.pool) {
		return State{Finished: true}, nil
	}
	return State{Next: s.pool[s.position]}, nil
}

// TopicResult is the tally of one topic.
type TopicResult struct {
	Topic      string
	Correct    int
	Total      int
	Percentage int
}

// Band returns the performance band of the result.
func (r TopicResult) Band() Performance { return Band(r.Percentage) }

// Breakdown tallies the answer log by topic. Topics in the pool without
// answers are reported as 0/0. Results are sorted by topic.
func (s *Session) Breakdown() []TopicResult {
	tallies := make(map[string]*TopicResult)
	for _, q := range s.pool {
		if _, ok := tallies[q.Topic]; !ok {
			tallies[q.Topic] = &TopicResult{Topic: q.Topic}
		}
	}
	for _, a := range s.answers {
		t, ok := tallies[a.Topic]
		if !ok {
			t = &TopicResult{Topic: a.Topic}
			tallies[a.Topic] = t
		}
		t.Total++
		if a.Correct {
			t.Correct++
		}
	}

	results := make([]TopicResult, 0, len(tallies))
	for _, t := range tallies {
		t.Percentage = Percentage(t.Correct, t.Total)
		results = append(results, *t)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Topic < results[j].Topic })
	return results
}

// Percentage returns round(100*correct/total), or 0 when total is 0.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}

// Performance is a display band for a percentage.
type Performance string

const (
	PerformanceHigh   Performance = "high"
	PerformanceMedium Performance = "medium"
	PerformanceLow    Performance = "low"
)

// Band maps a percentage to its performance band.
func Band(pct int) Performance {
	switch {
	case pct >= 80:
		return PerformanceHigh
	case pct >= 50:
		return PerformanceMedium
	default:
		return PerformanceLow
	}
}
