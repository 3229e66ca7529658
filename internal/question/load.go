package question

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/regquiz/internal/simulation"
)

// BankVersion is the only supported bank schema version.
const BankVersion = 1

// bankFile is the on-disk question bank schema (YAML or JSON).
type bankFile struct {
	Version   int      `json:"version" yaml:"version" validate:"required,eq=1"`
	Questions []record `json:"questions" yaml:"questions"`
}

type record struct {
	Topic         string         `json:"topic" yaml:"topic"`
	Type          string         `json:"type,omitempty" yaml:"type,omitempty"`
	Prompt        string         `json:"question" yaml:"question"`
	Resources     []string       `json:"resources,omitempty" yaml:"resources,omitempty"`
	Options       []string       `json:"options,omitempty" yaml:"options,omitempty"`
	CorrectIndex  *int           `json:"correct_index,omitempty" yaml:"correct_index,omitempty"`
	CorrectAnswer string         `json:"correct_answer,omitempty" yaml:"correct_answer,omitempty"`
	Explanation   string         `json:"explanation,omitempty" yaml:"explanation,omitempty"`
	Simulation    map[string]any `json:"simulation,omitempty" yaml:"simulation,omitempty"`
}

// LoadBank reads, parses, and validates a question bank file. The format is
// chosen by extension: .json is JSON, anything else YAML.
func LoadBank(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	return ParseBank(data, path)
}

// ParseBank parses and validates bank data. name only selects the format.
func ParseBank(data []byte, name string) ([]Question, error) {
	bank, err := parseBank(data, name)
	if err != nil {
		return nil, err
	}
	return normalizeBank(bank)
}

func parseBank(data []byte, name string) (bankFile, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".json" {
		return parseJSONBank(data)
	}
	return parseYAMLBank(data)
}

func parseJSONBank(data []byte) (bankFile, error) {
	var bank bankFile
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&bank); err != nil {
		return bankFile{}, fmt.Errorf("parse json: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return bankFile{}, fmt.Errorf("parse json: multiple documents are not supported")
		}
		return bankFile{}, fmt.Errorf("parse json: %w", err)
	}
	return bank, nil
}

func parseYAMLBank(data []byte) (bankFile, error) {
	var bank bankFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&bank); err != nil {
		return bankFile{}, fmt.Errorf("parse yaml: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return bankFile{}, fmt.Errorf("parse yaml: multiple documents are not supported")
		}
		return bankFile{}, fmt.Errorf("parse yaml: %w", err)
	}
	return bank, nil
}

// normalizeBank trims text, converts records to questions and validates the
// whole set. Any issue rejects the bank.
func normalizeBank(bank bankFile) ([]Question, error) {
	collector := &issueCollector{}
	checkStruct(collector, "", bank)

	questions := make([]Question, 0, len(bank.Questions))
	for i, rec := range bank.Questions {
		rec = trimRecord(rec)
		if rec.Type == string(KindFillBlank) && rec.CorrectIndex != nil {
			collector.add(fmt.Sprintf("questions[%d].correct_index", i), "is not allowed for fill-blank questions", ErrKindMismatch)
		}
		questions = append(questions, rec.toQuestion())
	}
	checkQuestions(collector, questions)

	if err := collector.result(); err != nil {
		return nil, err
	}
	return questions, nil
}

func trimRecord(rec record) record {
	rec.Topic = strings.TrimSpace(rec.Topic)
	rec.Type = strings.TrimSpace(rec.Type)
	rec.Prompt = strings.TrimSpace(rec.Prompt)
	rec.CorrectAnswer = strings.TrimSpace(rec.CorrectAnswer)
	rec.Explanation = strings.TrimSpace(rec.Explanation)
	rec.Resources = normalizeStringSlice(rec.Resources)
	rec.Options = normalizeStringSlice(rec.Options)
	return rec
}

func (rec record) toQuestion() Question {
	kind := Kind(rec.Type)
	if kind == "" {
		kind = KindMultipleChoice
	}
	correctIndex := -1
	if rec.CorrectIndex != nil {
		correctIndex = *rec.CorrectIndex
	}
	return Question{
		Topic:         rec.Topic,
		Kind:          kind,
		Prompt:        rec.Prompt,
		Resources:     rec.Resources,
		Options:       rec.Options,
		CorrectIndex:  correctIndex,
		CorrectAnswer: rec.CorrectAnswer,
		Explanation:   rec.Explanation,
		Simulation:    simulation.Decode(rec.Simulation),
	}
}

func normalizeStringSlice(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	normalized := make([]string, 0, len(values))
	for _, value := range values {
		normalized = append(normalized, strings.TrimSpace(value))
	}
	return normalized
}
