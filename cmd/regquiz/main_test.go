package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/verte-zerg/regquiz/internal/config"
	"github.com/verte-zerg/regquiz/internal/question"
)

var commentedKey = regexp.MustCompile(`^# [a-z-]+ = `)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// TestDefaultConfigTemplateDecodes verifies every commented key in the
// template is a valid config key once uncommented.
func TestDefaultConfigTemplateDecodes(t *testing.T) {
	lines := strings.Split(defaultConfigTemplate(), "\n")
	for i, line := range lines {
		if commentedKey.MatchString(line) {
			lines[i] = strings.TrimPrefix(line, "# ")
		}
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Quiz.WeakTop == nil || *cfg.Quiz.WeakTop != defaultWeakTop {
		t.Fatalf("expected weak-top %d", defaultWeakTop)
	}
	if cfg.Quiz.Topics == nil || len(*cfg.Quiz.Topics) != 2 {
		t.Fatalf("expected two topics")
	}
	if cfg.Log.Level == nil || *cfg.Log.Level != defaultLogLevel {
		t.Fatalf("expected log level %q", defaultLogLevel)
	}
}

func TestApplyConfigRespectsChangedFlags(t *testing.T) {
	root := newRootCmd()
	if err := root.ParseFlags([]string{"--seed", "7"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	seed := int64(99)
	applyInt64Config(root, "seed", &quizSeed, &seed)
	if quizSeed != 7 {
		t.Fatalf("expected flag value to win, got %d", quizSeed)
	}

	topics := []string{"GPIO"}
	applyStringSliceConfig(root, "topics", &quizTopics, &topics)
	if len(quizTopics) != 1 || quizTopics[0] != "GPIO" {
		t.Fatalf("expected config topics, got %v", quizTopics)
	}
	topics[0] = "RCC"
	if quizTopics[0] != "GPIO" {
		t.Fatalf("expected config topics to be copied")
	}
}

func TestSetupLoggerRejectsUnknownLevel(t *testing.T) {
	root := newRootCmd()
	if err := root.ParseFlags([]string{"--log-level", "loud"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if _, err := setupLogger(root, config.FileConfig{}); err == nil {
		t.Fatalf("expected invalid level error")
	}
}

func TestResolveBankPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	if got := resolveBankPath(""); got != "" {
		t.Fatalf("expected built-in bank, got %q", got)
	}
	if got := resolveBankPath("custom.yaml"); got != "custom.yaml" {
		t.Fatalf("expected explicit path, got %q", got)
	}
	userBank := config.DefaultBankPath()
	if err := writeBankFile(userBank, question.DefaultBankData()); err != nil {
		t.Fatalf("write bank: %v", err)
	}
	if got := resolveBankPath(""); got != userBank {
		t.Fatalf("expected user bank %q, got %q", userBank, got)
	}
}

func TestWriteBankFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "questions.yaml")
	data := []byte("version: 1\n")
	if err := writeBankFile(path, data); err != nil {
		t.Fatalf("write bank: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read bank: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("unexpected content %q", got)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp file cleanup, got %d entries", len(entries))
	}
}

func TestBankCmdRefusesOverwrite(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if _, err := runRoot(t, "bank"); err != nil {
		t.Fatalf("bank: %v", err)
	}
	if _, err := question.LoadBank(config.DefaultBankPath()); err != nil {
		t.Fatalf("written bank does not load: %v", err)
	}
	if _, err := runRoot(t, "bank"); err == nil {
		t.Fatalf("expected error without --force")
	}
	if _, err := runRoot(t, "bank", "--force"); err != nil {
		t.Fatalf("bank --force: %v", err)
	}
}

func TestValidateCmd(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	out, err := runRoot(t, "validate")
	if err != nil {
		t.Fatalf("validate built-in bank: %v", err)
	}
	if !strings.Contains(out, question.DefaultBankName) || !strings.Contains(out, "OK") {
		t.Fatalf("unexpected output: %s", out)
	}

	bad := filepath.Join(dir, "bad.yaml")
	content := `version: 1
questions:
  - topic: GPIO
    question: Pick one
    options: [A]
    correct_index: 3
`
	if err := os.WriteFile(bad, []byte(content), 0o644); err != nil {
		t.Fatalf("write bank: %v", err)
	}
	out, err = runRoot(t, "validate", bad)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(out, "questions[0].options") || !strings.Contains(out, "questions[0].correct_index") {
		t.Fatalf("expected issues in output, got %s", out)
	}
}

func TestTopicsCmdListsCounts(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	out, err := runRoot(t, "topics")
	if err != nil {
		t.Fatalf("topics: %v", err)
	}
	bank, err := question.Default()
	if err != nil {
		t.Fatalf("default bank: %v", err)
	}
	for _, topic := range question.Topics(bank) {
		if !strings.Contains(out, topic) {
			t.Fatalf("expected topic %q in output", topic)
		}
	}
}

func TestValidateStrictFlagsUnknownSimulation(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path := filepath.Join(dir, "bank.yaml")
	content := `version: 1
questions:
  - topic: SPI
    question: Which register enables SPI1?
    options: [SPI1_CR1, SPI1_SR]
    correct_index: 0
    simulation:
      type: spi-frame
      register: SPI1_CR1
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write bank: %v", err)
	}
	if _, err := runRoot(t, "validate", path); err != nil {
		t.Fatalf("validate without --strict: %v", err)
	}
	out, err := runRoot(t, "validate", "--strict", path)
	if err == nil {
		t.Fatalf("expected strict validation error")
	}
	if !strings.Contains(out, `questions[0].simulation: type "spi-frame" is not recognized`) {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestHistoryCmd(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	if _, err := runRoot(t, "history", "--log-level", "loud"); err == nil {
		t.Fatalf("expected invalid level error")
	}
	out, err := runRoot(t, "history")
	if err != nil {
		t.Fatalf("history on empty db: %v", err)
	}
	if !strings.Contains(out, "No runs recorded.") {
		t.Fatalf("unexpected output: %s", out)
	}
}
