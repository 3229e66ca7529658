// Package main provides the CLI entrypoint for regquiz.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/regquiz/internal/config"
	"github.com/verte-zerg/regquiz/internal/model"
	"github.com/verte-zerg/regquiz/internal/question"
	"github.com/verte-zerg/regquiz/internal/simulation"
	"github.com/verte-zerg/regquiz/internal/stats"
	"github.com/verte-zerg/regquiz/internal/store"
	"github.com/verte-zerg/regquiz/internal/tui"
)

const (
	defaultWeakTop       = 3
	defaultWeakWindow    = 10
	defaultHistoryWindow = 5
	defaultLogLevel      = "warn"
)

var (
	bankPath string
	logLevel string

	quizTopics     []string
	quizSeed       int64
	quizHistory    bool
	quizFocusWeak  bool
	quizWeakTop    int
	quizWeakWindow int

	historyTopic  string
	historySince  string
	historyLast   int
	historyWindow int

	validateStrict bool

	bankForce bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "regquiz",
		Short:         "STM32 register quiz",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runQuizCmd,
	}

	rootCmd.PersistentFlags().StringVar(&bankPath, "bank", "", "question bank file (default: user bank if present, else built-in STM32F0 bank)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")

	rootCmd.Flags().StringSliceVar(&quizTopics, "topics", nil, "topics to preselect (comma separated, 'all' for every topic)")
	rootCmd.Flags().Int64Var(&quizSeed, "seed", 0, "shuffle seed for a reproducible question order")
	rootCmd.Flags().BoolVar(&quizHistory, "history", true, "record finished runs")
	rootCmd.Flags().BoolVar(&quizFocusWeak, "focus-weak", false, "preselect the weakest topics from history")
	rootCmd.Flags().IntVar(&quizWeakTop, "weak-top", defaultWeakTop, "number of weak topics to preselect")
	rootCmd.Flags().IntVar(&quizWeakWindow, "weak-window", defaultWeakWindow, "number of recent runs to compute weak topics")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newTopicsCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newBankCmd())

	return rootCmd
}

func runQuizCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "bank", &bankPath, fileCfg.Quiz.Bank)
	applyStringSliceConfig(cmd, "topics", &quizTopics, fileCfg.Quiz.Topics)
	applyInt64Config(cmd, "seed", &quizSeed, fileCfg.Quiz.Seed)
	applyBoolConfig(cmd, "history", &quizHistory, fileCfg.Quiz.History)
	applyBoolConfig(cmd, "focus-weak", &quizFocusWeak, fileCfg.Quiz.FocusWeak)
	applyIntConfig(cmd, "weak-top", &quizWeakTop, fileCfg.Quiz.WeakTop)
	applyIntConfig(cmd, "weak-window", &quizWeakWindow, fileCfg.Quiz.WeakWindow)

	logger, err := setupLogger(cmd, fileCfg)
	if err != nil {
		return err
	}

	cfg := model.Config{
		BankPath:   bankPath,
		Topics:     quizTopics,
		Seed:       quizSeed,
		HasSeed:    cmd.Flags().Changed("seed") || fileCfg.Quiz.Seed != nil,
		History:    quizHistory,
		FocusWeak:  quizFocusWeak,
		WeakTop:    quizWeakTop,
		WeakWindow: quizWeakWindow,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	bank, source, err := loadQuestionBank(cfg.BankPath)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{"bank": source, "questions": len(bank)}).Debug("question bank loaded")

	var history tui.History
	if cfg.History || cfg.FocusWeak {
		st, err := store.Open(config.DefaultDBPath())
		if err != nil {
			return fmt.Errorf("failed to open db: %w", err)
		}
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logger.WithError(cerr).Warn("failed to close db")
			}
		}()
		history = tui.NewStoreHistory(st)
	}

	quizModel := tui.NewModel(cfg, bank, source, history, logger)
	program := tea.NewProgram(quizModel, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if err := quizModel.Err(); err != nil {
		return fmt.Errorf("quiz aborted: %w", err)
	}
	return nil
}

func setupLogger(cmd *cobra.Command, fileCfg config.FileConfig) (*logrus.Logger, error) {
	applyStringConfig(cmd, "log-level", &logLevel, fileCfg.Log.Level)
	level, err := logrus.ParseLevel(strings.TrimSpace(logLevel))
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level value: %w", err)
	}
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetLevel(level)
	return logger, nil
}

// resolveBankPath returns the bank file to load, or "" for the built-in bank.
func resolveBankPath(path string) string {
	if path != "" {
		return path
	}
	userBank := config.DefaultBankPath()
	if _, err := os.Stat(userBank); err == nil {
		return userBank
	}
	return ""
}

func loadQuestionBank(path string) ([]question.Question, string, error) {
	path = resolveBankPath(path)
	if path == "" {
		bank, err := question.Default()
		if err != nil {
			return nil, "", fmt.Errorf("failed to load built-in question bank: %w", err)
		}
		return bank, question.DefaultBankName, nil
	}
	bank, err := question.LoadBank(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load question bank %s: %w", path, err)
	}
	return bank, path, nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newTopicsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "List topics of the question bank",
		Args:  cobra.NoArgs,
		RunE:  runTopicsCmd,
	}
}

func runTopicsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "bank", &bankPath, fileCfg.Quiz.Bank)

	bank, source, err := loadQuestionBank(bankPath)
	if err != nil {
		return err
	}
	counts := question.CountByTopic(bank)
	width := 0
	for _, c := range counts {
		width = max(width, len(c.Topic))
	}
	out := cmd.OutOrStdout()
	for _, c := range counts {
		if _, err := fmt.Fprintf(out, "%-*s  %s\n", width, c.Topic, humanize.Comma(int64(c.Count))); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if _, err := fmt.Fprintf(out, "\n%s questions in %d topics (%s)\n", humanize.Comma(int64(len(bank))), len(counts), source); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [PATH]",
		Short: "Validate a question bank",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runValidateCmd,
	}
	cmd.Flags().BoolVar(&validateStrict, "strict", false, "also check simulation types and authored calculation results")
	return cmd
}

func runValidateCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "bank", &bankPath, fileCfg.Quiz.Bank)

	path := bankPath
	if len(args) == 1 {
		path = args[0]
	}
	path = resolveBankPath(path)

	data := question.DefaultBankData()
	name := question.DefaultBankName
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read question bank: %w", err)
		}
		data, name = raw, path
	}

	out := cmd.OutOrStdout()
	bank, err := question.ParseBank(data, name)
	var verr *question.ValidationError
	if errors.As(err, &verr) {
		for _, issue := range verr.Issues {
			if _, werr := fmt.Fprintf(out, "%s: %s\n", issue.Field, issue.Message); werr != nil {
				return fmt.Errorf("failed to write output: %w", werr)
			}
		}
		return fmt.Errorf("%s: %d validation issue(s)", name, len(verr.Issues))
	}
	if err != nil {
		return fmt.Errorf("failed to parse question bank: %w", err)
	}

	mismatches := 0
	if validateStrict {
		for i, q := range bank {
			if q.Simulation == nil {
				continue
			}
			for _, msg := range simulation.Verify(q.Simulation) {
				if _, err := fmt.Fprintf(out, "questions[%d].simulation: %s\n", i, msg); err != nil {
					return fmt.Errorf("failed to write output: %w", err)
				}
				mismatches++
			}
		}
	}
	if mismatches > 0 {
		return fmt.Errorf("%s: %d simulation issue(s)", name, mismatches)
	}
	if _, err := fmt.Fprintf(out, "%s: %s questions in %d topics OK\n", name, humanize.Comma(int64(len(bank))), len(question.Topics(bank))); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded runs",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyTopic, "topic", "", "topic filter")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N runs")
	cmd.Flags().IntVar(&historyWindow, "window", defaultHistoryWindow, "moving average and per-topic window")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := setupLogger(cmd, fileCfg)
	if err != nil {
		return err
	}

	var sinceTime *time.Time
	if historySince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", historySince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if historyLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	if historyWindow <= 0 {
		return fmt.Errorf("--window must be > 0")
	}

	cfg := model.HistoryConfig{
		Topic:  strings.TrimSpace(historyTopic),
		Since:  sinceTime,
		Last:   historyLast,
		Window: historyWindow,
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logger.WithError(cerr).Warn("failed to close db")
		}
	}()

	report, err := stats.BuildReport(context.Background(), st, cfg)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	return renderHistory(cmd, report, cfg)
}

func renderHistory(cmd *cobra.Command, report stats.Report, cfg model.HistoryConfig) error {
	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, report.Runs, time.Now()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if len(report.Runs) == 0 {
		return nil
	}
	if err := stats.RenderTopicTable(out, report.TopicAggsWindow); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	useColor := stats.ShouldUseColor(out)
	if err := stats.RenderTrend(out, report.Runs, cfg.Window, 0, 0, useColor); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderTopicTrends(out, report.Runs, report.TopicRuns, report.TrendTopics, cfg.Window, 0, 0, useColor); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newBankCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bank",
		Short: "Write the built-in question bank for editing",
		Args:  cobra.NoArgs,
		RunE:  runBankCmd,
	}
	cmd.Flags().BoolVar(&bankForce, "force", false, "overwrite an existing bank")
	return cmd
}

func runBankCmd(cmd *cobra.Command, _ []string) error {
	outPath := config.DefaultBankPath()
	if !bankForce {
		if _, err := os.Stat(outPath); err == nil {
			return fmt.Errorf("question bank already exists: %s (use --force to overwrite)", outPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat question bank: %w", err)
		}
	}
	if err := writeBankFile(outPath, question.DefaultBankData()); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", outPath); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func writeBankFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create bank dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "questions-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp bank: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("failed to write bank: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush bank: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close bank: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write bank: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyStringSliceConfig(cmd *cobra.Command, name string, target, value *[]string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = append([]string(nil), (*value)...)
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# regquiz configuration
# Uncomment a value to enable it. CLI flags override config values.

[quiz]
# bank = "questions.yaml"   # Question bank file (default: built-in STM32F0 bank)
# topics = ["GPIO", "RCC"]  # Topics to preselect
# seed = 42                 # Shuffle seed for a reproducible order
# history = true            # Record finished runs
# focus-weak = false        # Preselect the weakest topics from history
# weak-top = %d              # Number of weak topics to preselect
# weak-window = %d          # Number of recent runs to compute weak topics

[log]
# level = %q            # debug, info, warn or error
`,
		defaultWeakTop,
		defaultWeakWindow,
		defaultLogLevel,
	)
}

func validateConfig(cfg model.Config) error {
	if cfg.WeakTop < 0 {
		return fmt.Errorf("--weak-top must be >= 0")
	}
	if cfg.WeakWindow < 0 {
		return fmt.Errorf("--weak-window must be >= 0")
	}
	return nil
}
