// Package tui provides the Bubble Tea quiz interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/regquiz/internal/model"
	"github.com/verte-zerg/regquiz/internal/question"
	"github.com/verte-zerg/regquiz/internal/quiz"
	"github.com/verte-zerg/regquiz/internal/render"
)

type screen int

const (
	screenTopics screen = iota
	screenQuestion
	screenFeedback
	screenResults
)

const (
	barWidth       = 20
	minSimHeight   = 3
	fallbackRule   = 20
	noTopicMessage = "select at least one topic"
)

// Model implements the Bubble Tea quiz UI.
type Model struct {
	config   model.Config
	bank     []question.Question
	bankPath string
	history  History
	logger   logrus.FieldLogger
	shuffler *quiz.Shuffler

	width  int
	height int
	screen screen

	topics            []question.TopicCount
	checked           map[string]bool
	topicCursor       int
	topicErr          string
	weakNoticePrinted bool

	session   *quiz.Session
	selection []string
	current   question.Question
	view      render.QuestionView
	input     textinput.Model
	outcome   quiz.Outcome
	sim       viewport.Model
	hasSim    bool
	results   table.Model
	recorded  bool

	lastPct float64
	allPct  float64
	hasLast bool

	err error
}

// NewModel constructs a quiz TUI model over bank. history may be nil, in
// which case runs are not recorded and the footer shows no history.
func NewModel(cfg model.Config, bank []question.Question, bankPath string, history History, logger logrus.FieldLogger) *Model {
	shuffler := quiz.NewTimeShuffler()
	if cfg.HasSeed {
		shuffler = quiz.NewShuffler(cfg.Seed)
	}
	m := &Model{
		config:   cfg,
		bank:     bank,
		bankPath: bankPath,
		history:  history,
		logger:   logger,
		shuffler: shuffler,
		topics:   question.CountByTopic(bank),
		input:    newAnswerInput(),
		sim:      viewport.New(0, 0),
	}
	m.loadOverview()
	m.preselect(m.initialSelection())
	return m
}

// Err returns the error that aborted the program, if any.
func (m *Model) Err() error {
	return m.err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.screen {
		case screenTopics:
			return m, m.updateTopics(msg)
		case screenQuestion:
			return m, m.updateQuestion(msg)
		case screenFeedback:
			return m, m.updateFeedback(msg)
		case screenResults:
			return m, m.updateResults(msg)
		}
		return m, nil
	default:
		if m.screen == screenQuestion && m.view.Input.Kind == render.InputFreeText {
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	width := m.contentWidth()
	var content string
	switch m.screen {
	case screenQuestion:
		content = m.renderQuestion(width)
	case screenFeedback:
		content = m.renderFeedback(width)
	case screenResults:
		content = m.renderResults()
	default:
		content = m.renderTopics()
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	content = padLines(content, width)
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := m.height - 1
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) contentWidth() int {
	if m.width == 0 {
		return 0
	}
	return max(int(float64(m.width)*0.70), 1)
}

func (m *Model) updateTopics(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "esc":
		return tea.Quit
	case "up", "k":
		if m.topicCursor > 0 {
			m.topicCursor--
		}
	case "down", "j":
		if m.topicCursor < len(m.topics) {
			m.topicCursor++
		}
	case " ", "space", "x":
		m.toggleTopic(m.topicCursor)
	case "a":
		m.toggleTopic(0)
	case "enter":
		selection := m.selectedTopics()
		if len(selection) == 0 {
			m.topicErr = noTopicMessage
			return nil
		}
		return m.start(selection)
	}
	return nil
}

func (m *Model) updateQuestion(msg tea.KeyMsg) tea.Cmd {
	if m.view.Input.Kind == render.InputFreeText {
		switch msg.Type {
		case tea.KeyEsc:
			m.restart()
			return nil
		case tea.KeyEnter:
			value := m.input.Value()
			if strings.TrimSpace(value) == "" {
				return nil
			}
			return m.showFeedback(m.session.Submit(quiz.Text(value)))
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return cmd
	}

	key := msg.String()
	switch key {
	case "q":
		return tea.Quit
	case "esc", "r":
		m.restart()
	case "up", "k":
		return m.moveSelection(-1)
	case "down", "j":
		return m.moveSelection(1)
	case "enter":
		return m.showFeedback(m.session.SubmitPending())
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			return m.selectOption(int(key[0] - '1'))
		}
	}
	return nil
}

func (m *Model) updateFeedback(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return tea.Quit
	case "r", "esc":
		m.restart()
		return nil
	case "enter", "n", " ", "space":
		return m.advance()
	}
	var cmd tea.Cmd
	m.sim, cmd = m.sim.Update(msg)
	return cmd
}

func (m *Model) updateResults(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "esc":
		return tea.Quit
	case "enter", "t":
		m.restart()
		return nil
	case "r":
		return m.start(m.selection)
	}
	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return cmd
}

func (m *Model) toggleTopic(row int) {
	m.topicErr = ""
	if row == 0 {
		all := !m.allChecked()
		for _, tc := range m.topics {
			m.checked[tc.Topic] = all
		}
		return
	}
	topic := m.topics[row-1].Topic
	m.checked[topic] = !m.checked[topic]
}

func (m *Model) allChecked() bool {
	if len(m.topics) == 0 {
		return false
	}
	for _, tc := range m.topics {
		if !m.checked[tc.Topic] {
			return false
		}
	}
	return true
}

func (m *Model) selectedTopics() []string {
	if m.allChecked() {
		return []string{quiz.AllTopics}
	}
	selection := make([]string, 0, len(m.topics))
	for _, tc := range m.topics {
		if m.checked[tc.Topic] {
			selection = append(selection, tc.Topic)
		}
	}
	return selection
}

// preselect checks the given topics. An empty list or AllTopics checks
// every topic.
func (m *Model) preselect(topics []string) {
	m.checked = make(map[string]bool, len(m.topics))
	wanted := make(map[string]bool, len(topics))
	all := len(topics) == 0
	for _, topic := range topics {
		topic = strings.TrimSpace(topic)
		if strings.EqualFold(topic, quiz.AllTopics) {
			all = true
		}
		wanted[topic] = true
	}
	matched := 0
	for _, tc := range m.topics {
		if all || wanted[tc.Topic] {
			m.checked[tc.Topic] = true
			matched++
		}
	}
	if matched == 0 && len(topics) > 0 {
		m.topicErr = fmt.Sprintf("%v: %s", quiz.ErrEmptyPool, strings.Join(topics, ", "))
	}
}

func (m *Model) initialSelection() []string {
	if m.config.FocusWeak {
		if weak := m.weakTopics(); len(weak) > 0 {
			return weak
		}
	}
	return m.config.Topics
}

func (m *Model) weakTopics() []string {
	if m.history == nil {
		return nil
	}
	weak, err := m.history.WeakTopics(context.Background(), m.config.WeakWindow, m.config.WeakTop)
	if err != nil {
		m.logger.WithError(err).Warn("failed to load weak topics")
		return nil
	}
	if len(weak) == 0 && !m.weakNoticePrinted {
		m.logger.Info("no history available for weak-topic focus yet; using configured topics")
		m.weakNoticePrinted = true
	}
	return weak
}

func (m *Model) loadOverview() {
	if m.history == nil {
		return
	}
	last, all, ok, err := m.history.Overview(context.Background())
	if err != nil {
		m.logger.WithError(err).Warn("failed to load run history")
		return
	}
	m.lastPct = last
	m.allPct = all
	m.hasLast = ok
}

func (m *Model) start(selection []string) tea.Cmd {
	session, err := quiz.Start(selection, m.bank, m.shuffler)
	if errors.Is(err, quiz.ErrEmptyPool) {
		m.topicErr = err.Error()
		m.screen = screenTopics
		return nil
	}
	if err != nil {
		return m.fail(err)
	}
	m.session = session
	m.selection = selection
	m.recorded = false
	m.topicErr = ""
	m.logger.WithFields(logrus.Fields{
		"run_id":    session.ID(),
		"questions": session.Total(),
		"topics":    strings.Join(session.Topics(), ","),
	}).Debug("quiz started")
	return m.showQuestion()
}

func (m *Model) restart() {
	m.screen = screenTopics
	m.input.Blur()
	m.topicErr = ""
	if m.config.FocusWeak {
		m.preselect(m.initialSelection())
	}
}

func (m *Model) showQuestion() tea.Cmd {
	q, err := m.session.Current()
	if err != nil {
		return m.fail(err)
	}
	view, err := render.QuestionBody(q)
	if err != nil {
		return m.fail(fmt.Errorf("question %d: %w", m.session.Position()+1, err))
	}
	m.current = q
	m.view = view
	m.screen = screenQuestion
	m.input.Reset()
	if view.Input.Kind == render.InputFreeText {
		return m.input.Focus()
	}
	m.input.Blur()
	return nil
}

func (m *Model) moveSelection(delta int) tea.Cmd {
	n := len(m.view.Input.Options)
	if n == 0 {
		return nil
	}
	index, ok := m.session.Pending()
	switch {
	case !ok && delta > 0:
		index = 0
	case !ok:
		index = n - 1
	default:
		index = min(max(index+delta, 0), n-1)
	}
	return m.selectOption(index)
}

func (m *Model) selectOption(index int) tea.Cmd {
	err := m.session.Select(index)
	if err == nil || errors.Is(err, quiz.ErrInvalidOption) {
		return nil
	}
	return m.fail(err)
}

func (m *Model) showFeedback(outcome quiz.Outcome, err error) tea.Cmd {
	if err != nil {
		return m.fail(err)
	}
	m.outcome = outcome
	m.screen = screenFeedback
	m.input.Blur()
	m.layout()
	m.sim.GotoTop()
	return nil
}

func (m *Model) advance() tea.Cmd {
	state, err := m.session.Advance()
	if err != nil {
		return m.fail(err)
	}
	if state.Finished {
		m.finish()
		return nil
	}
	return m.showQuestion()
}

func (m *Model) finish() {
	m.screen = screenResults
	m.buildResults()
	if m.recorded {
		return
	}
	m.recorded = true
	m.recordRun()
}

func (m *Model) recordRun() {
	if m.history == nil || !m.config.History {
		return
	}
	breakdown := m.session.Breakdown()
	topics := make([]model.TopicStats, 0, len(breakdown))
	for _, r := range breakdown {
		if r.Total == 0 {
			continue
		}
		topics = append(topics, model.TopicStats{Topic: r.Topic, Correct: r.Correct, Total: r.Total})
	}
	run := model.RunStats{
		RunID:     m.session.ID(),
		StartedAt: m.session.StartedAt(),
		EndedAt:   time.Now(),
		Topics:    m.session.Topics(),
		BankPath:  m.bankPath,
		Score:     m.session.Score(),
		Total:     m.session.Total(),
		Answered:  m.session.Answered(),
	}
	if err := m.history.RecordRun(context.Background(), run, topics); err != nil {
		m.logger.WithError(err).WithFields(logrus.Fields{"run_id": run.RunID}).Warn("failed to save run")
		return
	}
	m.loadOverview()
}

func (m *Model) fail(err error) tea.Cmd {
	m.err = err
	m.logger.WithError(err).Error("quiz aborted")
	return tea.Quit
}

// layout sizes the simulation panel and the results table to the window.
func (m *Model) layout() {
	switch m.screen {
	case screenFeedback:
		width := m.contentWidth()
		content := m.simulationContent(width)
		m.hasSim = content != ""
		height := minSimHeight
		if m.height > 0 {
			header := m.feedbackHeader(width)
			height = max(m.height-lipgloss.Height(header)-5, minSimHeight)
		}
		m.sim.Width = max(width, 1)
		m.sim.Height = height
		m.sim.SetContent(content)
	case screenResults:
		m.buildResults()
	}
}

func (m *Model) buildResults() {
	breakdown := m.session.Breakdown()
	topicWidth := lipgloss.Width("Topic")
	for _, r := range breakdown {
		topicWidth = max(topicWidth, lipgloss.Width(r.Topic))
	}
	columns := []table.Column{
		{Title: "Topic", Width: topicWidth},
		{Title: "Score", Width: 7},
		{Title: "Accuracy", Width: 8},
		{Title: "Progress", Width: barWidth},
	}
	rows := make([]table.Row, 0, len(breakdown))
	for _, r := range breakdown {
		accuracy := "-"
		if r.Total > 0 {
			accuracy = fmt.Sprintf("%d%%", r.Percentage)
		}
		rows = append(rows, table.Row{r.Topic, fmt.Sprintf("%d/%d", r.Correct, r.Total), accuracy, progressBar(r)})
	}
	height := len(rows) + 2
	if m.height > 0 {
		height = min(height, max(m.height-12, 4))
	}
	m.results = table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(height),
		table.WithFocused(true),
		table.WithStyles(resultTableStyles()),
	)
}

func progressBar(r quiz.TopicResult) string {
	if r.Total == 0 {
		return mutedStyle.Render(strings.Repeat("░", barWidth))
	}
	filled := r.Percentage * barWidth / 100
	return bandStyles[r.Band()].Render(strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled))
}

func (m *Model) renderTopics() string {
	lines := []string{titleStyle.Render("Select topics"), ""}
	labels := make([]string, 0, len(m.topics)+1)
	labels = append(labels, "All topics")
	for _, tc := range m.topics {
		labels = append(labels, fmt.Sprintf("%s (%d)", tc.Topic, tc.Count))
	}
	for i, label := range labels {
		checked := m.allChecked()
		if i > 0 {
			checked = m.checked[m.topics[i-1].Topic]
		}
		box := "[ ]"
		if checked {
			box = "[x]"
		}
		cursor := "  "
		style := textStyle
		if i == m.topicCursor {
			cursor = accentStyle.Render("› ")
			style = accentStyle
		}
		lines = append(lines, cursor+style.Render(box+" "+label))
	}
	if m.topicErr != "" {
		lines = append(lines, "", errorStyle.Render(m.topicErr))
	}
	lines = append(lines, "", helpStyle.Render("↑/↓: move  space: toggle  a: all  enter: start  q: quit"))
	return strings.Join(lines, "\n")
}

func (m *Model) renderQuestion(width int) string {
	lines := []string{renderRich(m.view.PromptLine, titleStyle, width)}
	if len(m.view.References) > 0 {
		lines = append(lines, "")
		for _, ref := range m.view.References {
			lines = append(lines, mutedStyle.Render("• ")+indent(renderRich(ref, mutedStyle, width-2), 2))
		}
	}
	lines = append(lines, "")
	switch m.view.Input.Kind {
	case render.InputFreeText:
		lines = append(lines, m.input.View(), "", helpStyle.Render("enter: submit  esc: topics"))
	default:
		pending, ok := m.session.Pending()
		for i, option := range m.view.Input.Options {
			prefix := fmt.Sprintf("  %d. ", i+1)
			style := textStyle
			if ok && i == pending {
				prefix = fmt.Sprintf("› %d. ", i+1)
				style = accentStyle
			}
			prefixWidth := lipgloss.Width(prefix)
			lines = append(lines, style.Render(prefix)+indent(renderRich(option, style, width-prefixWidth), prefixWidth))
		}
		lines = append(lines, "", helpStyle.Render("↑/↓ or 1-9: select  enter: submit  esc: topics  q: quit"))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) feedbackHeader(width int) string {
	var lines []string
	switch {
	case m.outcome.Correct:
		lines = append(lines, correctStyle.Render("Correct!"))
	case m.outcome.Given == "":
		lines = append(lines, incorrectStyle.Render("No answer selected."))
	default:
		lines = append(lines, incorrectStyle.Render("Incorrect."))
	}
	if m.outcome.Given != "" {
		lines = append(lines, labeled("Your answer", m.outcome.Given, textStyle, width))
	}
	if !m.outcome.Correct && m.outcome.CorrectAnswerDisplay != "" {
		lines = append(lines, labeled("Correct answer", m.outcome.CorrectAnswerDisplay, textStyle, width))
	}
	if m.outcome.Explanation != "" {
		lines = append(lines, "", renderRich(m.outcome.Explanation, textStyle, width))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderFeedback(width int) string {
	parts := []string{m.feedbackHeader(width)}
	if m.hasSim {
		parts = append(parts, "", m.sim.View())
	}
	parts = append(parts, "", helpStyle.Render("enter: next  ↑/↓: scroll  r: restart  q: quit"))
	return strings.Join(parts, "\n")
}

func (m *Model) simulationContent(width int) string {
	fields := render.Simulation(m.current.Simulation)
	if len(fields) == 0 {
		return ""
	}
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		lines = append(lines, renderField(f, width))
	}
	return strings.Join(lines, "\n")
}

func renderField(f render.Field, width int) string {
	switch f.Kind {
	case render.FieldTitle:
		return renderRich(f.Value, accentStyle.Bold(true), width)
	case render.FieldAction:
		return renderRich(f.Value, mutedStyle.Italic(true), width)
	case render.FieldSeparator:
		ruleWidth := width
		if ruleWidth <= 0 {
			ruleWidth = fallbackRule
		}
		return ruleStyle.Render(strings.Repeat("─", ruleWidth))
	case render.FieldCode:
		lines := strings.Split(f.Value, "\n")
		for i, line := range lines {
			lines[i] = codeStyle.Render(truncateLine(line, width))
		}
		return strings.Join(lines, "\n")
	case render.FieldNotice:
		return mutedStyle.Italic(true).Render(f.Value)
	case render.FieldReference:
		return renderRich(f.Text(), mutedStyle, width)
	case render.FieldStep:
		prefix := fmt.Sprintf("%d. ", f.Index)
		return prefix + indent(renderRich(f.Value, textStyle, width-len(prefix)), len(prefix))
	case render.FieldText:
		return renderRich(f.Value, textStyle, width)
	default:
		if f.Label == "" || f.Value == "" {
			return renderRich(f.Text(), textStyle, width)
		}
		return labeled(f.Label, f.Value, textStyle, width)
	}
}

// labeled renders "label: value" with value parsed as rich text.
func labeled(label, value string, style lipgloss.Style, width int) string {
	runes := plainRunes(label+": ", labelStyle)
	runes = append(runes, richRunes(value, style)...)
	return wrapStyledRunes(runes, width)
}

func (m *Model) renderResults() string {
	score, total := m.session.Score(), m.session.Total()
	pct := quiz.Percentage(score, total)
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		renderCard("Score", fmt.Sprintf("%d/%d", score, total), cardValueStyle),
		renderCard("Accuracy", fmt.Sprintf("%d%%", pct), bandStyles[quiz.Band(pct)].Bold(true)),
		renderCard("Answered", fmt.Sprintf("%d", m.session.Answered()), cardValueStyle),
	)
	lines := []string{
		titleStyle.Render("Quiz complete"),
		"",
		cards,
		"",
		m.results.View(),
		"",
		helpStyle.Render("enter/t: new topics  r: replay  q: quit"),
	}
	return strings.Join(lines, "\n")
}

func renderCard(label, value string, valueStyle lipgloss.Style) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), valueStyle.Render(value))
	return cardStyle.Render(content)
}

func (m *Model) renderFooter() string {
	var segments []string
	if m.session != nil && (m.screen == screenQuestion || m.screen == screenFeedback) {
		segments = append(segments,
			fmt.Sprintf("Question %d/%d", m.session.Position()+1, m.session.Total()),
			fmt.Sprintf("Score %d", m.session.Score()),
		)
	}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f%%", m.lastPct), fmt.Sprintf("All-time %.1f%%", m.allPct))
	}
	if len(segments) == 0 {
		return ""
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}
