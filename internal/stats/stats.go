// Package stats contains run history calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/verte-zerg/regquiz/internal/model"
)

const sparkChars = " .:-=+*#%@"

// RunPercentage returns the score of a run as a percentage of its total.
func RunPercentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(score) / float64(total) * 100
}

// Overview returns the last run percentage and the all-time percentage over
// every recorded question. ok is false when there are no runs.
func Overview(runs []model.RunAggregate) (last, all float64, ok bool) {
	if len(runs) == 0 {
		return 0, 0, false
	}
	lastRun := runs[len(runs)-1]
	var score, total int
	for _, r := range runs {
		score += r.Score
		total += r.Total
	}
	return RunPercentage(lastRun.Score, lastRun.Total), RunPercentage(score, total), true
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints a summary of recorded runs.
func RenderSummary(w io.Writer, runs []model.RunAggregate, now time.Time) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}
	var score, total int
	best := 0.0
	percentages := make([]float64, len(runs))
	for i, r := range runs {
		score += r.Score
		total += r.Total
		pct := RunPercentage(r.Score, r.Total)
		percentages[i] = pct
		best = math.Max(best, pct)
	}
	last := runs[len(runs)-1]
	lines := []string{
		"Summary",
		fmt.Sprintf("Runs: %s", humanize.Comma(int64(len(runs)))),
		fmt.Sprintf("Questions answered: %s", humanize.Comma(int64(total))),
		fmt.Sprintf("Overall: %.1f%% (%s correct)", RunPercentage(score, total), humanize.Comma(int64(score))),
		fmt.Sprintf("Best run: %.1f%%", best),
		fmt.Sprintf("Last run: %.1f%%, %s", RunPercentage(last.Score, last.Total), humanize.RelTime(last.EndedAt, now, "ago", "from now")),
		fmt.Sprintf("Trend: %s", Sparkline(percentages)),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderTrend plots the moving average of run scores.
func RenderTrend(w io.Writer, runs []model.RunAggregate, window, totalWidth, height int, useColor bool) error {
	if len(runs) == 0 {
		return nil
	}
	scores := make([]float64, len(runs))
	for i, r := range runs {
		scores[i] = RunPercentage(r.Score, r.Total)
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotSeriesWithColor(w, "Score Trend", []Series{
		{Name: "Score", Values: MovingAverage(scores, window)},
	}, width, height, useColor)
}

// RenderTopicTable prints per-topic aggregates, weakest first.
func RenderTopicTable(w io.Writer, aggs []model.TopicAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No topic stats found.")
		return err
	}
	rows := make([]model.TopicAggregate, len(aggs))
	copy(rows, aggs)
	sortByAccuracy(rows)

	if _, err := fmt.Fprintln(w, "Per-Topic (Windowed)"); err != nil {
		return err
	}
	headers := []string{"Topic", "Accuracy", "Correct", "Answered", "Runs"}
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, []string{
			r.Topic,
			fmt.Sprintf("%.1f%%", topicAccuracy(r)*100),
			humanize.Comma(int64(r.Correct)),
			humanize.Comma(int64(r.Total)),
			humanize.Comma(int64(r.Runs)),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true}
	for _, line := range formatTable(headers, tableRows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderTopicTrends plots per-topic score curves.
func RenderTopicTrends(w io.Writer, runs []model.RunAggregate, perRun map[string]map[int64]model.TopicStats, topics []string, window, totalWidth, height int, useColor bool) error {
	if len(topics) == 0 || len(runs) == 0 {
		return nil
	}
	series := make([]Series, 0, len(topics))
	for _, topic := range topics {
		values := make([]float64, 0, len(runs))
		for _, r := range runs {
			if ts, ok := perRun[topic][r.ID]; ok && ts.Total > 0 {
				values = append(values, RunPercentage(ts.Correct, ts.Total))
			}
		}
		series = append(series, Series{Name: topic, Values: MovingAverage(values, window)})
	}
	width := 0
	if totalWidth > 0 {
		width = PlotWidthFor(totalWidth)
	}
	return PlotSeriesWithColor(w, "Per-Topic Trends", series, width, height, useColor)
}

func sortByAccuracy(aggs []model.TopicAggregate) {
	sort.Slice(aggs, func(i, j int) bool {
		ai, aj := topicAccuracy(aggs[i]), topicAccuracy(aggs[j])
		if ai == aj {
			return aggs[i].Topic < aggs[j].Topic
		}
		return ai < aj
	})
}

func topicAccuracy(agg model.TopicAggregate) float64 {
	if agg.Total == 0 {
		return 1.0
	}
	return float64(agg.Correct) / float64(agg.Total)
}
