package stats

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/regquiz/internal/model"
	"github.com/verte-zerg/regquiz/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "regquiz.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	var ids []int64
	for i := 0; i < 3; i++ {
		start := time.Unix(0, 0).Add(time.Duration(i) * time.Minute)
		run := model.RunStats{
			RunID:     fmt.Sprintf("run-%d", i),
			StartedAt: start,
			EndedAt:   start.Add(30 * time.Second),
			Topics:    []string{"GPIO", "RCC"},
			BankPath:  "embedded",
			Score:     3,
			Total:     4,
			Answered:  4,
		}
		topics := []model.TopicStats{
			{Topic: "GPIO", Correct: 2, Total: 2},
			{Topic: "RCC", Correct: 1, Total: 2},
		}
		id, err := st.InsertRun(ctx, run, topics)
		if err != nil {
			t.Fatalf("insert run: %v", err)
		}
		ids = append(ids, id)
	}

	report, err := BuildReport(ctx, st, model.HistoryConfig{Last: 2, Window: 1})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(report.Runs))
	}
	if report.Runs[0].ID != ids[1] || report.Runs[1].ID != ids[2] {
		t.Fatalf("unexpected run ids: %+v", report.Runs)
	}
	if len(report.WindowRunIDs) != 1 || report.WindowRunIDs[0] != ids[2] {
		t.Fatalf("unexpected window run ids: %v", report.WindowRunIDs)
	}
	if len(report.TopicAggsAll) != 2 || len(report.TopicAggsWindow) != 2 {
		t.Fatalf("expected topic aggregates, got %+v %+v", report.TopicAggsAll, report.TopicAggsWindow)
	}
	if len(report.TrendTopics) != 2 || len(report.TopicRuns["RCC"]) != 2 {
		t.Fatalf("expected per-topic trend data, got %v %+v", report.TrendTopics, report.TopicRuns)
	}

	report, err = BuildReport(ctx, st, model.HistoryConfig{Topic: "GPIO"})
	if err != nil {
		t.Fatalf("build topic report: %v", err)
	}
	if len(report.TrendTopics) != 1 || report.TrendTopics[0] != "GPIO" || len(report.Runs) != 3 {
		t.Fatalf("unexpected topic report %+v", report)
	}
}
