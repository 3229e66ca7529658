package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/regquiz/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "regquiz.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return st
}

func insertRun(t *testing.T, st *Store, runID string, ended time.Time, topics ...model.TopicStats) int64 {
	t.Helper()
	run := model.RunStats{RunID: runID, StartedAt: ended.Add(-time.Minute), EndedAt: ended, Topics: []string{"RCC", "GPIO"}}
	for _, ts := range topics {
		run.Score += ts.Correct
		run.Total += ts.Total
		run.Answered += ts.Total
	}
	id, err := st.InsertRun(context.Background(), run, topics)
	if err != nil {
		t.Fatalf("insert run %s: %v", runID, err)
	}
	return id
}

// TestInsertAndListRuns verifies runs are listed oldest first with filters.
func TestInsertAndListRuns(t *testing.T) {
	st := openTestStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	insertRun(t, st, "b", base.Add(time.Hour), model.TopicStats{Topic: "RCC", Correct: 1, Total: 2})
	insertRun(t, st, "a", base, model.TopicStats{Topic: "GPIO", Correct: 2, Total: 2})

	runs, err := st.ListRuns(context.Background(), model.HistoryConfig{})
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != "a" || runs[1].RunID != "b" {
		t.Fatalf("unexpected runs %+v", runs)
	}
	if runs[1].Score != 1 || runs[1].Total != 2 || !runs[1].EndedAt.Equal(base.Add(time.Hour)) {
		t.Fatalf("unexpected run aggregate %+v", runs[1])
	}

	runs, err = st.ListRuns(context.Background(), model.HistoryConfig{Topic: "RCC"})
	if err != nil {
		t.Fatalf("list runs by topic: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != "b" {
		t.Fatalf("expected only the RCC run, got %+v", runs)
	}

	since := base.Add(30 * time.Minute)
	runs, err = st.ListRuns(context.Background(), model.HistoryConfig{Since: &since})
	if err != nil {
		t.Fatalf("list runs since: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != "b" {
		t.Fatalf("expected only the later run, got %+v", runs)
	}
}

// TestInsertRunRejectsDuplicateRunID verifies run ids are unique.
func TestInsertRunRejectsDuplicateRunID(t *testing.T) {
	st := openTestStore(t)
	now := time.Now()
	insertRun(t, st, "same", now)
	if _, err := st.InsertRun(context.Background(), model.RunStats{RunID: "same", StartedAt: now, EndedAt: now}, nil); err == nil {
		t.Fatalf("expected duplicate run id error")
	}
}

// TestTopicAggregates verifies per-topic sums across runs and the weak window.
func TestTopicAggregates(t *testing.T) {
	st := openTestStore(t)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first := insertRun(t, st, "1", base,
		model.TopicStats{Topic: "RCC", Correct: 0, Total: 2},
		model.TopicStats{Topic: "GPIO", Correct: 1, Total: 1})
	second := insertRun(t, st, "2", base.Add(time.Hour),
		model.TopicStats{Topic: "RCC", Correct: 2, Total: 2})

	aggs, err := st.ListTopicAggregatesForRuns(context.Background(), []int64{first, second})
	if err != nil {
		t.Fatalf("list aggregates: %v", err)
	}
	byTopic := map[string]model.TopicAggregate{}
	for _, agg := range aggs {
		byTopic[agg.Topic] = agg
	}
	if byTopic["RCC"] != (model.TopicAggregate{Topic: "RCC", Correct: 2, Total: 4, Runs: 2}) {
		t.Fatalf("unexpected RCC aggregate %+v", byTopic["RCC"])
	}

	weak, err := st.GetWeakTopics(context.Background(), 1)
	if err != nil {
		t.Fatalf("weak topics: %v", err)
	}
	if len(weak) != 1 || weak[0].Topic != "RCC" || weak[0].Correct != 2 {
		t.Fatalf("expected only the latest run, got %+v", weak)
	}

	perRun, err := st.ListTopicStatsForRuns(context.Background(), []int64{first, second}, "GPIO")
	if err != nil {
		t.Fatalf("topic stats: %v", err)
	}
	if len(perRun) != 1 || perRun[first].Correct != 1 {
		t.Fatalf("unexpected per-run stats %+v", perRun)
	}
}

// TestEmptyQueries verifies empty inputs short-circuit.
func TestEmptyQueries(t *testing.T) {
	st := openTestStore(t)
	if aggs, err := st.ListTopicAggregatesForRuns(context.Background(), nil); err != nil || aggs != nil {
		t.Fatalf("expected nil aggregates, got %v %v", aggs, err)
	}
	if weak, err := st.GetWeakTopics(context.Background(), 0); err != nil || weak != nil {
		t.Fatalf("expected nil weak topics, got %v %v", weak, err)
	}
}
