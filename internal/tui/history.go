package tui

import (
	"context"

	"github.com/verte-zerg/regquiz/internal/model"
	statsPkg "github.com/verte-zerg/regquiz/internal/stats"
	"github.com/verte-zerg/regquiz/internal/store"
)

// History records finished runs and reports past results.
type History interface {
	RecordRun(ctx context.Context, run model.RunStats, topics []model.TopicStats) error
	Overview(ctx context.Context) (last, all float64, ok bool, err error)
	WeakTopics(ctx context.Context, window, top int) ([]string, error)
}

// StoreHistory keeps history in the SQLite store.
type StoreHistory struct {
	store *store.Store
}

// NewStoreHistory wraps st.
func NewStoreHistory(st *store.Store) *StoreHistory {
	return &StoreHistory{store: st}
}

// RecordRun implements History.
func (h *StoreHistory) RecordRun(ctx context.Context, run model.RunStats, topics []model.TopicStats) error {
	_, err := h.store.InsertRun(ctx, run, topics)
	return err
}

// Overview implements History.
func (h *StoreHistory) Overview(ctx context.Context) (float64, float64, bool, error) {
	runs, err := h.store.ListRuns(ctx, model.HistoryConfig{})
	if err != nil {
		return 0, 0, false, err
	}
	last, all, ok := statsPkg.Overview(runs)
	return last, all, ok, nil
}

// WeakTopics implements History.
func (h *StoreHistory) WeakTopics(ctx context.Context, window, top int) ([]string, error) {
	aggs, err := h.store.GetWeakTopics(ctx, window)
	if err != nil {
		return nil, err
	}
	return statsPkg.SelectWeakTopics(aggs, top), nil
}
