package stats

import (
	"context"

	"github.com/verte-zerg/regquiz/internal/model"
)

// Source is the history storage used by BuildReport.
type Source interface {
	ListRuns(ctx context.Context, cfg model.HistoryConfig) ([]model.RunAggregate, error)
	ListTopicAggregatesForRuns(ctx context.Context, runIDs []int64) ([]model.TopicAggregate, error)
	ListTopicStatsForRuns(ctx context.Context, runIDs []int64, topic string) (map[int64]model.TopicStats, error)
}

// trendTopics is how many topics get a trend curve when none is selected.
const trendTopics = 3

// Report contains precomputed data for history rendering.
type Report struct {
	Runs            []model.RunAggregate
	WindowRunIDs    []int64
	TopicAggsAll    []model.TopicAggregate
	TopicAggsWindow []model.TopicAggregate
	TrendTopics     []string
	TopicRuns       map[string]map[int64]model.TopicStats
}

// BuildReport loads and prepares data for history rendering.
func BuildReport(ctx context.Context, src Source, cfg model.HistoryConfig) (Report, error) {
	runs, err := src.ListRuns(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	if cfg.Last > 0 && len(runs) > cfg.Last {
		runs = runs[len(runs)-cfg.Last:]
	}

	allIDs := runIDs(runs)
	windowIDs := lastRunIDs(runs, cfg.Window)
	aggsAll, err := src.ListTopicAggregatesForRuns(ctx, allIDs)
	if err != nil {
		return Report{}, err
	}
	aggsWindow, err := src.ListTopicAggregatesForRuns(ctx, windowIDs)
	if err != nil {
		return Report{}, err
	}

	topics := TopTopicsByAnswers(aggsAll, trendTopics)
	if cfg.Topic != "" {
		topics = []string{cfg.Topic}
	}
	topicRuns := make(map[string]map[int64]model.TopicStats, len(topics))
	for _, topic := range topics {
		perRun, err := src.ListTopicStatsForRuns(ctx, allIDs, topic)
		if err != nil {
			return Report{}, err
		}
		topicRuns[topic] = perRun
	}

	return Report{
		Runs:            runs,
		WindowRunIDs:    windowIDs,
		TopicAggsAll:    aggsAll,
		TopicAggsWindow: aggsWindow,
		TrendTopics:     topics,
		TopicRuns:       topicRuns,
	}, nil
}

func runIDs(runs []model.RunAggregate) []int64 {
	ids := make([]int64, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	return ids
}

func lastRunIDs(runs []model.RunAggregate, window int) []int64 {
	if window <= 0 || len(runs) <= window {
		return runIDs(runs)
	}
	return runIDs(runs[len(runs)-window:])
}
