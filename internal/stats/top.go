package stats

import (
	"sort"

	"github.com/verte-zerg/regquiz/internal/model"
)

// TopTopicsByAnswers returns the n most answered topics.
func TopTopicsByAnswers(aggs []model.TopicAggregate, n int) []string {
	if n <= 0 || len(aggs) == 0 {
		return nil
	}
	items := make([]model.TopicAggregate, len(aggs))
	copy(items, aggs)
	sort.Slice(items, func(i, j int) bool {
		if items[i].Total == items[j].Total {
			return items[i].Topic < items[j].Topic
		}
		return items[i].Total > items[j].Total
	})
	n = min(n, len(items))
	out := make([]string, 0, n)
	for _, item := range items[:n] {
		out = append(out, item.Topic)
	}
	return out
}
