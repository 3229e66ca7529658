package stats

import (
	"github.com/verte-zerg/regquiz/internal/model"
)

// SelectWeakTopics returns up to top topics with the lowest accuracy. Topics
// without answers are never weak.
func SelectWeakTopics(aggs []model.TopicAggregate, top int) []string {
	candidates := make([]model.TopicAggregate, 0, len(aggs))
	for _, agg := range aggs {
		if agg.Total > 0 {
			candidates = append(candidates, agg)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sortByAccuracy(candidates)
	if top <= 0 || top > len(candidates) {
		top = len(candidates)
	}
	weak := make([]string, 0, top)
	for _, agg := range candidates[:top] {
		weak = append(weak, agg.Topic)
	}
	return weak
}
