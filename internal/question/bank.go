package question

import (
	_ "embed"
	"sort"
)

// DefaultBankName names the embedded bank in messages and exports.
const DefaultBankName = "stm32f0.yaml"

//go:embed data/stm32f0.yaml
var defaultBank []byte

// DefaultBankData returns the raw embedded STM32F0 bank.
func DefaultBankData() []byte {
	out := make([]byte, len(defaultBank))
	copy(out, defaultBank)
	return out
}

// Default parses the embedded STM32F0 question bank.
func Default() ([]Question, error) {
	return ParseBank(defaultBank, DefaultBankName)
}

// TopicCount pairs a topic with its number of questions.
type TopicCount struct {
	Topic string
	Count int
}

// Topics returns the distinct topics of questions, sorted by name.
func Topics(questions []Question) []string {
	counts := CountByTopic(questions)
	out := make([]string, 0, len(counts))
	for _, c := range counts {
		out = append(out, c.Topic)
	}
	return out
}

// CountByTopic counts questions per topic, sorted by topic name.
func CountByTopic(questions []Question) []TopicCount {
	counts := map[string]int{}
	for _, q := range questions {
		counts[q.Topic]++
	}
	out := make([]TopicCount, 0, len(counts))
	for topic, n := range counts {
		out = append(out, TopicCount{Topic: topic, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Topic < out[j].Topic
	})
	return out
}
