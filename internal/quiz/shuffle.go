package quiz

import (
	"math/rand"
	"time"
)

// Shuffler permutes question pools. It is not safe for concurrent use.
type Shuffler struct {
	rnd *rand.Rand
}

// NewShuffler returns a Shuffler with a fixed seed, for reproducible runs.
func NewShuffler(seed int64) *Shuffler {
	return &Shuffler{rnd: rand.New(rand.NewSource(seed))}
}

// NewTimeShuffler returns a Shuffler seeded with the current time.
func NewTimeShuffler() *Shuffler {
	return NewShuffler(time.Now().UnixNano())
}

// Permute applies an in-place Fisher-Yates shuffle to n elements using swap.
func (s *Shuffler) Permute(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := s.rnd.Intn(i + 1)
		swap(i, j)
	}
}
